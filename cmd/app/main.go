package main

import "github.com/hephylab/tableService/internal/app"

func main() {
	app.New().Run()
}
