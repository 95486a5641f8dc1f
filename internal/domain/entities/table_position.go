package entities

import "time"

// TablePosition is a user-managed position bookmark. It lives outside the
// controller's concurrency model and is only touched through the HTTP API.
type TablePosition struct {
	ID        string    `gorm:"primaryKey;not null" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
