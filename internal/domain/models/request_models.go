package models

// ConnectRequest asks the controller to open a new connection.
type ConnectRequest struct {
	Name       string                  `json:"name"`
	DriverType string                  `json:"driver_type" binding:"required"`
	Resources  []ResourceConfigRequest `json:"resources"`
}

// ResourceConfigRequest is the JSON shape of one resource config.
type ResourceConfigRequest struct {
	ResourceName string  `json:"resource_name" binding:"required"`
	BaudRate     int     `json:"baud_rate"`
	Termination  string  `json:"termination"`
	TimeoutSec   float64 `json:"timeout"`
}

// MoveRelativeRequest is a three-axis relative move.
type MoveRelativeRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
	DZ float64 `json:"dz"`
}

// MoveAbsoluteRequest is a three-axis absolute move. The configured Z-limit
// policy is applied by the controller, not by the caller.
type MoveAbsoluteRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// AxisMaskRequest selects axes for calibrate and range-measure.
type AxisMaskRequest struct {
	X bool `json:"x"`
	Y bool `json:"y"`
	Z bool `json:"z"`
}

// JoystickRequest toggles manual joystick control.
type JoystickRequest struct {
	Enabled bool `json:"enabled"`
}

// ZLimitRequest updates the Z safety plane.
type ZLimitRequest struct {
	Enabled bool    `json:"enabled"`
	Value   float64 `json:"value"`
}

// TablePositionRequest creates or updates a stored table position.
type TablePositionRequest struct {
	Name    string  `json:"name" binding:"required"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Comment string  `json:"comment"`
}
