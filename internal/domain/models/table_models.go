package models

import "time"

// ResourceConfig describes one instrument I/O channel of a connection.
// Constructed once per connect attempt and owned by the Connection.
type ResourceConfig struct {
	ResourceName string        `json:"resource_name" binding:"required"` // short or canonical VISA-style name
	BaudRate     int           `json:"baud_rate"`                        // serial only, 0 = driver default
	Termination  string        `json:"termination"`                      // line terminator, defaults to CRLF
	Timeout      time.Duration `json:"-"`                                // read/write timeout
	Adapter      string        `json:"adapter,omitempty"`                // GPIB only: Prologix adapter port
}

// Connection selects a driver variant and the resources it requires.
// Immutable once handed to the controller.
type Connection struct {
	Name       string           `json:"name"`
	DriverType string           `json:"driver_type"`
	Resources  []ResourceConfig `json:"resources"`
}

// TableState is the controller-owned snapshot of the table. It is mutated
// only by the controller worker under its lock and copied out by accessors.
type TableState struct {
	IsMoving      bool    `json:"is_moving"`
	Position      Vector  `json:"position"`
	Calibration   Vector  `json:"calibration"` // per-axis 0..3, see Cal* bits
	ZLimitEnabled bool    `json:"z_limit_enabled"`
	ZLimit        float64 `json:"z_limit"`
}

// ConnectionInfo describes the active connection for the HTTP surface.
type ConnectionInfo struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	Driver    string    `json:"driver_type"`
	Identity  []string  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
}
