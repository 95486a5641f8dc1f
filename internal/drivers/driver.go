package drivers

import (
	"fmt"
	"strings"

	"github.com/hephylab/tableService/internal/domain/models"
)

// Line is the I/O contract a driver needs from an open resource: blocking
// line-oriented write and query. Satisfied by *resource.Resource and by
// test doubles.
type Line interface {
	Name() string
	Write(message string) (int, error)
	Query(message string) (string, error)
}

// Driver is the hardware abstraction over one or more acquired resources.
// Motion calls are non-blocking: they issue the device command and return,
// the caller polls IsMoving/Position to track completion. Drivers never
// retry; any I/O failure propagates to the table controller.
type Driver interface {
	// Identify returns one identification string per underlying resource.
	Identify() ([]string, error)
	// Configure performs one-time protocol setup. Called once per
	// connection, before Identify is trusted.
	Configure() error
	// Abort requests an immediate stop. Best effort, non-blocking, safe
	// while idle.
	Abort() error
	// CalibrationState returns per-axis status 0..3 (bit0 calibrated,
	// bit1 range-measured).
	CalibrationState() (models.Vector, error)
	Position() (models.Vector, error)
	IsMoving() (bool, error)
	MoveRelative(delta models.Vector) error
	MoveAbsolute(position models.Vector) error
	Calibrate(axes models.AxisMask) error
	RangeMeasure(axes models.AxisMask) error
	EnableJoystick(enabled bool) error
}

// Driver type identifiers, as selected by the connect workflow.
const (
	TypeDummy   = "dummy"
	TypeCorvus  = "corvus"
	TypeHydra2x = "hydra2x"
)

// ResourceCount returns how many resources a driver variant requires.
func ResourceCount(driverType string) (int, error) {
	switch strings.ToLower(driverType) {
	case TypeDummy:
		return 0, nil
	case TypeCorvus:
		return 1, nil
	case TypeHydra2x:
		return 2, nil
	}
	return 0, fmt.Errorf("unknown driver type: %q", driverType)
}

// New instantiates the driver variant over the ordered resource list.
func New(driverType string, resources []Line) (Driver, error) {
	count, err := ResourceCount(driverType)
	if err != nil {
		return nil, err
	}
	if len(resources) != count {
		return nil, fmt.Errorf("driver %q requires %d resources, got %d", driverType, count, len(resources))
	}
	switch strings.ToLower(driverType) {
	case TypeDummy:
		return NewDummy(), nil
	case TypeCorvus:
		return NewCorvus(resources[0]), nil
	case TypeHydra2x:
		return NewHydra2x(resources[0], resources[1]), nil
	}
	return nil, fmt.Errorf("unknown driver type: %q", driverType)
}

func testState(state, value int) bool {
	return state&value == value
}
