package models

import "math"

// Vector is a three-component coordinate tuple. Device units are assumed
// millimeters. Immutable value type: pass and store by value.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NaNVector returns the "position unknown" marker used while disconnected
// and during a fresh connect attempt.
func NaNVector() Vector {
	return Vector{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
}

// AxisMask selects which of the X/Y/Z axes an operation applies to.
type AxisMask struct {
	X bool `json:"x"`
	Y bool `json:"y"`
	Z bool `json:"z"`
}

// Any reports whether at least one axis is selected.
func (m AxisMask) Any() bool { return m.X || m.Y || m.Z }

// Calibration status bits, two per axis.
const (
	CalCalibrated    = 0x1
	CalRangeMeasured = 0x2
	CalReady         = CalCalibrated | CalRangeMeasured
)

// DecodeCalibration renders a per-axis calibration value for display.
func DecodeCalibration(value int) string {
	switch value {
	case CalCalibrated:
		return "CAL"
	case CalRangeMeasured:
		return "RM"
	case CalReady:
		return "CAL+RM"
	}
	return "NONE"
}
