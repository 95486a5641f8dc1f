package drivers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hephylab/tableService/internal/domain/models"
)

// abortMessage is the Venus-1 stop request (Ctrl+C).
const abortMessage = "\x03"

// Corvus drives an ITK Corvus stepper controller over a single resource
// speaking the Venus-1 command language.
type Corvus struct {
	res Line
}

func NewCorvus(res Line) *Corvus {
	return &Corvus{res: res}
}

func (d *Corvus) Identify() ([]string, error) {
	idn, err := venusIdentity(d.res, "identify", "version")
	if err != nil {
		return nil, err
	}
	return []string{idn}, nil
}

// Configure switches the controller into host mode. Required before the
// identify response can be trusted.
func (d *Corvus) Configure() error {
	_, err := d.res.Write("0 mode")
	return err
}

func (d *Corvus) Abort() error {
	_, err := d.res.Write(abortMessage)
	return err
}

func (d *Corvus) CalibrationState() (models.Vector, error) {
	reply, err := d.res.Query("-1 getcaldone")
	if err != nil {
		return models.Vector{}, err
	}
	return parseVector(reply)
}

func (d *Corvus) Position() (models.Vector, error) {
	reply, err := d.res.Query("pos")
	if err != nil {
		return models.Vector{}, err
	}
	return parseVector(reply)
}

func (d *Corvus) IsMoving() (bool, error) {
	reply, err := d.res.Query("status")
	if err != nil {
		return false, err
	}
	status, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		return false, fmt.Errorf("invalid status reply %q: %w", reply, err)
	}
	return testState(status, 0x1), nil
}

func (d *Corvus) MoveRelative(delta models.Vector) error {
	_, err := d.res.Write(fmt.Sprintf("%.6f %.6f %.6f rmove", delta.X, delta.Y, delta.Z))
	return err
}

func (d *Corvus) MoveAbsolute(position models.Vector) error {
	_, err := d.res.Write(fmt.Sprintf("%.6f %.6f %.6f move", position.X, position.Y, position.Z))
	return err
}

func (d *Corvus) Calibrate(axes models.AxisMask) error {
	return writePerAxis(d.res, axes, "ncal")
}

func (d *Corvus) RangeMeasure(axes models.AxisMask) error {
	return writePerAxis(d.res, axes, "nrm")
}

func (d *Corvus) EnableJoystick(enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	_, err := d.res.Write(fmt.Sprintf("%d joystick", value))
	return err
}

// writePerAxis issues one "<axis> <command>" write per selected axis,
// axes numbered 1..3.
func writePerAxis(res Line, axes models.AxisMask, command string) error {
	for axis, selected := range []bool{axes.X, axes.Y, axes.Z} {
		if !selected {
			continue
		}
		if _, err := res.Write(fmt.Sprintf("%d %s", axis+1, command)); err != nil {
			return err
		}
	}
	return nil
}

// venusIdentity concatenates the replies of the given identity queries.
func venusIdentity(res Line, queries ...string) (string, error) {
	parts := make([]string, 0, len(queries))
	for _, q := range queries {
		reply, err := res.Query(q)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimSpace(reply))
	}
	return strings.Join(parts, " "), nil
}

// parseVector reads the first three whitespace-separated floats of a reply.
func parseVector(reply string) (models.Vector, error) {
	fields := strings.Fields(reply)
	if len(fields) < 3 {
		return models.Vector{}, fmt.Errorf("invalid vector reply: %q", reply)
	}
	var values [3]float64
	for i := 0; i < 3; i++ {
		value, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return models.Vector{}, fmt.Errorf("invalid vector reply %q: %w", reply, err)
		}
		values[i] = value
	}
	return models.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}
