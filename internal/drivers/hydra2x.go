package drivers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hephylab/tableService/internal/domain/models"
)

// Hydra2x drives a pair of PI Hydra controllers: X/Y on the first
// resource, Z on the second. Multi-axis commands become two writes,
// multi-axis queries aggregate into one vector.
type Hydra2x struct {
	xy Line
	z  Line
}

func NewHydra2x(xy, z Line) *Hydra2x {
	return &Hydra2x{xy: xy, z: z}
}

func (d *Hydra2x) resources() []Line {
	return []Line{d.xy, d.z}
}

func (d *Hydra2x) Identify() ([]string, error) {
	idn := make([]string, 0, 2)
	for _, res := range d.resources() {
		s, err := venusIdentity(res, "identify", "version", "getserialno")
		if err != nil {
			return nil, err
		}
		idn = append(idn, s)
	}
	return idn, nil
}

func (d *Hydra2x) Configure() error {
	return nil
}

func (d *Hydra2x) Abort() error {
	for _, res := range d.resources() {
		if _, err := res.Write(abortMessage); err != nil {
			return err
		}
	}
	return nil
}

func (d *Hydra2x) CalibrationState() (models.Vector, error) {
	x, err := d.axisState(d.xy, 1)
	if err != nil {
		return models.Vector{}, err
	}
	y, err := d.axisState(d.xy, 2)
	if err != nil {
		return models.Vector{}, err
	}
	z, err := d.axisState(d.z, 1)
	if err != nil {
		return models.Vector{}, err
	}
	return models.Vector{X: x, Y: y, Z: z}, nil
}

// axisState extracts the two calibration bits from an "n nst" reply.
func (d *Hydra2x) axisState(res Line, axis int) (float64, error) {
	reply, err := res.Query(fmt.Sprintf("%d nst", axis))
	if err != nil {
		return 0, err
	}
	state, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		return 0, fmt.Errorf("invalid axis state reply %q: %w", reply, err)
	}
	return float64((state >> 3) & 0x3), nil
}

func (d *Hydra2x) Position() (models.Vector, error) {
	x, err := d.axisPosition(d.xy, 1)
	if err != nil {
		return models.Vector{}, err
	}
	y, err := d.axisPosition(d.xy, 2)
	if err != nil {
		return models.Vector{}, err
	}
	z, err := d.axisPosition(d.z, 1)
	if err != nil {
		return models.Vector{}, err
	}
	return models.Vector{X: x, Y: y, Z: z}, nil
}

func (d *Hydra2x) axisPosition(res Line, axis int) (float64, error) {
	reply, err := res.Query(fmt.Sprintf("%d np", axis))
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position reply %q: %w", reply, err)
	}
	return value, nil
}

func (d *Hydra2x) IsMoving() (bool, error) {
	for _, res := range d.resources() {
		reply, err := res.Query("st")
		if err != nil {
			return false, err
		}
		status, err := strconv.Atoi(strings.TrimSpace(reply))
		if err != nil {
			return false, fmt.Errorf("invalid status reply %q: %w", reply, err)
		}
		if testState(status, 0x1) {
			return true, nil
		}
	}
	return false, nil
}

func (d *Hydra2x) MoveRelative(delta models.Vector) error {
	if _, err := d.xy.Write(fmt.Sprintf("%v %v r", delta.X, delta.Y)); err != nil {
		return err
	}
	_, err := d.z.Write(fmt.Sprintf("%v 0 r", delta.Z))
	return err
}

func (d *Hydra2x) MoveAbsolute(position models.Vector) error {
	if _, err := d.xy.Write(fmt.Sprintf("%v %v m", position.X, position.Y)); err != nil {
		return err
	}
	_, err := d.z.Write(fmt.Sprintf("%v 0 m", position.Z))
	return err
}

func (d *Hydra2x) Calibrate(axes models.AxisMask) error {
	return d.writePerAxis(axes, "ncal")
}

func (d *Hydra2x) RangeMeasure(axes models.AxisMask) error {
	return d.writePerAxis(axes, "nrm")
}

// writePerAxis maps X/Y to axes 1/2 of the first controller and Z to
// axis 1 of the second.
func (d *Hydra2x) writePerAxis(axes models.AxisMask, command string) error {
	if axes.X {
		if _, err := d.xy.Write(fmt.Sprintf("1 %s", command)); err != nil {
			return err
		}
	}
	if axes.Y {
		if _, err := d.xy.Write(fmt.Sprintf("2 %s", command)); err != nil {
			return err
		}
	}
	if axes.Z {
		if _, err := d.z.Write(fmt.Sprintf("1 %s", command)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Hydra2x) EnableJoystick(enabled bool) error {
	states := 0x0
	if enabled {
		states = 0xF
	}
	for _, res := range d.resources() {
		for axis := 1; axis <= 2; axis++ {
			if _, err := res.Write(fmt.Sprintf("%d %d setmanctrl", states, axis)); err != nil {
				return err
			}
		}
	}
	return nil
}
