package drivers

import (
	"sync"
	"time"

	"github.com/hephylab/tableService/internal/domain/models"
)

// Dummy simulates a table without hardware. Motion progresses at a fixed
// per-axis velocity on the monotonic clock, so polling behaves like a real
// controller. Calibration always reports ready.
type Dummy struct {
	mu  sync.Mutex
	pos [3]float64
	vel [3]float64

	startPos  [3]float64
	targetPos [3]float64
	tStart    time.Time
	moving    bool
}

func NewDummy() *Dummy {
	return &Dummy{vel: [3]float64{2.0, 2.0, 2.0}}
}

func (d *Dummy) Identify() ([]string, error) {
	return []string{"Dummy, v1.0"}, nil
}

func (d *Dummy) Configure() error { return nil }

func (d *Dummy) Abort() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateMotion()
	d.moving = false
	return nil
}

func (d *Dummy) CalibrationState() (models.Vector, error) {
	return models.Vector{X: models.CalReady, Y: models.CalReady, Z: models.CalReady}, nil
}

// clampStep advances one axis from start toward target at vel units/sec
// over elapsed dt without overshooting.
func clampStep(start, target, vel, dt float64) float64 {
	if vel == 0.0 || start == target {
		return target
	}
	direction := 1.0
	if target < start {
		direction = -1.0
	}
	stepped := start + direction*vel*dt
	if direction > 0 {
		if stepped > target {
			return target
		}
	} else if stepped < target {
		return target
	}
	return stepped
}

// updateMotion recomputes pos and moving from elapsed time. Caller holds
// the lock.
func (d *Dummy) updateMotion() {
	if !d.moving {
		return
	}
	dt := time.Since(d.tStart).Seconds()
	arrived := true
	for i := range d.pos {
		d.pos[i] = clampStep(d.startPos[i], d.targetPos[i], d.vel[i], dt)
		if d.pos[i] != d.targetPos[i] {
			arrived = false
		}
	}
	if arrived {
		d.moving = false
	}
}

func (d *Dummy) Position() (models.Vector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateMotion()
	return models.Vector{X: d.pos[0], Y: d.pos[1], Z: d.pos[2]}, nil
}

func (d *Dummy) IsMoving() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateMotion()
	return d.moving, nil
}

func (d *Dummy) MoveRelative(delta models.Vector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateMotion()
	d.startPos = d.pos
	d.targetPos = [3]float64{
		d.startPos[0] + delta.X,
		d.startPos[1] + delta.Y,
		d.startPos[2] + delta.Z,
	}
	d.tStart = time.Now()
	d.moving = true
	return nil
}

func (d *Dummy) MoveAbsolute(position models.Vector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateMotion()
	d.startPos = d.pos
	d.targetPos = [3]float64{position.X, position.Y, position.Z}
	d.tStart = time.Now()
	d.moving = true
	return nil
}

func (d *Dummy) Calibrate(axes models.AxisMask) error { return nil }

func (d *Dummy) RangeMeasure(axes models.AxisMask) error { return nil }

func (d *Dummy) EnableJoystick(enabled bool) error { return nil }

// SetVelocity overrides the simulated per-axis velocity. Test hook.
func (d *Dummy) SetVelocity(v models.Vector) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vel = [3]float64{v.X, v.Y, v.Z}
}
