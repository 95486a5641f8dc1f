package table_service

import (
	"io"
	"time"

	"github.com/hephylab/tableService/internal/domain/models"
	"github.com/hephylab/tableService/internal/drivers"
	"github.com/hephylab/tableService/pkg/errors"
)

// pollSchedule spaces the IsMoving polls during a motion step. The first
// polls are tight to catch short hops, then the interval backs off; the
// last value repeats until the motion settles.
var pollSchedule = []time.Duration{
	10 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	1000 * time.Millisecond,
}

func vec(x, y, z float64) models.Vector {
	return models.Vector{X: x, Y: y, Z: z}
}

// session bundles everything alive between a successful connect and the
// matching disconnect: the driver and the resources it owns. All methods
// run on the controller worker goroutine.
type session struct {
	ctrl      *Controller
	driver    drivers.Driver
	resources []io.Closer
}

func (s *session) close() {
	for _, r := range s.resources {
		if err := r.Close(); err != nil {
			s.ctrl.logger.Warn("Failed to close resource", "error", err)
		}
	}
	s.resources = nil
	s.driver = nil
}

func (s *session) setMoving(moving bool) {
	s.ctrl.mu.Lock()
	s.ctrl.state.IsMoving = moving
	s.ctrl.mu.Unlock()
	s.ctrl.notifyMovement(moving)
}

func (s *session) setPosition(pos models.Vector) {
	s.ctrl.mu.Lock()
	s.ctrl.state.Position = pos
	s.ctrl.mu.Unlock()
	s.ctrl.notifyPosition(pos)
}

func (s *session) setCalibration(cal models.Vector) {
	s.ctrl.mu.Lock()
	s.ctrl.state.Calibration = cal
	s.ctrl.mu.Unlock()
	s.ctrl.notifyCalibration(cal)
}

// checkAbort consumes a pending abort request. It stops the hardware,
// waits for the axes to settle and reports ErrAbortRequested so the
// session loop can flush the command backlog.
func (s *session) checkAbort() error {
	if !s.ctrl.abortRequest.CompareAndSwap(true, false) {
		return nil
	}
	s.ctrl.logger.Info("Abort requested, stopping table")
	if err := s.driver.Abort(); err != nil {
		return err
	}
	if err := s.waitSettled(); err != nil {
		return err
	}
	return errors.ErrAbortRequested
}

// waitSettled polls until the hardware reports idle. Used after an abort,
// where the backoff schedule does not apply.
func (s *session) waitSettled() error {
	deadline := time.Now().Add(s.ctrl.motionTimeout)
	for {
		moving, err := s.driver.IsMoving()
		if err != nil {
			return err
		}
		if !moving {
			return nil
		}
		if time.Now().After(deadline) {
			return &errors.TimeoutError{After: s.ctrl.motionTimeout}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// checkCalibration gates motion on the cached per-axis calibration state.
// Every axis must carry both the calibrated and range-measured bits. On
// rejection the hardware is stopped and no motion command is issued.
func (s *session) checkCalibration() error {
	s.ctrl.mu.RLock()
	cal := s.ctrl.state.Calibration
	s.ctrl.mu.RUnlock()

	for _, axis := range []struct {
		name  string
		value float64
	}{{"x", cal.X}, {"y", cal.Y}, {"z", cal.Z}} {
		if int(axis.value) != models.CalReady {
			if err := s.driver.Abort(); err != nil {
				s.ctrl.logger.Warn("Failed to stop table", "error", err)
			}
			return &errors.CalibrationError{Axis: axis.name}
		}
	}
	return nil
}

// performMotion runs one motion step: issue the (non-blocking) driver call,
// then poll until the hardware settles, publishing the position after every
// poll. A pending abort is honored both before the step and once it ends.
func (s *session) performMotion(motion func(d drivers.Driver) error) error {
	if err := s.checkAbort(); err != nil {
		return err
	}

	if err := motion(s.driver); err != nil {
		return err
	}

	deadline := time.Now().Add(s.ctrl.motionTimeout)
	for step := 0; ; step++ {
		interval := pollSchedule[len(pollSchedule)-1]
		if step < len(pollSchedule) {
			interval = pollSchedule[step]
		}
		time.Sleep(interval)

		moving, err := s.driver.IsMoving()
		if err != nil {
			return err
		}
		pos, err := s.driver.Position()
		if err != nil {
			return err
		}
		s.setPosition(pos)

		if err := s.checkAbort(); err != nil {
			return err
		}
		if !moving {
			break
		}
		if time.Now().After(deadline) {
			if err := s.driver.Abort(); err != nil {
				s.ctrl.logger.Warn("Failed to stop table", "error", err)
			}
			return &errors.TimeoutError{After: s.ctrl.motionTimeout}
		}
	}

	return s.checkAbort()
}
