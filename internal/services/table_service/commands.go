package table_service

import (
	"github.com/hephylab/tableService/internal/domain/models"
	"github.com/hephylab/tableService/internal/drivers"
)

// Command is one unit of work consumed by the controller worker. Commands
// are immutable value objects, enqueued by callers and dequeued exactly
// once. Execute runs on the worker goroutine, the only goroutine allowed
// to touch the driver.
type Command interface {
	Execute(s *session) error
}

type connectCommand struct{}

type disconnectCommand struct{}

// Connect and Disconnect never execute through a session; the worker
// handles them in its loops.
func (connectCommand) Execute(s *session) error    { return nil }
func (disconnectCommand) Execute(s *session) error { return nil }

type moveRelativeCommand struct {
	dx, dy, dz float64
}

func (cmd moveRelativeCommand) Execute(s *session) error {
	s.ctrl.logger.Info("Move relative", "dx", cmd.dx, "dy", cmd.dy, "dz", cmd.dz)
	s.setMoving(true)
	defer s.setMoving(false)

	if err := s.checkCalibration(); err != nil {
		return err
	}
	return s.performMotion(func(d drivers.Driver) error {
		return d.MoveRelative(vec(cmd.dx, cmd.dy, cmd.dz))
	})
}

type moveAbsoluteCommand struct {
	x, y, z  float64
	zLimit   float64
	hasLimit bool
}

// Execute sequences an absolute move. Without a Z-limit the target is
// approached directly. With a limit the move routes through the safety
// plane: drop vertically to the limit when starting above it, reposition
// in XY at the safe height, then adjust Z to the exact target. The XY and
// final Z steps are skipped when they would be no-ops.
func (cmd moveAbsoluteCommand) Execute(s *session) error {
	s.setMoving(true)
	defer s.setMoving(false)

	if !cmd.hasLimit {
		s.ctrl.logger.Info("Move absolute", "x", cmd.x, "y", cmd.y, "z", cmd.z)
		return s.performMotion(func(d drivers.Driver) error {
			return d.MoveAbsolute(vec(cmd.x, cmd.y, cmd.z))
		})
	}

	if err := s.checkCalibration(); err != nil {
		return err
	}

	pos, err := s.driver.Position()
	if err != nil {
		return err
	}
	currentZ := pos.Z

	if currentZ > cmd.zLimit {
		dz := currentZ - cmd.zLimit
		s.ctrl.logger.Info("Move relative", "dx", 0.0, "dy", 0.0, "dz", -dz)
		if err := s.performMotion(func(d drivers.Driver) error {
			return d.MoveRelative(vec(0, 0, -dz))
		}); err != nil {
			return err
		}
		currentZ = cmd.zLimit
	}

	if pos.X != cmd.x || pos.Y != cmd.y {
		safeZ := currentZ
		s.ctrl.logger.Info("Move absolute", "x", cmd.x, "y", cmd.y, "z", safeZ)
		if err := s.performMotion(func(d drivers.Driver) error {
			return d.MoveAbsolute(vec(cmd.x, cmd.y, safeZ))
		}); err != nil {
			return err
		}
	}

	if cmd.z != currentZ {
		s.ctrl.logger.Info("Move absolute", "x", cmd.x, "y", cmd.y, "z", cmd.z)
		if err := s.performMotion(func(d drivers.Driver) error {
			return d.MoveAbsolute(vec(cmd.x, cmd.y, cmd.z))
		}); err != nil {
			return err
		}
	}

	return nil
}

type calibrateCommand struct {
	axes models.AxisMask
}

func (cmd calibrateCommand) Execute(s *session) error {
	s.ctrl.logger.Info("Calibrate", "x", cmd.axes.X, "y", cmd.axes.Y, "z", cmd.axes.Z)
	s.setMoving(true)
	defer s.setMoving(false)

	return s.performMotion(func(d drivers.Driver) error {
		return d.Calibrate(cmd.axes)
	})
}

type rangeMeasureCommand struct {
	axes models.AxisMask
}

func (cmd rangeMeasureCommand) Execute(s *session) error {
	s.ctrl.logger.Info("Range measure", "x", cmd.axes.X, "y", cmd.axes.Y, "z", cmd.axes.Z)
	s.setMoving(true)
	defer s.setMoving(false)

	return s.performMotion(func(d drivers.Driver) error {
		return d.RangeMeasure(cmd.axes)
	})
}

type enableJoystickCommand struct {
	enabled bool
}

func (cmd enableJoystickCommand) Execute(s *session) error {
	s.ctrl.logger.Info("Set joystick", "enabled", cmd.enabled)
	return s.driver.EnableJoystick(cmd.enabled)
}

type queryPositionCommand struct{}

func (queryPositionCommand) Execute(s *session) error {
	pos, err := s.driver.Position()
	if err != nil {
		return err
	}
	s.setPosition(pos)
	return nil
}

type queryCalibrationCommand struct{}

func (queryCalibrationCommand) Execute(s *session) error {
	cal, err := s.driver.CalibrationState()
	if err != nil {
		return err
	}
	s.ctrl.logger.Debug("Calibration state",
		"x", models.DecodeCalibration(int(cal.X)),
		"y", models.DecodeCalibration(int(cal.Y)),
		"z", models.DecodeCalibration(int(cal.Z)))
	s.setCalibration(cal)
	return nil
}
