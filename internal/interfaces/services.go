package interfaces

import (
	"github.com/hephylab/tableService/internal/domain/models"
)

// TableController is the public surface of the table controller actor.
// Mutators are non-blocking: they enqueue a command for the worker and
// return immediately. Accessors read a locked snapshot of the table state.
type TableController interface {
	// Connect opens the given connection. The pending connection replaces
	// any previously requested one; the command is prioritized ahead of
	// queued motion commands.
	Connect(conn models.Connection)
	// Disconnect tears down the active connection. Prioritized, so it wins
	// over stale queued motion commands.
	Disconnect()
	// Abort requests a stop of the current motion and flushes the command
	// backlog. The connection stays up.
	Abort()

	MoveRelative(dx, dy, dz float64)
	MoveAbsolute(x, y, z float64)
	Calibrate(axes models.AxisMask)
	RangeMeasure(axes models.AxisMask)
	EnableJoystick(enabled bool)
	RequestUpdate()
	RequestCalibrationState()

	IsConnected() bool
	IsMoving() bool
	Position() models.Vector
	Calibration() models.Vector
	ZLimitEnabled() bool
	ZLimit() float64
	SetZLimitEnabled(enabled bool)
	SetZLimit(value float64)
	SetUpdateInterval(seconds float64)
	ConnectionInfo() *models.ConnectionInfo

	TableEvents

	// Shutdown stops the worker and blocks until it has exited.
	Shutdown()
}

// TableEvents registers typed state-change listeners. Each setter call on
// the controller state produces exactly one notification, delivered after
// the mutation is visible.
type TableEvents interface {
	OnConnected(func(info []string))
	OnDisconnected(func())
	OnFailure(func(err error))
	OnMovementStarted(func())
	OnMovementFinished(func())
	OnPositionChanged(func(pos models.Vector))
	OnCalibrationChanged(func(cal models.Vector))
}
