package table_service

import (
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/domain/models"
	"github.com/hephylab/tableService/internal/drivers"
	"github.com/hephylab/tableService/internal/interfaces"
	"github.com/hephylab/tableService/internal/middleware/logging"
	"github.com/hephylab/tableService/internal/resource"
	"github.com/hephylab/tableService/pkg/errors"
)

var _ interfaces.TableController = (*Controller)(nil)

// lineCloser is what the controller needs from an opened resource.
// Satisfied by *resource.Resource and by test doubles.
type lineCloser interface {
	drivers.Line
	io.Closer
}

// Controller owns the table hardware through a single worker goroutine.
// Public mutators enqueue commands and return immediately; only the worker
// talks to the driver, so no two device operations ever interleave.
type Controller struct {
	logger *logging.Logger

	queueTimeout  time.Duration
	motionTimeout time.Duration

	mu             sync.RWMutex
	state          models.TableState
	pending        *models.Connection
	connInfo       *models.ConnectionInfo
	updateInterval time.Duration

	commands chan Command // regular FIFO backlog
	ctl      chan Command // connect/disconnect, served first

	abortRequest    atomic.Bool
	shutdownRequest chan struct{}
	shutdownOnce    sync.Once
	done            chan struct{}

	listeners

	// Injection points for tests.
	openResource func(cfg models.ResourceConfig) (lineCloser, error)
	newDriver    func(driverType string, resources []drivers.Line) (drivers.Driver, error)
}

func defaultOpenResource(cfg models.ResourceConfig) (lineCloser, error) {
	return resource.Open(cfg)
}

// NewController creates the controller and starts its worker. Callers must
// Shutdown it to release the worker.
func NewController(cfg *config.AppConfig, logger *logging.Logger) *Controller {
	c := &Controller{
		logger:          logger.WithPrefix("TABLE"),
		queueTimeout:    cfg.Controller.QueueTimeout,
		motionTimeout:   cfg.Controller.MotionTimeout,
		updateInterval:  cfg.Controller.UpdateInterval,
		commands:        make(chan Command, 256),
		ctl:             make(chan Command, 16),
		shutdownRequest: make(chan struct{}),
		done:            make(chan struct{}),
		newDriver:       drivers.New,
	}
	c.openResource = defaultOpenResource
	c.state.Position = models.NaNVector()
	c.state.Calibration = models.Vector{}

	go c.eventLoop()
	return c
}

// Connect requests a connection. The configuration replaces any previously
// pending one; the command itself jumps the motion backlog.
func (c *Controller) Connect(conn models.Connection) {
	c.mu.Lock()
	c.pending = &conn
	c.mu.Unlock()
	c.submit(c.ctl, connectCommand{})
}

func (c *Controller) Disconnect() {
	c.submit(c.ctl, disconnectCommand{})
}

// Abort flags the current motion for cancellation. The worker picks the
// flag up at its next abort checkpoint and flushes the command backlog.
func (c *Controller) Abort() {
	c.abortRequest.Store(true)
}

func (c *Controller) MoveRelative(dx, dy, dz float64) {
	c.submit(c.commands, moveRelativeCommand{dx: dx, dy: dy, dz: dz})
}

// MoveAbsolute enqueues an absolute move. The Z-limit settings are captured
// at enqueue time so a later settings change cannot alter a queued move.
func (c *Controller) MoveAbsolute(x, y, z float64) {
	c.mu.RLock()
	cmd := moveAbsoluteCommand{
		x: x, y: y, z: z,
		zLimit:   c.state.ZLimit,
		hasLimit: c.state.ZLimitEnabled,
	}
	c.mu.RUnlock()
	c.submit(c.commands, cmd)
}

func (c *Controller) Calibrate(axes models.AxisMask) {
	c.submit(c.commands, calibrateCommand{axes: axes})
}

func (c *Controller) RangeMeasure(axes models.AxisMask) {
	c.submit(c.commands, rangeMeasureCommand{axes: axes})
}

func (c *Controller) EnableJoystick(enabled bool) {
	c.submit(c.commands, enableJoystickCommand{enabled: enabled})
}

func (c *Controller) RequestUpdate() {
	c.submit(c.commands, queryPositionCommand{})
}

func (c *Controller) RequestCalibrationState() {
	c.submit(c.commands, queryCalibrationCommand{})
}

func (c *Controller) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connInfo != nil
}

func (c *Controller) IsMoving() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.IsMoving
}

func (c *Controller) Position() models.Vector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Position
}

func (c *Controller) Calibration() models.Vector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Calibration
}

func (c *Controller) ZLimitEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.ZLimitEnabled
}

func (c *Controller) ZLimit() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.ZLimit
}

func (c *Controller) SetZLimitEnabled(enabled bool) {
	c.mu.Lock()
	c.state.ZLimitEnabled = enabled
	c.mu.Unlock()
}

func (c *Controller) SetZLimit(value float64) {
	c.mu.Lock()
	c.state.ZLimit = value
	c.mu.Unlock()
}

func (c *Controller) SetUpdateInterval(seconds float64) {
	c.mu.Lock()
	c.updateInterval = time.Duration(seconds * float64(time.Second))
	c.mu.Unlock()
}

func (c *Controller) ConnectionInfo() *models.ConnectionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.connInfo == nil {
		return nil
	}
	info := *c.connInfo
	return &info
}

// Shutdown stops the worker and blocks until it has exited. An active
// connection is closed first.
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		close(c.shutdownRequest)
	})
	<-c.done
}

// submit enqueues without blocking. A full queue drops the command; the
// caller is a UI or remote client and must not hang on the worker. After
// Shutdown nothing dequeues anymore, so commands are dropped outright.
func (c *Controller) submit(queue chan Command, cmd Command) {
	select {
	case <-c.shutdownRequest:
		c.logger.Warn("Dropping command", "command", fmt.Sprintf("%T", cmd), "error", errors.ErrShuttingDown)
		return
	default:
	}
	select {
	case queue <- cmd:
	default:
		c.logger.Warn("Command queue full, dropping command", "command", fmt.Sprintf("%T", cmd))
	}
}

// getCommand dequeues the next command, serving the control queue first.
// Returns ok=false on shutdown, a nil command on an idle timeout.
func (c *Controller) getCommand() (Command, bool) {
	select {
	case cmd := <-c.ctl:
		return cmd, true
	case <-c.shutdownRequest:
		return nil, false
	default:
	}
	select {
	case cmd := <-c.ctl:
		return cmd, true
	case cmd := <-c.commands:
		return cmd, true
	case <-c.shutdownRequest:
		return nil, false
	case <-time.After(c.queueTimeout):
		return nil, true
	}
}

// drainQueue discards the motion backlog. The control queue is left intact
// so a queued disconnect still wins.
func (c *Controller) drainQueue() {
	for {
		select {
		case cmd := <-c.commands:
			c.logger.Debug("Discarding queued command", "command", fmt.Sprintf("%T", cmd))
		default:
			return
		}
	}
}

// clearState resets the published state to its disconnected shape: the
// position is unknown (NaN), the calibration bits are cleared to zero so
// remote clients keep reading well-formed per-axis ints.
func (c *Controller) clearState() {
	c.mu.Lock()
	c.state.IsMoving = false
	c.state.Position = models.NaNVector()
	c.state.Calibration = models.Vector{}
	c.connInfo = nil
	c.mu.Unlock()
	c.notifyPosition(models.NaNVector())
	c.notifyCalibration(models.Vector{})
}

// eventLoop is the worker body. While disconnected it waits for a connect
// and discards everything else; a connect switches into the session loop.
func (c *Controller) eventLoop() {
	defer close(c.done)
	for {
		cmd, ok := c.getCommand()
		if !ok {
			return
		}
		switch cmd.(type) {
		case nil:
			c.abortRequest.Store(false)
		case connectCommand:
			c.runSession()
		case disconnectCommand:
			// already disconnected
		default:
			c.logger.Warn("Discarding command while disconnected", "command", fmt.Sprintf("%T", cmd))
			c.notifyFailure(errors.ErrNotConnected)
		}
	}
}

// runSession opens the pending connection and serves commands until a
// disconnect or a connection-fatal fault. A connect command received while
// connected tears the session down and opens the new one in its place.
func (c *Controller) runSession() {
	for {
		c.mu.Lock()
		conn := c.pending
		c.pending = nil
		c.mu.Unlock()
		if conn == nil {
			c.logger.Warn("Connect requested without a configuration")
			return
		}

		s, err := c.openSession(*conn)
		if err != nil {
			c.logger.Error("Connect failed", "name", conn.Name, "error", err)
			c.notifyFailure(err)
			c.clearState()
			return
		}

		if !c.sessionLoop(s) {
			return
		}
	}
}

func (c *Controller) openSession(conn models.Connection) (*session, error) {
	count, err := drivers.ResourceCount(conn.DriverType)
	if err != nil {
		return nil, err
	}
	if len(conn.Resources) != count {
		return nil, fmt.Errorf("driver %q needs %d resources, got %d", conn.DriverType, count, len(conn.Resources))
	}

	s := &session{ctrl: c}
	lines := make([]drivers.Line, 0, count)
	for _, cfg := range conn.Resources {
		res, err := c.openResource(cfg)
		if err != nil {
			s.close()
			return nil, &errors.ConnectionError{Resource: cfg.ResourceName, Err: err}
		}
		s.resources = append(s.resources, res)
		lines = append(lines, res)
	}

	driver, err := c.newDriver(conn.DriverType, lines)
	if err != nil {
		s.close()
		return nil, err
	}
	s.driver = driver

	if err := driver.Configure(); err != nil {
		s.close()
		return nil, err
	}
	identity, err := driver.Identify()
	if err != nil {
		s.close()
		return nil, err
	}

	c.mu.Lock()
	c.state.IsMoving = false
	c.state.Position = models.NaNVector()
	c.state.Calibration = models.Vector{}
	c.connInfo = &models.ConnectionInfo{
		SessionID: uuid.NewString(),
		Name:      conn.Name,
		Driver:    conn.DriverType,
		Identity:  identity,
		CreatedAt: time.Now(),
	}
	c.mu.Unlock()

	c.logger.Info("Connected", "name", conn.Name, "driver", conn.DriverType, "identity", identity)
	c.notifyConnected(identity)

	// Seed the state before the first client can ask for it.
	if err := (queryPositionCommand{}).Execute(s); err != nil {
		s.close()
		c.clearState()
		return nil, err
	}
	if err := (queryCalibrationCommand{}).Execute(s); err != nil {
		s.close()
		c.clearState()
		return nil, err
	}

	return s, nil
}

// sessionLoop serves commands against an open session. Returns true when a
// replacement connect was requested, false on any other exit.
func (c *Controller) sessionLoop(s *session) bool {
	defer s.close()

	lastUpdate := time.Now()
	for {
		cmd, ok := c.getCommand()
		if !ok {
			c.logger.Info("Shutting down, closing connection")
			c.teardown()
			return false
		}

		switch cmd.(type) {
		case nil:
			if err := s.checkAbort(); err != nil {
				if !c.handleError(err) {
					c.teardown()
					return false
				}
				if stderrors.Is(err, errors.ErrAbortRequested) {
					// No motion was in flight, so no command emits the
					// finished event; every handled abort must end with one.
					c.notifyMovement(false)
				}
				continue
			}
			c.mu.RLock()
			interval := c.updateInterval
			c.mu.RUnlock()
			if time.Since(lastUpdate) >= interval {
				err := (queryPositionCommand{}).Execute(s)
				if err == nil {
					err = (queryCalibrationCommand{}).Execute(s)
				}
				if err != nil && !c.handleError(err) {
					c.teardown()
					return false
				}
				lastUpdate = time.Now()
			}
		case disconnectCommand:
			c.logger.Info("Disconnecting")
			c.teardown()
			return false
		case connectCommand:
			c.logger.Info("Reconnect requested, closing current connection")
			c.teardown()
			return true
		default:
			if err := cmd.Execute(s); err != nil {
				if !c.handleError(err) {
					c.teardown()
					return false
				}
			}
		}
	}
}

// teardown flushes the backlog, resets the published state and raises the
// disconnected event. The session itself is closed by the caller's defer.
func (c *Controller) teardown() {
	c.drainQueue()
	c.abortRequest.Store(false)
	c.clearState()
	c.notifyDisconnected()
}

// handleError classifies a session fault. Only the abort protocol flushes
// the backlog; other recoverable faults keep the queued commands so they
// still run in submission order. A return of false demands teardown.
func (c *Controller) handleError(err error) bool {
	if stderrors.Is(err, errors.ErrAbortRequested) {
		c.logger.Info("Motion aborted, flushing command queue")
		c.drainQueue()
		return true
	}
	if !errors.IsFatal(err) {
		c.logger.Warn("Command failed", "error", err)
		c.notifyFailure(err)
		return true
	}
	c.logger.Error("Connection fault", "error", err)
	c.notifyFailure(err)
	return false
}
