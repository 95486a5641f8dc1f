package table_service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/domain/models"
	"github.com/hephylab/tableService/internal/drivers"
	"github.com/hephylab/tableService/internal/middleware/logging"
	pkgerrors "github.com/hephylab/tableService/pkg/errors"
)

// fakeDriver records every driver call and serves programmable state. It
// doubles as the opened resource so close bookkeeping can be checked.
type fakeDriver struct {
	mu          sync.Mutex
	calls       []string
	position    models.Vector
	calibration models.Vector
	movingPolls int // remaining IsMoving()==true answers
	abortCalls  int
	closed      bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		calibration: vec(models.CalReady, models.CalReady, models.CalReady),
	}
}

func (d *fakeDriver) record(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDriver) motionCalls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, call := range d.calls {
		switch {
		case len(call) >= 4 && (call[:4] == "rmov" || call[:4] == "move"),
			len(call) >= 3 && (call[:3] == "cal" || call[:3] == "rm "):
			out = append(out, call)
		}
	}
	return out
}

func (d *fakeDriver) Name() string { return "fake" }
func (d *fakeDriver) Write(msg string) (int, error) { return len(msg), nil }
func (d *fakeDriver) Query(msg string) (string, error) { return "", nil }
func (d *fakeDriver) Close() error { d.mu.Lock(); defer d.mu.Unlock(); d.closed = true; return nil }
func (d *fakeDriver) Identify() ([]string, error) { return []string{"fake table v1"}, nil }
func (d *fakeDriver) Configure() error { return nil }

func (d *fakeDriver) Abort() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.abortCalls++
	d.movingPolls = 0
	return nil
}

func (d *fakeDriver) CalibrationState() (models.Vector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calibration, nil
}

func (d *fakeDriver) Position() (models.Vector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position, nil
}

func (d *fakeDriver) IsMoving() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.movingPolls > 0 {
		d.movingPolls--
		return true, nil
	}
	return false, nil
}

func (d *fakeDriver) MoveRelative(delta models.Vector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("rmove %g %g %g", delta.X, delta.Y, delta.Z)
	d.position.X += delta.X
	d.position.Y += delta.Y
	d.position.Z += delta.Z
	return nil
}

func (d *fakeDriver) MoveAbsolute(target models.Vector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("move %g %g %g", target.X, target.Y, target.Z)
	d.position = target
	return nil
}

func (d *fakeDriver) Calibrate(axes models.AxisMask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("cal %v %v %v", axes.X, axes.Y, axes.Z)
	return nil
}

func (d *fakeDriver) RangeMeasure(axes models.AxisMask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("rm %v %v %v", axes.X, axes.Y, axes.Z)
	return nil
}

func (d *fakeDriver) EnableJoystick(enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("joystick %v", enabled)
	return nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Controller: config.ControllerConfig{
			QueueTimeout:   5 * time.Millisecond,
			MotionTimeout:  2 * time.Second,
			UpdateInterval: time.Hour, // keep auto-polling out of the way
		},
	}
}

func newTestController(t *testing.T, driver *fakeDriver) *Controller {
	t.Helper()
	logger := logging.NewLogger(&logging.Config{Enabled: false}, "TEST")
	c := NewController(testConfig(), logger)
	c.openResource = func(cfg models.ResourceConfig) (lineCloser, error) {
		return driver, nil
	}
	c.newDriver = func(driverType string, resources []drivers.Line) (drivers.Driver, error) {
		return driver, nil
	}
	t.Cleanup(c.Shutdown)
	return c
}

func connect(t *testing.T, c *Controller) {
	t.Helper()
	connected := make(chan struct{})
	c.OnConnected(func([]string) { close(connected) })
	c.Connect(models.Connection{
		Name:       "test",
		DriverType: drivers.TypeCorvus,
		Resources:  []models.ResourceConfig{{ResourceName: "TCPIP0::localhost::1234::SOCKET"}},
	})
	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect")
	}
}

// waitFor polls until the condition holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func TestControllerConnectDisconnect(t *testing.T) {
	driver := newFakeDriver()
	driver.position = vec(1, 2, 3)
	c := newTestController(t, driver)

	require.False(t, c.IsConnected())
	require.Equal(t, models.Vector{}, c.Calibration(), "disconnected calibration is all zeros")
	connect(t, c)
	require.True(t, c.IsConnected())

	info := c.ConnectionInfo()
	require.NotNil(t, info)
	require.Equal(t, "test", info.Name)
	require.Equal(t, drivers.TypeCorvus, info.Driver)
	require.Equal(t, []string{"fake table v1"}, info.Identity)
	require.NotEmpty(t, info.SessionID)

	// Initial state was seeded from the hardware.
	waitFor(t, func() bool { return c.Position() == vec(1, 2, 3) })
	require.Equal(t, vec(models.CalReady, models.CalReady, models.CalReady), c.Calibration())

	disconnected := make(chan struct{})
	c.OnDisconnected(func() { close(disconnected) })
	c.Disconnect()
	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect")
	}

	require.False(t, c.IsConnected())
	require.Nil(t, c.ConnectionInfo())
	pos := c.Position()
	require.True(t, pos.X != pos.X, "position should reset to NaN")
	require.Equal(t, models.Vector{}, c.Calibration(), "calibration should reset to zero")
	driver.mu.Lock()
	closed := driver.closed
	driver.mu.Unlock()
	require.True(t, closed)
}

func TestControllerMoveRelative(t *testing.T) {
	driver := newFakeDriver()
	c := newTestController(t, driver)
	connect(t, c)

	done := make(chan struct{})
	c.OnMovementFinished(func() { close(done) })
	c.MoveRelative(1, 2, 3)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for movement")
	}

	require.Equal(t, []string{"rmove 1 2 3"}, driver.motionCalls())
	require.Equal(t, vec(1, 2, 3), c.Position())
}

func TestControllerZLimitSequencing(t *testing.T) {
	driver := newFakeDriver()
	driver.position = vec(0, 0, 10)
	c := newTestController(t, driver)
	connect(t, c)

	c.SetZLimit(5)
	c.SetZLimitEnabled(true)

	done := make(chan struct{})
	c.OnMovementFinished(func() { close(done) })
	c.MoveAbsolute(3, 4, 8)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for movement")
	}

	require.Equal(t, []string{
		"rmove 0 0 -5", // drop to the safe height
		"move 3 4 5",   // reposition at the safe height
		"move 3 4 8",   // final Z
	}, driver.motionCalls())
}

func TestControllerZLimitSkipsNoopSteps(t *testing.T) {
	driver := newFakeDriver()
	driver.position = vec(3, 4, 2)
	c := newTestController(t, driver)
	connect(t, c)

	c.SetZLimit(5)
	c.SetZLimitEnabled(true)

	done := make(chan struct{})
	c.OnMovementFinished(func() { close(done) })
	// Already below the limit and in place: only the Z adjustment remains.
	c.MoveAbsolute(3, 4, 4)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for movement")
	}

	require.Equal(t, []string{"move 3 4 4"}, driver.motionCalls())
}

func TestControllerAbortFlushesQueue(t *testing.T) {
	driver := newFakeDriver()
	c := newTestController(t, driver)
	connect(t, c)

	driver.mu.Lock()
	driver.movingPolls = 1000 // keep the first move "in motion"
	driver.mu.Unlock()

	var failMu sync.Mutex
	var failures []error
	c.OnFailure(func(err error) {
		failMu.Lock()
		failures = append(failures, err)
		failMu.Unlock()
	})

	done := make(chan struct{})
	c.OnMovementFinished(func() { close(done) })

	c.MoveRelative(1, 0, 0)
	c.MoveRelative(2, 0, 0) // must be flushed by the abort
	c.MoveRelative(3, 0, 0)

	waitFor(t, func() bool {
		driver.mu.Lock()
		defer driver.mu.Unlock()
		return len(driver.calls) > 0
	})
	c.Abort()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for abort")
	}

	waitFor(t, func() bool { return !c.IsMoving() })
	require.Equal(t, []string{"rmove 1 0 0"}, driver.motionCalls())
	driver.mu.Lock()
	aborts := driver.abortCalls
	driver.mu.Unlock()
	require.Equal(t, 1, aborts)
	failMu.Lock()
	defer failMu.Unlock()
	require.Empty(t, failures, "abort is not a fault")
	require.True(t, c.IsConnected())
}

func TestControllerCalibrationGate(t *testing.T) {
	driver := newFakeDriver()
	driver.calibration = vec(models.CalReady, models.CalCalibrated, models.CalReady)
	c := newTestController(t, driver)
	connect(t, c)

	failure := make(chan error, 1)
	c.OnFailure(func(err error) { failure <- err })
	c.MoveRelative(1, 0, 0)

	select {
	case err := <-failure:
		var calErr *pkgerrors.CalibrationError
		require.ErrorAs(t, err, &calErr)
		require.Equal(t, "y", calErr.Axis)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for calibration failure")
	}

	require.Empty(t, driver.motionCalls(), "no motion may be issued")
	require.True(t, c.IsConnected(), "calibration faults keep the connection")
}

func TestControllerConnectFailure(t *testing.T) {
	driver := newFakeDriver()
	c := newTestController(t, driver)
	c.openResource = func(cfg models.ResourceConfig) (lineCloser, error) {
		return nil, fmt.Errorf("connection refused")
	}

	failure := make(chan error, 1)
	c.OnFailure(func(err error) { failure <- err })
	c.Connect(models.Connection{
		Name:       "test",
		DriverType: drivers.TypeCorvus,
		Resources:  []models.ResourceConfig{{ResourceName: "TCPIP0::localhost::1234::SOCKET"}},
	})

	select {
	case err := <-failure:
		var connErr *pkgerrors.ConnectionError
		require.ErrorAs(t, err, &connErr)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect failure")
	}
	require.False(t, c.IsConnected())
}

func TestControllerRecoverableFailureKeepsQueue(t *testing.T) {
	driver := newFakeDriver()
	driver.calibration = vec(models.CalReady, models.CalCalibrated, models.CalReady)
	c := newTestController(t, driver)
	connect(t, c)

	failure := make(chan error, 1)
	c.OnFailure(func(err error) { failure <- err })

	driver.mu.Lock()
	driver.movingPolls = 3 // hold the worker in the first command
	driver.mu.Unlock()

	c.Calibrate(models.AxisMask{X: true})
	// Rejected (axis y not calibrated), must not flush the range measure
	// queued behind it.
	c.MoveRelative(1, 0, 0)
	c.RangeMeasure(models.AxisMask{Z: true})

	select {
	case err := <-failure:
		var calErr *pkgerrors.CalibrationError
		require.ErrorAs(t, err, &calErr)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for calibration failure")
	}

	waitFor(t, func() bool { return len(driver.motionCalls()) == 2 })
	require.Equal(t, []string{"cal true false false", "rm false false true"}, driver.motionCalls())
	require.True(t, c.IsConnected())
}

func TestControllerDiscardsCommandsWhileDisconnected(t *testing.T) {
	driver := newFakeDriver()
	c := newTestController(t, driver)

	var failMu sync.Mutex
	var failures []error
	c.OnFailure(func(err error) {
		failMu.Lock()
		failures = append(failures, err)
		failMu.Unlock()
	})

	c.MoveRelative(1, 2, 3)
	c.RequestUpdate()

	waitFor(t, func() bool {
		failMu.Lock()
		defer failMu.Unlock()
		return len(failures) == 2
	})
	failMu.Lock()
	defer failMu.Unlock()
	for _, err := range failures {
		require.ErrorIs(t, err, pkgerrors.ErrNotConnected)
	}
	require.Empty(t, driver.motionCalls())
	require.False(t, c.IsConnected())
}

func TestControllerIdleAbortNotifiesFinished(t *testing.T) {
	driver := newFakeDriver()
	c := newTestController(t, driver)
	connect(t, c)

	done := make(chan struct{})
	c.OnMovementFinished(func() { close(done) })
	c.Abort() // nothing in flight

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for abort acknowledgement")
	}
	require.True(t, c.IsConnected())
	require.Empty(t, driver.motionCalls())
}

func TestControllerDropsCommandsAfterShutdown(t *testing.T) {
	driver := newFakeDriver()
	c := newTestController(t, driver)
	c.Shutdown()

	c.MoveRelative(1, 0, 0) // must not block or queue
	require.Empty(t, driver.motionCalls())
}

func TestControllerZLimitCapturedAtEnqueue(t *testing.T) {
	driver := newFakeDriver()
	driver.position = vec(0, 0, 10)
	c := newTestController(t, driver)
	connect(t, c)

	c.SetZLimit(5)
	c.SetZLimitEnabled(true)
	c.MoveAbsolute(1, 1, 8)
	c.SetZLimitEnabled(false) // must not affect the queued move

	waitFor(t, func() bool { return len(driver.motionCalls()) == 3 })
	require.Equal(t, "rmove 0 0 -5", driver.motionCalls()[0])
}
