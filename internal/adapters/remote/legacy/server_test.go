package legacy

import (
	"bufio"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/domain/models"
	"github.com/hephylab/tableService/internal/middleware/logging"
)

// stubTable records motion calls and serves fixed state.
type stubTable struct {
	mu       sync.Mutex
	position models.Vector
	moving   bool
	relative []models.Vector
	absolute []models.Vector
}

func (s *stubTable) Connect(conn models.Connection) {}
func (s *stubTable) Disconnect() {}
func (s *stubTable) Abort() {}

func (s *stubTable) MoveRelative(dx, dy, dz float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relative = append(s.relative, models.Vector{X: dx, Y: dy, Z: dz})
}

func (s *stubTable) MoveAbsolute(x, y, z float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.absolute = append(s.absolute, models.Vector{X: x, Y: y, Z: z})
}

func (s *stubTable) Calibrate(axes models.AxisMask) {}
func (s *stubTable) RangeMeasure(axes models.AxisMask) {}
func (s *stubTable) EnableJoystick(enabled bool) {}
func (s *stubTable) RequestUpdate() {}
func (s *stubTable) RequestCalibrationState() {}

func (s *stubTable) IsConnected() bool { return true }

func (s *stubTable) IsMoving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moving
}

func (s *stubTable) Position() models.Vector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *stubTable) Calibration() models.Vector {
	return models.Vector{X: models.CalReady, Y: models.CalReady, Z: models.CalReady}
}

func (s *stubTable) ZLimitEnabled() bool { return false }
func (s *stubTable) ZLimit() float64 { return 0 }
func (s *stubTable) SetZLimitEnabled(enabled bool) {}
func (s *stubTable) SetZLimit(value float64) {}
func (s *stubTable) SetUpdateInterval(seconds float64) {}
func (s *stubTable) ConnectionInfo() *models.ConnectionInfo { return nil }
func (s *stubTable) OnConnected(func(info []string)) {}
func (s *stubTable) OnDisconnected(func()) {}
func (s *stubTable) OnFailure(func(err error)) {}
func (s *stubTable) OnMovementStarted(func()) {}
func (s *stubTable) OnMovementFinished(func()) {}
func (s *stubTable) OnPositionChanged(func(pos models.Vector)) {}
func (s *stubTable) OnCalibrationChanged(func(cal models.Vector)) {}
func (s *stubTable) Shutdown() {}

type client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func startServer(t *testing.T, table *stubTable) *Server {
	t.Helper()
	cfg := &config.AppConfig{Legacy: config.RemoteServerConfig{Host: "127.0.0.1", Port: 0}}
	logger := logging.NewLogger(&logging.Config{Enabled: false}, "TEST")
	server := NewServer(cfg, table, logger)
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)
	return server
}

func dial(t *testing.T, server *Server) *client {
	t.Helper()
	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *client) send(t *testing.T, message string) {
	t.Helper()
	_, err := c.conn.Write([]byte(message + "\r\n"))
	require.NoError(t, err)
}

func (c *client) readLine(t *testing.T) string {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.reader.ReadString('\n')
	require.NoError(t, err)
	return line[:len(line)-2] // strip CRLF
}

func (c *client) roundTrip(t *testing.T, message string) string {
	t.Helper()
	c.send(t, message)
	return c.readLine(t)
}

func TestServerPositionQuery(t *testing.T) {
	table := &stubTable{position: models.Vector{X: 1.5, Y: -2.25, Z: 0}}
	c := dial(t, startServer(t, table))

	require.Equal(t, "1.500000,-2.250000,0.000000,0", c.roundTrip(t, "PO?"))

	table.mu.Lock()
	table.moving = true
	table.mu.Unlock()
	require.Equal(t, "1.500000,-2.250000,0.000000,1", c.roundTrip(t, "PO?"))
}

func TestServerMoveAbsolute(t *testing.T) {
	table := &stubTable{}
	c := dial(t, startServer(t, table))

	require.Equal(t, "Done ...", c.roundTrip(t, "MA=1.5,2,3"))

	table.mu.Lock()
	defer table.mu.Unlock()
	require.Equal(t, []models.Vector{{X: 1.5, Y: 2, Z: 3}}, table.absolute)
}

func TestServerMoveAbsoluteMalformed(t *testing.T) {
	table := &stubTable{}
	c := dial(t, startServer(t, table))

	require.Equal(t, "Command not valid !", c.roundTrip(t, "MA=abc"))
	require.Equal(t, "Command not valid !", c.roundTrip(t, "MA=1,2"))

	table.mu.Lock()
	defer table.mu.Unlock()
	require.Empty(t, table.absolute, "malformed input must not move the table")
}

func TestServerMoveRelative(t *testing.T) {
	table := &stubTable{}
	c := dial(t, startServer(t, table))

	require.Equal(t, "Done ...", c.roundTrip(t, "MR=0.5,2"))
	require.Equal(t, "Command not valid !", c.roundTrip(t, "MR=0.5,4"))
	require.Equal(t, "Command not valid !", c.roundTrip(t, "MR=abc,1"))

	table.mu.Lock()
	defer table.mu.Unlock()
	require.Equal(t, []models.Vector{{X: 0, Y: 0.5, Z: 0}}, table.relative)
}

func TestServerHelp(t *testing.T) {
	c := dial(t, startServer(t, &stubTable{}))

	c.send(t, "???")
	require.Equal(t, "PO? - Get Table Position and Status", c.readLine(t))
	require.Equal(t, "MA=x.xxx,x.xxx,x.xxx - Move absolute [X,Y,Z]", c.readLine(t))
	require.Equal(t, "MR=x.xxx,x - Move relative [StepWidth,Axis]", c.readLine(t))
	require.Equal(t, "??? - This command", c.readLine(t))
}

func TestServerUnknownCommand(t *testing.T) {
	c := dial(t, startServer(t, &stubTable{}))
	require.Equal(t, "Command not valid !", c.roundTrip(t, "FOO"))
	require.Equal(t, "Command not valid !", c.roundTrip(t, "PO"))
}
