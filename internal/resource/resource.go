package resource

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gotmc/prologix"
	"github.com/tarm/serial"

	"github.com/hephylab/tableService/internal/domain/models"
	"github.com/hephylab/tableService/pkg/errors"
)

const (
	DefaultTermination = "\r\n"
	DefaultTimeout     = 5 * time.Second
	DefaultBaudRate    = 9600
)

// Resource is a scoped handle to one instrument I/O channel speaking a
// line-based write/query protocol. It opens on acquisition and must be
// closed by the owner; Close is idempotent. No retries happen at this
// layer, retry policy belongs to callers.
type Resource struct {
	name        string
	termination string
	timeout     time.Duration

	rw     io.ReadWriter
	closer io.Closer
	conn   net.Conn             // non-nil for TCP, used for deadlines
	gpib   *prologix.Controller // non-nil for GPIB

	mu     sync.Mutex
	closed bool
}

// Open acquires the instrument endpoint described by cfg. The backend is
// selected from the canonical resource name; baud rate applies to serial
// only and is ignored elsewhere. Failures wrap the resource name.
func Open(cfg models.ResourceConfig) (*Resource, error) {
	ep, err := parseResourceName(cfg.ResourceName)
	if err != nil {
		return nil, &errors.ConnectionError{Resource: cfg.ResourceName, Err: err}
	}

	r := &Resource{
		name:        Normalize(cfg.ResourceName),
		termination: cfg.Termination,
		timeout:     cfg.Timeout,
	}
	if r.termination == "" {
		r.termination = DefaultTermination
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}

	switch ep.backend {
	case BackendTCP:
		conn, err := net.DialTimeout("tcp", ep.target, r.timeout)
		if err != nil {
			return nil, &errors.ConnectionError{Resource: r.name, Err: err}
		}
		r.conn = conn
		r.rw = conn
		r.closer = conn

	case BackendSerial:
		port, err := openSerial(ep.target, cfg.BaudRate, r.timeout)
		if err != nil {
			return nil, &errors.ConnectionError{Resource: r.name, Err: err}
		}
		r.rw = port
		r.closer = port

	case BackendGPIB:
		if cfg.Adapter == "" {
			return nil, &errors.ConnectionError{Resource: r.name, Err: fmt.Errorf("no Prologix adapter configured")}
		}
		rw, closer, err := openAdapter(cfg.Adapter, cfg.BaudRate, r.timeout)
		if err != nil {
			return nil, &errors.ConnectionError{Resource: r.name, Err: err}
		}
		addr, _ := strconv.Atoi(ep.target)
		gpib, err := prologix.NewController(rw, addr, false)
		if err != nil {
			closer.Close()
			return nil, &errors.ConnectionError{Resource: r.name, Err: err}
		}
		r.gpib = gpib
		r.rw = rw
		r.closer = closer
	}

	return r, nil
}

// openSerial opens a native serial port via tarm/serial.
func openSerial(device string, baud int, timeout time.Duration) (*serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: timeout,
	})
}

// openAdapter connects to a Prologix GPIB adapter, either a serial device
// or a GPIB-ETHERNET box addressed as host:port.
func openAdapter(target string, baud int, timeout time.Duration) (io.ReadWriter, io.Closer, error) {
	if strings.Contains(target, ":") {
		conn, err := net.DialTimeout("tcp", target, timeout)
		if err != nil {
			return nil, nil, err
		}
		return conn, conn, nil
	}
	port, err := openSerial(target, baud, timeout)
	if err != nil {
		return nil, nil, err
	}
	return port, port, nil
}

// Name returns the canonical resource name.
func (r *Resource) Name() string { return r.name }

// Write sends one message with the configured write termination appended.
func (r *Resource) Write(message string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, &errors.IOError{Resource: r.name, Op: "write", Err: fmt.Errorf("resource closed")}
	}
	if err := r.setDeadline(); err != nil {
		return 0, &errors.IOError{Resource: r.name, Op: "write", Err: err}
	}

	if r.gpib != nil {
		if err := r.gpib.Command("%s", message); err != nil {
			return 0, &errors.IOError{Resource: r.name, Op: "write", Err: err}
		}
		return len(message), nil
	}

	n, err := io.WriteString(r.rw, message+r.termination)
	if err != nil {
		return n, &errors.IOError{Resource: r.name, Op: "write", Err: err}
	}
	return n, nil
}

// Query sends a message and reads one terminated response line.
func (r *Resource) Query(message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", &errors.IOError{Resource: r.name, Op: "query", Err: fmt.Errorf("resource closed")}
	}
	if err := r.setDeadline(); err != nil {
		return "", &errors.IOError{Resource: r.name, Op: "query", Err: err}
	}

	if r.gpib != nil {
		result, err := r.gpib.Query(message)
		if err != nil {
			return "", &errors.IOError{Resource: r.name, Op: "query", Err: err}
		}
		return strings.TrimRight(result, "\r\n"), nil
	}

	if _, err := io.WriteString(r.rw, message+r.termination); err != nil {
		return "", &errors.IOError{Resource: r.name, Op: "query", Err: err}
	}
	line, err := r.readLine()
	if err != nil {
		return "", &errors.IOError{Resource: r.name, Op: "query", Err: err}
	}
	return line, nil
}

// readLine reads byte-wise until the read termination is seen. Instrument
// responses are short, the byte loop keeps the termination handling exact.
func (r *Resource) readLine() (string, error) {
	var buf []byte
	tmp := make([]byte, 1)
	deadline := time.Now().Add(r.timeout)
	for {
		n, err := r.rw.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[0])
			if strings.HasSuffix(string(buf), r.termination) {
				return strings.TrimSuffix(string(buf), r.termination), nil
			}
		}
		if err != nil {
			return "", err
		}
		if n == 0 && time.Now().After(deadline) {
			return "", fmt.Errorf("read timed out after %s", r.timeout)
		}
	}
}

func (r *Resource) setDeadline() error {
	if r.conn != nil {
		return r.conn.SetDeadline(time.Now().Add(r.timeout))
	}
	return nil
}

// Close releases the underlying channel. Safe to call multiple times.
func (r *Resource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
