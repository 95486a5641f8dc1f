// Package scpi exposes the table over a generic SCPI-style line protocol.
// Commands are case-insensitive with optional leading colon and the usual
// short forms, e.g. POS?, :POSITION?, move:rel.
package scpi

import (
	"bufio"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/interfaces"
	"github.com/hephylab/tableService/internal/middleware/logging"
)

const terminator = "\n"

var (
	idnRe       = regexp.MustCompile(`^\*idn\?$`)
	clsRe       = regexp.MustCompile(`^\*cls$`)
	posRe       = regexp.MustCompile(`^:?pos(ition)?(:stat(e)?)?\?$`)
	calRe       = regexp.MustCompile(`^:?cal(ibration)?(:stat(e)?)?\?$`)
	moveStatRe  = regexp.MustCompile(`^:?move(:stat(e)?)?\?$`)
	moveRelRe   = regexp.MustCompile(`^:?move:rel(ative)?$`)
	moveAbsRe   = regexp.MustCompile(`^:?move:abs(olute)?$`)
	moveAbortRe = regexp.MustCompile(`^:?move:abort$`)
	zlimEnabRe  = regexp.MustCompile(`^:?zlim(it)?:enab(le)?\?$`)
	zlimValRe   = regexp.MustCompile(`^:?zlim(it)?:val(ue)?\?$`)
	errCountRe  = regexp.MustCompile(`^:?sys(t(em)?)?:err(or)?:coun(t)?\?$`)
	errNextRe   = regexp.MustCompile(`^:?sys(t(em)?)?:err(or)?(:next)?\?$`)
)

type protocolError struct {
	code    int
	message string
}

// errorStack is the per-server FIFO of protocol errors, popped oldest
// first by SYStem:ERRor:NEXT?.
type errorStack struct {
	mu     sync.Mutex
	errors []protocolError
}

func (s *errorStack) push(code int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, protocolError{code: code, message: message})
}

func (s *errorStack) pop() (protocolError, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errors) == 0 {
		return protocolError{}, false
	}
	err := s.errors[0]
	s.errors = s.errors[1:]
	return err, true
}

func (s *errorStack) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errors)
}

func (s *errorStack) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = nil
}

// Server is the SCPI-style TCP front end.
type Server struct {
	logger *logging.Logger
	table  interfaces.TableController
	addr   string
	errors errorStack

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func NewServer(cfg *config.AppConfig, table interfaces.TableController, logger *logging.Logger) *Server {
	return &Server{
		logger: logger.WithPrefix("SCPI"),
		table:  table,
		addr:   fmt.Sprintf("%s:%d", cfg.SCPI.Host, cfg.SCPI.Port),
		conns:  make(map[net.Conn]struct{}),
	}
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("scpi server: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("Listening", "addr", s.addr)
	s.wg.Add(1)
	go s.acceptLoop(listener)
	return nil
}

func (s *Server) Stop() {
	s.mu.Lock()
	s.closed = true
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.logger.Warn("Accept failed", "error", err)
			}
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handleClient(conn)
	}
}

func (s *Server) handleClient(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	s.logger.Info("Client connected", "remote", conn.RemoteAddr().String())
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		s.logger.Debug("Received", "message", message)
		if response, ok := s.handleMessage(message); ok {
			if _, err := conn.Write([]byte(response + terminator)); err != nil {
				return
			}
		}
	}
	s.logger.Info("Client disconnected", "remote", conn.RemoteAddr().String())
}

// handleMessage dispatches one command. The second return is false for
// commands that produce no reply. Protocol errors go on the error stack,
// they never produce a reply of their own.
func (s *Server) handleMessage(message string) (string, bool) {
	fields := strings.Fields(message)
	command := strings.ToLower(fields[0])
	args := strings.Join(fields[1:], " ")

	switch {
	case idnRe.MatchString(command):
		return fmt.Sprintf("%s v%s", config.AppTitle, config.AppVersion), true

	case clsRe.MatchString(command):
		s.errors.clear()
		return "", false

	case posRe.MatchString(command):
		pos := s.table.Position()
		return fmt.Sprintf("%.6f,%.6f,%.6f", pos.X, pos.Y, pos.Z), true

	case calRe.MatchString(command):
		cal := s.table.Calibration()
		return fmt.Sprintf("%d,%d,%d", int(cal.X), int(cal.Y), int(cal.Z)), true

	case moveStatRe.MatchString(command):
		if s.table.IsMoving() {
			return "1", true
		}
		return "0", true

	case moveRelRe.MatchString(command):
		if values, ok := parseTriplet(args); ok {
			s.table.MoveRelative(values[0], values[1], values[2])
		} else {
			s.errors.push(101, "invalid attributes")
		}
		return "", false

	case moveAbsRe.MatchString(command):
		if values, ok := parseTriplet(args); ok {
			s.table.MoveAbsolute(values[0], values[1], values[2])
		} else {
			s.errors.push(101, "invalid attributes")
		}
		return "", false

	case moveAbortRe.MatchString(command):
		s.table.Abort()
		return "", false

	case zlimEnabRe.MatchString(command):
		if s.table.ZLimitEnabled() {
			return "1", true
		}
		return "0", true

	case zlimValRe.MatchString(command):
		return strconv.FormatFloat(s.table.ZLimit(), 'f', -1, 64), true

	case errCountRe.MatchString(command):
		return strconv.Itoa(s.errors.len()), true

	case errNextRe.MatchString(command):
		if err, ok := s.errors.pop(); ok {
			return fmt.Sprintf("%d,%q", err.code, err.message), true
		}
		return `0,"no error"`, true
	}

	s.errors.push(100, "invalid command")
	return "", false
}

// parseTriplet parses "x,y,z", tolerating spaces around the commas and
// plain space separation.
func parseTriplet(args string) ([3]float64, bool) {
	var parts []string
	if strings.Contains(args, ",") {
		parts = strings.Split(args, ",")
	} else {
		parts = strings.Fields(args)
	}
	var values [3]float64
	if len(parts) != 3 {
		return values, false
	}
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return values, false
		}
		values[i] = value
	}
	return values, true
}
