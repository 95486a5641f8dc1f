// Package legacy emulates the HEPHY LabView XYZ table controller protocol
// so existing lab clients keep working unchanged.
package legacy

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/interfaces"
	"github.com/hephylab/tableService/internal/middleware/logging"
)

const (
	responseDone    = "Done ..."
	responseInvalid = "Command not valid !"
	terminator      = "\r\n"
)

var helpText = []string{
	"PO? - Get Table Position and Status",
	"MA=x.xxx,x.xxx,x.xxx - Move absolute [X,Y,Z]",
	"MR=x.xxx,x - Move relative [StepWidth,Axis]",
	"??? - This command",
}

// Server is the line-oriented legacy TCP front end. Commands translate
// into non-blocking controller calls; motion acknowledgements are sent
// after enqueueing, not after completion.
type Server struct {
	logger *logging.Logger
	table  interfaces.TableController
	addr   string

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func NewServer(cfg *config.AppConfig, table interfaces.TableController, logger *logging.Logger) *Server {
	return &Server{
		logger: logger.WithPrefix("LEGACY"),
		table:  table,
		addr:   fmt.Sprintf("%s:%d", cfg.Legacy.Host, cfg.Legacy.Port),
		conns:  make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("legacy server: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("Listening", "addr", s.addr)
	s.wg.Add(1)
	go s.acceptLoop(listener)
	return nil
}

// Stop closes the listener and every open client connection, then waits
// for the handlers to drain.
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

// Addr returns the bound address, useful when the port was 0.
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
		for _, line := range s.handleMessage(message) {
			if _, err := conn.Write([]byte(line + terminator)); err != nil {
				return
			}
		}
	}
	s.logger.Info("Client disconnected", "remote", conn.RemoteAddr().String())
}

// handleMessage produces the response lines for one command. Malformed
// input always yields the fixed error text, never a dropped connection.
func (s *Server) handleMessage(message string) []string {
	command, args, _ := strings.Cut(message, "=")

	switch command {
	case "PO?":
		pos := s.table.Position()
		moving := 0
		if s.table.IsMoving() {
			moving = 1
		}
		return []string{fmt.Sprintf("%.6f,%.6f,%.6f,%d", pos.X, pos.Y, pos.Z, moving)}

	case "MA":
		parts := strings.Split(args, ",")
		if len(parts) != 3 {
			return []string{responseInvalid}
		}
		values := make([]float64, 3)
		for i, part := range parts {
			value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return []string{responseInvalid}
			}
			values[i] = value
		}
		s.table.MoveAbsolute(values[0], values[1], values[2])
		return []string{responseDone}

	case "MR":
		parts := strings.Split(args, ",")
		if len(parts) != 2 {
			return []string{responseInvalid}
		}
		delta, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return []string{responseInvalid}
		}
		axis, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || axis < 1 || axis > 3 {
			return []string{responseInvalid}
		}
		var vec [3]float64
		vec[axis-1] = delta
		s.table.MoveRelative(vec[0], vec[1], vec[2])
		return []string{responseDone}

	case "???":
		return helpText
	}

	return []string{responseInvalid}
}
