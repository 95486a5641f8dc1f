package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard HTTP error messages.
const (
	InternalServerError = "internal server error"
	BadRequest          = "bad request"
	NotFound            = "not found"
)

// Sentinel signals used by the table controller. ErrAbortRequested is not a
// fault: it marks that a pending abort flushed the command backlog.
var (
	ErrAbortRequested = errors.New("abort requested")
	ErrNotConnected   = errors.New("table not connected")
	ErrShuttingDown   = errors.New("controller shutting down")
)

// ConnectionError reports a failed resource acquisition during the connect
// sequence. The whole sequence fails, no partial connection is retained.
type ConnectionError struct {
	Resource string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to open resource %q: %v", e.Resource, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IOError reports a failed write or query on an open resource. It is
// connection-fatal: the controller tears down and returns to Disconnected.
type IOError struct {
	Resource string
	Op       string // "write" or "query"
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s resource %q: %v", e.Op, e.Resource, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// TimeoutError reports a motion step that exceeded the configured bound.
// The connection stays up; the controller returns to Connected.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("motion timed out after %.1fs", e.After.Seconds())
}

// CalibrationError reports a motion command rejected because an axis lacks
// the calibrated and range-measured bits. No driver motion call was made.
type CalibrationError struct {
	Axis string
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("axis not calibrated: %s", e.Axis)
}

// IsFatal reports whether an error arriving in the controller session loop
// must tear down the connection. Abort, calibration rejections and motion
// timeouts are recoverable; everything else is not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAbortRequested) {
		return false
	}
	var calErr *CalibrationError
	if errors.As(err, &calErr) {
		return false
	}
	var toErr *TimeoutError
	if errors.As(err, &toErr) {
		return false
	}
	return true
}
