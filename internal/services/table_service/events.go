package table_service

import (
	"sync"

	"github.com/hephylab/tableService/internal/domain/models"
)

// listeners holds the typed state-change callbacks. Registration may happen
// from any goroutine; notification happens on the controller worker after
// the corresponding state mutation is visible.
type listeners struct {
	mu          sync.RWMutex
	connected   []func(info []string)
	disconnect  []func()
	failure     []func(err error)
	moveStarted []func()
	moveDone    []func()
	position    []func(pos models.Vector)
	calibration []func(cal models.Vector)
}

func (l *listeners) OnConnected(fn func(info []string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = append(l.connected, fn)
}

func (l *listeners) OnDisconnected(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disconnect = append(l.disconnect, fn)
}

func (l *listeners) OnFailure(fn func(err error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failure = append(l.failure, fn)
}

func (l *listeners) OnMovementStarted(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.moveStarted = append(l.moveStarted, fn)
}

func (l *listeners) OnMovementFinished(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.moveDone = append(l.moveDone, fn)
}

func (l *listeners) OnPositionChanged(fn func(pos models.Vector)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = append(l.position, fn)
}

func (l *listeners) OnCalibrationChanged(fn func(cal models.Vector)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calibration = append(l.calibration, fn)
}

func (l *listeners) notifyConnected(info []string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, fn := range l.connected {
		fn(info)
	}
}

func (l *listeners) notifyDisconnected() {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, fn := range l.disconnect {
		fn()
	}
}

func (l *listeners) notifyFailure(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, fn := range l.failure {
		fn(err)
	}
}

func (l *listeners) notifyMovement(moving bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if moving {
		for _, fn := range l.moveStarted {
			fn()
		}
		return
	}
	for _, fn := range l.moveDone {
		fn()
	}
}

func (l *listeners) notifyPosition(pos models.Vector) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, fn := range l.position {
		fn(pos)
	}
}

func (l *listeners) notifyCalibration(cal models.Vector) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, fn := range l.calibration {
		fn(cal)
	}
}
