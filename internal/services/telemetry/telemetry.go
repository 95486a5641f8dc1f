package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hephylab/tableService/internal/domain/models"
	"github.com/hephylab/tableService/internal/interfaces"
	"github.com/hephylab/tableService/internal/middleware/logging"
)

// event is the wire form of one controller state change.
type event struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Identity  []string       `json:"identity,omitempty"`
	Error     string         `json:"error,omitempty"`
	Value     *models.Vector `json:"value,omitempty"`
}

// Publisher mirrors controller events onto the Kafka topic. Publishing is
// fire-and-forget: a broker outage is logged, never propagated back into
// the motion path.
type Publisher struct {
	producer interfaces.KafkaService
	logger   *logging.Logger
}

func NewPublisher(producer interfaces.KafkaService, logger *logging.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   logger.WithPrefix("TELEMETRY"),
	}
}

// Subscribe registers the publisher on every controller event.
func (p *Publisher) Subscribe(events interfaces.TableEvents) {
	events.OnConnected(func(identity []string) {
		p.publish(event{Event: "connected", Identity: identity})
	})
	events.OnDisconnected(func() {
		p.publish(event{Event: "disconnected"})
	})
	events.OnFailure(func(err error) {
		p.publish(event{Event: "failure", Error: err.Error()})
	})
	events.OnMovementStarted(func() {
		p.publish(event{Event: "movement_started"})
	})
	events.OnMovementFinished(func() {
		p.publish(event{Event: "movement_finished"})
	})
	events.OnPositionChanged(func(pos models.Vector) {
		if isNaN(pos) {
			return // state reset, nothing to report
		}
		p.publish(event{Event: "position", Value: &pos})
	})
	events.OnCalibrationChanged(func(cal models.Vector) {
		if isNaN(cal) {
			return
		}
		p.publish(event{Event: "calibration", Value: &cal})
	})
}

func isNaN(v models.Vector) bool {
	return v.X != v.X || v.Y != v.Y || v.Z != v.Z
}

func (p *Publisher) publish(ev event) {
	ev.Timestamp = time.Now()
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("Failed to encode event", "event", ev.Event, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.producer.Produce(ctx, []byte(ev.Event), value); err != nil {
		p.logger.Warn("Failed to publish event", "event", ev.Event, "error", err)
	}
}
