package interfaces

import (
	"context"
)

// KafkaService is the contract for publishing telemetry to external systems.
type KafkaService interface {
	Produce(ctx context.Context, key, value []byte) error
	Close() error
}
