package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/interfaces"
)

type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates the telemetry producer. The writer connects
// lazily, so a missing broker surfaces on the first Produce, not here.
func NewKafkaProducer(cfg *config.AppConfig) (interfaces.KafkaService, error) {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Broker),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaProducer{writer: writer}, nil
}

// Produce publishes one event message.
func (p *KafkaProducer) Produce(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   key,
			Value: value,
		},
	)
}

// Close flushes and closes the writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
