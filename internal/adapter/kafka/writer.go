package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/solar-estimate-service/internal/config"
	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const eventSource = "solar-estimate-service"

// Writer publishes estimate events to a Kafka topic.
// It implements estimate.EventPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured estimate topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEstimateTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes an estimate summary and writes it synchronously, keyed by
// estimate ID.
func (w *Writer) Publish(ctx context.Context, est domain.Estimate) error {
	msg, err := serializeToMessage(domain.NewEstimateEvent(est))
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write estimate event: %w", err)
	}
	w.logger.Debug("estimate event published", "estimate_id", est.ID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an EstimateEvent into a Kafka message.
func serializeToMessage(event domain.EstimateEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize estimate event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(eventSource)},
			{Key: "generated_at", Value: []byte(event.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
