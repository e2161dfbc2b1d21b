// Package messaging connects the risk engine to Kafka: alert lifecycle events
// are published and scheduled assessment requests are consumed.
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAlertPublisher publishes alert events keyed by alert id, so all events
// of one alert land on one partition in order.
type KafkaAlertPublisher struct {
	writer messageWriter
	logger logger.Logger
}

// NewKafkaAlertPublisher creates a publisher writing to cfg.AlertEventsTopic.
func NewKafkaAlertPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaAlertPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AlertEventsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	return newKafkaAlertPublisher(writer, log)
}

func newKafkaAlertPublisher(w messageWriter, log logger.Logger) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{
		writer: w,
		logger: log.WithComponent("alert_publisher"),
	}
}

var _ service.AlertEventPublisher = (*KafkaAlertPublisher)(nil)

// Publish writes one alert event.
func (p *KafkaAlertPublisher) Publish(ctx context.Context, event service.AlertEvent) error {
	if event.Alert == nil {
		return errors.ErrValidation("alert event without alert")
	}
	value, err := json.Marshal(event)
	if err != nil {
		return errors.ErrInternal("failed to encode alert event").WithCause(err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Alert.ID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		p.logger.Error(ctx, "Failed to publish alert event", err,
			logger.String("alert_id", event.Alert.ID),
			logger.String("event_type", string(event.Type)),
		)
		return errors.ErrUnavailable("alert event publish failed").WithCause(err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaAlertPublisher) Close() error {
	return p.writer.Close()
}
