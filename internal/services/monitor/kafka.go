package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes alerts as JSON messages keyed by symbol
type KafkaSink struct {
	writer messageWriter
	topic  string
	logger *common.Logger
}

// NewKafkaSink creates a sink writing to cfg.Topic on cfg.Brokers
func NewKafkaSink(cfg common.KafkaConfig, logger *common.Logger) *KafkaSink {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		Dialer: &kafka.Dialer{
			Timeout:   10 * time.Second,
			DualStack: true,
		},
		Balancer:     &kafka.Hash{},
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: int(kafka.RequireOne),
		Async:        false,
	})
	return &KafkaSink{writer: w, topic: cfg.Topic, logger: logger}
}

// Publish writes one alert message
func (k *KafkaSink) Publish(ctx context.Context, alert models.Alert) error {
	value, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.Symbol),
		Value: value,
		Time:  alert.Timestamp,
	}); err != nil {
		return fmt.Errorf("failed to publish alert to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

var _ interfaces.AlertSink = (*KafkaSink)(nil)
