package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaSink mirrors ticket events onto a Kafka topic for downstream
// reporting. With no brokers configured every method is a no-op.
type KafkaSink struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaSink builds a sink. The writer is async so publishing never waits
// on the broker.
func NewKafkaSink(brokers []string, topic string, logger *zap.Logger) *KafkaSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(brokers) == 0 || topic == "" {
		return &KafkaSink{logger: logger}
	}
	sink := &KafkaSink{logger: logger}
	sink.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				sink.logger.Warn("kafka: write ticket events", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	return sink
}

// Enabled reports whether events are actually written.
func (s *KafkaSink) Enabled() bool {
	return s != nil && s.writer != nil
}

// Attach subscribes the sink to every event type.
func (s *KafkaSink) Attach(d Dispatcher) {
	if !s.Enabled() {
		return
	}
	for _, t := range AllEventTypes {
		d.Subscribe(t, s.Handle)
	}
}

// Handle implements EventHandler.
func (s *KafkaSink) Handle(ctx context.Context, event Event) error {
	if !s.Enabled() {
		return nil
	}
	msg, err := EncodeMessage(event)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, msg)
}

// EncodeMessage keys the record by ticket so one ticket's events stay ordered
// within a partition.
func EncodeMessage(event Event) (kafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.TicketID),
		Value: body,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}

// Close flushes pending writes.
func (s *KafkaSink) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.writer.Close()
}
