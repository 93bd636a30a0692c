package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards events to a Kafka topic keyed by subject.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

// NewKafkaPublisher builds an async writer for topic on brokers.
// Delivery failures surface only through the completion callback and are logged there.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		Async:                  true,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Completion:             logDeliveryFailures(logger),
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(writer MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Handle is an EventHandler that writes event as JSON.
// Keying by subject keeps one user's events ordered within a partition.
func (p *KafkaPublisher) Handle(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Subject),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func logDeliveryFailures(logger *zap.Logger) func([]kafka.Message, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, msg := range messages {
			logger.Error("kafka delivery failed",
				zap.String("topic", msg.Topic),
				zap.String("event_id", headerValue(msg, "event_id")),
				zap.String("event_type", headerValue(msg, "event_type")),
				zap.Error(err))
		}
	}
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
