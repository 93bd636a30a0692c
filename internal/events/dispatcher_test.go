package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInMemoryDispatcher_Publish(t *testing.T) {
	d := NewInMemoryDispatcher()
	ctx := context.Background()

	var calls []string
	d.Subscribe(EventUserRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.Subject)
		return errors.New("boom")
	})
	d.Subscribe(EventUserRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.Subject)
		return nil
	})
	d.Subscribe(EventUserDeleted, func(context.Context, Event) error {
		calls = append(calls, "deleted")
		return nil
	})

	err := d.Publish(ctx, NewEvent(EventUserRegistered, "alice@example.com", nil))
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []string{"first:alice@example.com", "second:alice@example.com"}, calls)

	calls = nil
	assert.NoError(t, d.Publish(ctx, NewEvent(EventPhoneAdded, "alice@example.com", nil)))
	assert.Empty(t, calls)
}

func TestNewEvent(t *testing.T) {
	a := NewEvent(EventUserUpdated, "alice@example.com", UserPayload{UserID: 1})
	b := NewEvent(EventUserUpdated, "alice@example.com", UserPayload{UserID: 1})
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
}

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Handle(t *testing.T) {
	writer := &recordingWriter{}
	pub := NewKafkaPublisherWithWriter(writer, "user-events")

	event := NewEvent(EventAddressAdded, "alice@example.com", ContactPayload{UserID: 1, ContactID: 9})
	require.NoError(t, pub.Handle(context.Background(), event))
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, "user-events", msg.Topic)
	assert.Equal(t, "alice@example.com", string(msg.Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "address_added", decoded["type"])
	assert.Equal(t, event.ID, decoded["id"])

	writer.err = errors.New("broker down")
	assert.Error(t, pub.Handle(context.Background(), event))

	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)
}

func TestLogDeliveryFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	completion := logDeliveryFailures(zap.New(core))

	event := NewEvent(EventUserDeleted, "alice@example.com", nil)
	msg := kafka.Message{
		Topic: "user-events",
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	completion([]kafka.Message{msg}, nil)
	assert.Zero(t, logs.Len())

	completion([]kafka.Message{msg, msg}, errors.New("leader not available"))
	failures := logs.FilterMessage("kafka delivery failed").All()
	require.Len(t, failures, 2)
	fields := failures[0].ContextMap()
	assert.Equal(t, event.ID, fields["event_id"])
	assert.Equal(t, "user_deleted", fields["event_type"])
	assert.Equal(t, "leader not available", fields["error"])

	assert.NotNil(t, NewKafkaPublisher([]string{"localhost:9092"}, "user-events", nil))
}
