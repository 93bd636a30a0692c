package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/events"
)

// StartEventWorker subscribes the audit log and, when non-nil, the Kafka
// publisher to every user event type.
func StartEventWorker(dispatcher events.Dispatcher, publisher *events.KafkaPublisher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}

	audit := func(_ context.Context, event events.Event) error {
		logger.Info("user event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("subject", event.Subject))
		return nil
	}

	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, audit)
		if publisher != nil {
			dispatcher.Subscribe(eventType, publisher.Handle)
		}
	}
}
