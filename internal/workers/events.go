package workers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/queue"
)

// EventHandler processes one delivered event. A returned error nacks the message without requeue.
type EventHandler func(ctx context.Context, event *queue.Event) error

// ErrStreamClosed is returned when the broker closes the delivery stream
var ErrStreamClosed = errors.New("event stream closed")

// WatchEvents consumes events matching bindingKey and passes them to handle
// until ctx is cancelled or the stream ends. Stream errors are logged and consumption continues.
func WatchEvents(ctx context.Context, sub queue.Subscriber, bindingKey string, handle EventHandler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	msgChan, errChan, err := sub.Consume(ctx, bindingKey)
	if err != nil {
		return fmt.Errorf("failed to start consuming events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			logger.Error("event_stream_error", zap.Error(err))
		case msg, ok := <-msgChan:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrStreamClosed
			}
			processMessage(ctx, msg, handle, logger)
		}
	}
}

func processMessage(ctx context.Context, msg queue.MessageInterface, handle EventHandler, logger *zap.Logger) {
	event := msg.GetEvent()
	if err := handle(ctx, event); err != nil {
		logger.Error("failed_to_handle_event",
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			logger.Warn("failed_to_nack_event", zap.Error(nackErr))
		}
		return
	}
	if err := msg.Ack(); err != nil {
		logger.Warn("failed_to_ack_event", zap.Error(err))
	}
}

// AuditEvent returns a handler that records every event as a structured log entry
func AuditEvent(logger *zap.Logger) EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, event *queue.Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", string(event.Type)),
			zap.Time("occurred_at", event.OccurredAt),
		}
		if event.TaskID != nil {
			fields = append(fields, zap.Int64("task_id", *event.TaskID))
		}
		if event.Date != "" {
			fields = append(fields, zap.String("date", event.Date))
		}
		if event.Theme != "" {
			fields = append(fields, zap.String("theme", event.Theme))
		}
		if len(event.Metadata) > 0 {
			fields = append(fields, zap.Any("metadata", event.Metadata))
		}
		logger.Info("event_received", fields...)
		return nil
	}
}
