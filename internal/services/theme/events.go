package theme

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/queue"
)

// publishTimeout bounds how long a theme change can be held up by the broker
const publishTimeout = 2 * time.Second

// PublishChanges forwards every theme change to p as a theme.changed event.
// Publish failures are logged and otherwise ignored. The returned function stops forwarding.
func PublishChanges(s *Store, p queue.Publisher, logger *zap.Logger) (stop func()) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return s.Subscribe(func(state models.ThemeState) {
		e := queue.NewEvent(queue.EventThemeChanged)
		e.Theme = state.Name

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, e); err != nil {
			logger.Warn("failed_to_publish_event",
				zap.String("event_type", string(e.Type)),
				zap.Error(err),
			)
		}
	})
}
