package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	retryInitialDelay = 1 * time.Second
	retryMaxDelay     = 15 * time.Second
)

// ConnectWithRetry dials RabbitMQ up to attempts times with exponential backoff,
// riding out a broker that is still starting. It gives up early when ctx is cancelled.
func ConnectWithRetry(ctx context.Context, amqpURL string, attempts int, logger *zap.Logger) (*RabbitMQ, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		mq, err := NewRabbitMQ(amqpURL)
		if err == nil {
			logger.Info("connected_to_rabbitmq", zap.Int("attempt", attempt+1))
			return mq, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := retryInitialDelay * time.Duration(1<<uint(attempt))
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", attempts),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("rabbitmq unreachable after %d attempts: %w", attempts, lastErr)
}
