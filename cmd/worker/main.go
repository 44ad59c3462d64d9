package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/config"
	"github.com/benvon/calendar-todo/internal/logger"
	"github.com/benvon/calendar-todo/internal/queue"
	"github.com/benvon/calendar-todo/internal/workers"
)

// reconnectDelay is the pause before redialing after the broker drops the stream
const reconnectDelay = 5 * time.Second

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	binding := flag.String("binding", queue.BindAll, "Routing key pattern to subscribe to")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("RABBITMQ_URL is required for the event worker")
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("binding", *binding),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle := workers.AuditEvent(zapLogger)
	for {
		err := watchOnce(ctx, cfg.RabbitMQURL, *binding, handle, zapLogger)
		if ctx.Err() != nil {
			break
		}
		if err != nil && !errors.Is(err, workers.ErrStreamClosed) {
			zapLogger.Error("event_worker_failed", zap.Error(err))
		}
		zapLogger.Warn("event_stream_lost_reconnecting", zap.Duration("delay", reconnectDelay))

		select {
		case <-ctx.Done():
		case <-time.After(reconnectDelay):
		}
	}

	zapLogger.Info("worker_stopped")
}

// watchOnce holds one broker connection until the stream ends or ctx is cancelled
func watchOnce(ctx context.Context, url, binding string, handle workers.EventHandler, zapLogger *zap.Logger) error {
	mq, err := queue.ConnectWithRetry(ctx, url, 5, zapLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := mq.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("worker_consuming_events")
	return workers.WatchEvents(ctx, mq, binding, handle, zapLogger)
}
