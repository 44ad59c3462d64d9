package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/apperr"
	"github.com/benvon/calendar-todo/internal/config"
	"github.com/benvon/calendar-todo/internal/database"
	"github.com/benvon/calendar-todo/internal/logger"
	"github.com/benvon/calendar-todo/internal/queue"
	"github.com/benvon/calendar-todo/internal/services/planner"
	"github.com/benvon/calendar-todo/internal/services/theme"
)

// env is what one command invocation needs: configuration, logger, store
// and, when RABBITMQ_URL is set, the event broker.
type env struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     database.KVStore
	broker    *queue.RabbitMQ
	publisher queue.Publisher
	closers   []func()
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.backend != "" {
		cfg.StoreBackend = o.backend
	}
	if o.sqlitePath != "" {
		cfg.SQLitePath = o.sqlitePath
	}
	return cfg, nil
}

// openEnv opens the configured store. The broker is optional: a broker that
// cannot be reached only disables events.
func (o *rootOptions) openEnv(ctx context.Context) (*env, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	zapLogger, err := logger.NewCLILogger(o.verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := database.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}

	e := &env{
		cfg:       cfg,
		logger:    zapLogger,
		store:     store,
		publisher: queue.NopPublisher{},
	}

	if cfg.RabbitMQURL != "" {
		mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			zapLogger.Warn("events_disabled_rabbitmq_unavailable", zap.Error(err))
		} else {
			e.broker = mq
			e.publisher = mq
		}
	}
	return e, nil
}

// Close releases everything openEnv and the loaders acquired, newest first
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	if e.broker != nil {
		if err := e.broker.Close(); err != nil {
			e.logger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}
	if err := e.store.Close(); err != nil {
		e.logger.Warn("failed_to_close_store", zap.Error(err))
	}
	_ = logger.Sync(e.logger)
}

func (e *env) plannerOptions() []planner.Option {
	return []planner.Option{
		planner.WithLogger(e.logger),
		planner.WithPublisher(e.publisher),
	}
}

// loadPlanner loads tasks and deadlines and repairs the index. A store that
// cannot be read yields a planner with empty state that refuses writes.
func (e *env) loadPlanner(ctx context.Context) (*planner.Manager, error) {
	m, err := planner.Open(ctx, e.store, e.plannerOptions()...)
	if err != nil {
		if !apperr.IsIO(err) {
			return nil, fmt.Errorf("failed to load tasks: %w", err)
		}
		e.logger.Warn("tasks_unavailable", zap.Error(err))
	}
	return m, nil
}

// loadThemes returns a theme store restored from the "theme" key.
// The CLI has no process lifetime to hold a selection, so it always persists.
func (e *env) loadThemes(ctx context.Context) (*theme.Store, error) {
	store := theme.NewStore(theme.BuiltinRegistry(),
		theme.WithLogger(e.logger),
		theme.WithPersistence(e.store),
	)
	if err := store.Restore(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore theme: %w", err)
	}
	e.closers = append(e.closers, theme.PublishChanges(store, e.publisher, e.logger))
	return store, nil
}

var errNoBroker = errors.New("RABBITMQ_URL is not set or the broker is unreachable")

// withEnv opens the environment, runs fn and closes it
func (o *rootOptions) withEnv(ctx context.Context, fn func(ctx context.Context, e *env) error) error {
	e, err := o.openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(ctx, e)
}

// withPlanner is withEnv plus a loaded planner
func (o *rootOptions) withPlanner(ctx context.Context, fn func(ctx context.Context, p *planner.Manager) error) error {
	return o.withEnv(ctx, func(ctx context.Context, e *env) error {
		p, err := e.loadPlanner(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, p)
	})
}
