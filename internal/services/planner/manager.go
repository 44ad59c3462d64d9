package planner

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/apperr"
	"github.com/benvon/calendar-todo/internal/database"
	logpkg "github.com/benvon/calendar-todo/internal/logger"
	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/queue"
)

const tracerName = "github.com/benvon/calendar-todo/internal/services/planner"

// errNotLoaded is returned by mutations while the mirror holds a degraded
// (failed) load, so an unreadable blob is never overwritten with partial state.
var errNotLoaded = errors.New("state was not loaded from storage; reload first")

// Manager keeps the task list and the deadline index consistent with each other
// and with the key-value store. Mutations are serialized; queries run concurrently.
type Manager struct {
	kv        database.KVStore
	tasksRepo *database.TaskRepository
	dlRepo    *database.DeadlineRepository
	publisher queue.Publisher
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time

	mu        sync.RWMutex
	tasks     []models.Task
	deadlines models.Deadlines
	lastID    int64
	loadErr   error
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPublisher sets where change events are sent
func WithPublisher(p queue.Publisher) Option {
	return func(m *Manager) {
		if p != nil {
			m.publisher = p
		}
	}
}

// WithClock overrides the time source used for ids and timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a manager with empty state. Call Reload to read the store.
func New(kv database.KVStore, opts ...Option) *Manager {
	m := &Manager{
		kv:        kv,
		tasksRepo: database.NewTaskRepository(kv),
		dlRepo:    database.NewDeadlineRepository(kv),
		publisher: queue.NopPublisher{},
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		tasks:     []models.Task{},
		deadlines: models.Deadlines{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open creates a manager, loads both blobs and reconciles the index.
// The manager is always returned; a non-nil error reports a failed load or repair.
func Open(ctx context.Context, kv database.KVStore, opts ...Option) (*Manager, error) {
	m := New(kv, opts...)
	if err := m.Reload(ctx); err != nil {
		return m, err
	}
	report, err := m.Reconcile(ctx)
	if err != nil {
		return m, err
	}
	if report.Changed() {
		m.logger.Info("startup_reconciliation_repaired_index",
			zap.Int("orphans_removed", report.OrphansRemoved),
			zap.Int("duplicates_removed", report.DuplicatesRemoved),
		)
	}
	return m, nil
}

// Reload re-reads both blobs from the store. A blob that does not decode is
// preserved under its corrupt key and replaced by empty state. A blob that
// cannot be read leaves an empty mirror and mutations are refused until a
// reload succeeds.
func (m *Manager) Reload(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "planner.Reload")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	tasks, err := m.tasksRepo.Load(ctx)
	if err != nil {
		tasks = []models.Task{}
		if err = m.recoverCorrupt(ctx, err, m.tasksRepo.Quarantine); err != nil {
			m.logger.Error("failed_to_load_tasks", zap.String("error", logpkg.SanitizeError(err)))
			errs = append(errs, apperr.IO("load tasks", err))
		}
	}
	deadlines, err := m.dlRepo.Load(ctx)
	if err != nil {
		deadlines = models.Deadlines{}
		if err = m.recoverCorrupt(ctx, err, m.dlRepo.Quarantine); err != nil {
			m.logger.Error("failed_to_load_deadlines", zap.String("error", logpkg.SanitizeError(err)))
			errs = append(errs, apperr.IO("load deadlines", err))
		}
	}

	m.tasks = tasks
	m.deadlines = deadlines
	for _, t := range tasks {
		if t.ID > m.lastID {
			m.lastID = t.ID
		}
	}
	m.loadErr = errors.Join(errs...)
	if m.loadErr != nil {
		recordError(span, m.loadErr)
		return m.loadErr
	}

	m.logger.Debug("state_loaded",
		zap.Int("tasks", len(tasks)),
		zap.Int("deadline_buckets", len(deadlines)),
	)
	return nil
}

// recoverCorrupt moves an undecodable blob aside. It returns nil once the raw
// value is preserved, and err unchanged for read failures.
func (m *Manager) recoverCorrupt(ctx context.Context, err error, quarantine func(context.Context, string) error) error {
	var corrupt *database.CorruptBlobError
	if !errors.As(err, &corrupt) {
		return err
	}
	if qErr := quarantine(ctx, corrupt.Raw); qErr != nil {
		return errors.Join(err, qErr)
	}
	m.logger.Warn("quarantined_corrupt_blob",
		zap.String("key", corrupt.Key),
		zap.String("preserved_as", database.CorruptKey(corrupt.Key)),
		zap.String("error", logpkg.SanitizeError(corrupt.Err)),
	)
	return nil
}

// Degraded reports whether the last load failed and mutations are refused
func (m *Manager) Degraded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadErr != nil
}

// nextID returns a millisecond timestamp id, bumped past the last one when the clock has not advanced
func (m *Manager) nextID() int64 {
	id := m.now().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return id
}

// change is the proposed next state of one or both blobs; nil means untouched
type change struct {
	tasks     []models.Task
	deadlines models.Deadlines
	// indexFirst writes the deadline index before the task list when no batch write is available
	indexFirst bool
}

// commit persists c and updates the mirror. Caller holds m.mu.
// With a BatchWriter both blobs are written atomically; otherwise each successful
// write is reflected in the mirror before the next one is attempted.
func (m *Manager) commit(ctx context.Context, op string, c change) error {
	index := m.deadlines
	if c.deadlines != nil {
		index = c.deadlines
	}

	var pairs []database.KV
	var applies []func()
	addTasks := func() error {
		if c.tasks == nil {
			return nil
		}
		pair, err := m.tasksRepo.Encode(withDeadlines(c.tasks, index))
		if err != nil {
			return err
		}
		pairs = append(pairs, pair)
		applies = append(applies, func() { m.tasks = c.tasks })
		return nil
	}
	addIndex := func() error {
		if c.deadlines == nil {
			return nil
		}
		pair, err := m.dlRepo.Encode(c.deadlines)
		if err != nil {
			return err
		}
		pairs = append(pairs, pair)
		applies = append(applies, func() { m.deadlines = c.deadlines })
		return nil
	}

	steps := []func() error{addTasks, addIndex}
	if c.indexFirst {
		steps = []func() error{addIndex, addTasks}
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return apperr.IO(op, err)
		}
	}

	if bw, ok := m.kv.(database.BatchWriter); ok && len(pairs) > 1 {
		values := make(map[string]string, len(pairs))
		for _, p := range pairs {
			values[p.Key] = p.Value
		}
		if err := bw.SetMany(ctx, values); err != nil {
			return apperr.IO(op, err)
		}
		for _, apply := range applies {
			apply()
		}
		return nil
	}

	for i, p := range pairs {
		if err := m.kv.Set(ctx, p.Key, p.Value); err != nil {
			if i > 0 {
				m.logger.Warn("partial_write",
					zap.String("operation", op),
					zap.String("written", pairs[0].Key),
					zap.String("failed", p.Key),
				)
			}
			return apperr.IO(op, err)
		}
		applies[i]()
	}
	return nil
}

// mutate runs fn under the write lock inside a span and publishes the
// returned events once the lock is released
func (m *Manager) mutate(ctx context.Context, op string, fn func(ctx context.Context) ([]*queue.Event, error)) error {
	ctx, span := m.tracer.Start(ctx, "planner."+op)
	defer span.End()

	m.mu.Lock()
	var (
		events []*queue.Event
		err    error
	)
	if m.loadErr != nil {
		err = apperr.IO(op, errNotLoaded)
	} else {
		events, err = fn(ctx)
	}
	m.mu.Unlock()

	if err != nil {
		recordError(span, err)
		if apperr.IsIO(err) {
			m.logger.Error("failed_to_"+op, zap.Error(err))
		}
		return err
	}

	for _, e := range events {
		m.publish(ctx, e)
	}
	return nil
}

func (m *Manager) publish(ctx context.Context, e *queue.Event) {
	if err := m.publisher.Publish(ctx, e); err != nil {
		m.logger.Warn("failed_to_publish_event",
			zap.String("event_type", string(e.Type)),
			zap.String("event_id", e.ID.String()),
			zap.Error(err),
		)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func taskAttr(id int64) attribute.KeyValue {
	return attribute.Int64("task.id", id)
}
