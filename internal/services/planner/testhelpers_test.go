package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/calendar-todo/internal/database"
	"github.com/benvon/calendar-todo/internal/queue"
)

var errInjected = errors.New("injected failure")

// flakyKV is a non-transactional store that records the order of writes
// and fails reads or writes for selected keys
type flakyKV struct {
	mem *database.MemoryStore

	mu      sync.Mutex
	writes  []string
	failSet map[string]bool
	failGet map[string]bool
}

func newFlakyKV() *flakyKV {
	return &flakyKV{
		mem:     database.NewMemoryStore(),
		failSet: make(map[string]bool),
		failGet: make(map[string]bool),
	}
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failGet[key]
	f.mu.Unlock()
	if fail {
		return "", false, errInjected
	}
	return f.mem.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.writes = append(f.writes, key)
	fail := f.failSet[key]
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.mem.Set(ctx, key, value)
}

func (f *flakyKV) Ping(ctx context.Context) error { return f.mem.Ping(ctx) }
func (f *flakyKV) Close() error                   { return f.mem.Close() }

func (f *flakyKV) setFailure(key string, onSet, onGet bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key] = onSet
	f.failGet[key] = onGet
}

func (f *flakyKV) writeLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	copy(out, f.writes)
	return out
}

func (f *flakyKV) resetWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

// batchKV adds an atomic SetMany to flakyKV
type batchKV struct {
	*flakyKV
	failBatch bool
}

func (b *batchKV) SetMany(ctx context.Context, values map[string]string) error {
	b.mu.Lock()
	b.writes = append(b.writes, "batch")
	b.mu.Unlock()
	if b.failBatch {
		return errInjected
	}
	return b.mem.SetMany(ctx, values)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []*queue.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e *queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fixedClock always returns the same instant, forcing id bumps
func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms).UTC() }
}

func seed(t *testing.T, kv database.KVStore, tasksJSON, deadlinesJSON string) {
	t.Helper()
	ctx := context.Background()
	if tasksJSON != "" {
		if err := kv.Set(ctx, database.KeyTasks, tasksJSON); err != nil {
			t.Fatalf("Failed to seed tasks: %v", err)
		}
	}
	if deadlinesJSON != "" {
		if err := kv.Set(ctx, database.KeyDeadlines, deadlinesJSON); err != nil {
			t.Fatalf("Failed to seed deadlines: %v", err)
		}
	}
}

func openManager(t *testing.T, kv database.KVStore, opts ...Option) *Manager {
	t.Helper()
	m, err := Open(context.Background(), kv, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return m
}

func assertNoEmptyBuckets(t *testing.T, m *Manager) {
	t.Helper()
	for date, ids := range m.DeadlineIndex() {
		if len(ids) == 0 {
			t.Errorf("Expected no empty bucket, found %s", date)
		}
	}
}
