package database

import (
	"context"
	"errors"
)

// Keys of the blobs persisted in the key-value store
const (
	KeyTasks     = "tasks"
	KeyDeadlines = "deadlines"
	KeyTheme     = "theme"
)

// ErrClosed is returned by stores used after Close
var ErrClosed = errors.New("store is closed")

// KVStore is a durable, string-keyed, string-valued store.
// Writes to different keys are not transactional unless the store also implements BatchWriter.
type KVStore interface {
	// Get returns the value for key. ok is false when the key has never been set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key. Failures are returned, never retried.
	Set(ctx context.Context, key, value string) error
	// Ping verifies the store is reachable
	Ping(ctx context.Context) error
	// Close releases the underlying connection
	Close() error
}

// BatchWriter is implemented by stores that can write several keys atomically
type BatchWriter interface {
	SetMany(ctx context.Context, values map[string]string) error
}

// KV is a single encoded key/value pair
type KV struct {
	Key   string
	Value string
}
