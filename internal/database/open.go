package database

import (
	"context"
	"fmt"
)

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a KVStore backend
type Options struct {
	Backend        string
	SQLitePath     string
	DatabaseURL    string
	RedisURL       string
	RedisKeyPrefix string
}

// Open returns the KVStore for the configured backend
func Open(ctx context.Context, opts Options) (KVStore, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite, "":
		db, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		store, err := NewSQLStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	case BackendPostgres:
		db, err := New(opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store, err := NewSQLStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	case BackendRedis:
		return NewRedisStore(opts.RedisURL, opts.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", opts.Backend)
	}
}
