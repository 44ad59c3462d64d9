package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

const sqlSchema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		kv_key     TEXT PRIMARY KEY,
		kv_value   TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)
`

type sqlQueries struct {
	get    string
	upsert string
}

var queriesByDialect = map[dialect]sqlQueries{
	dialectPostgres: {
		get: `SELECT kv_value FROM kv_store WHERE kv_key = $1`,
		upsert: `
			INSERT INTO kv_store (kv_key, kv_value, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (kv_key) DO UPDATE SET
				kv_value = EXCLUDED.kv_value,
				updated_at = EXCLUDED.updated_at
		`,
	},
	dialectSQLite: {
		get: `SELECT kv_value FROM kv_store WHERE kv_key = ?`,
		upsert: `
			INSERT INTO kv_store (kv_key, kv_value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT (kv_key) DO UPDATE SET
				kv_value = excluded.kv_value,
				updated_at = excluded.updated_at
		`,
	},
}

// SQLStore is a KVStore backed by a single kv_store table in PostgreSQL or SQLite
type SQLStore struct {
	db      *DB
	queries sqlQueries
}

// NewSQLStore creates the kv_store table if needed and returns a store over it
func NewSQLStore(ctx context.Context, db *DB) (*SQLStore, error) {
	q, ok := queriesByDialect[db.dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect: %s", db.dialect)
	}
	if _, err := db.ExecContext(ctx, sqlSchema); err != nil {
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return &SQLStore{db: db, queries: q}, nil
}

// Get retrieves the value stored under key
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.queries.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.queries.upsert, key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// SetMany upserts all values in one transaction
func (s *SQLStore) SetMany(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit
		_ = tx.Rollback()
	}()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UnixMilli()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, s.queries.upsert, k, values[k], now); err != nil {
			return fmt.Errorf("failed to set %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var (
	_ KVStore     = (*SQLStore)(nil)
	_ BatchWriter = (*SQLStore)(nil)
)
