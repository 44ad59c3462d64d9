package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/benvon/calendar-todo/internal/models"
)

// CorruptBlobError reports a stored blob that exists but cannot be decoded
type CorruptBlobError struct {
	Key string
	Raw string
	Err error
}

func (e *CorruptBlobError) Error() string {
	return fmt.Sprintf("failed to unmarshal %s: %v", e.Key, e.Err)
}

func (e *CorruptBlobError) Unwrap() error {
	return e.Err
}

// CorruptKey is where a blob that failed to decode is preserved
func CorruptKey(key string) string {
	return key + ".corrupt"
}

// preserve copies raw under the key's corrupt slot
func preserve(ctx context.Context, kv KVStore, key, raw string) error {
	if err := kv.Set(ctx, CorruptKey(key), raw); err != nil {
		return fmt.Errorf("failed to preserve corrupt %s: %w", key, err)
	}
	return nil
}

// TaskRepository reads and writes the task list blob
type TaskRepository struct {
	kv KVStore
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(kv KVStore) *TaskRepository {
	return &TaskRepository{kv: kv}
}

// Load returns the persisted tasks; a missing key yields an empty list
func (r *TaskRepository) Load(ctx context.Context) ([]models.Task, error) {
	raw, ok, err := r.kv.Get(ctx, KeyTasks)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []models.Task{}, nil
	}
	var tasks []models.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, &CorruptBlobError{Key: KeyTasks, Raw: raw, Err: err}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// Encode serializes tasks into the pair to persist
func (r *TaskRepository) Encode(tasks []models.Task) (KV, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return KV{}, fmt.Errorf("failed to marshal tasks: %w", err)
	}
	return KV{Key: KeyTasks, Value: string(data)}, nil
}

// Save replaces the persisted task list
func (r *TaskRepository) Save(ctx context.Context, tasks []models.Task) error {
	kv, err := r.Encode(tasks)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, kv.Key, kv.Value)
}

// Quarantine preserves raw under the corrupt key and resets the task list to empty
func (r *TaskRepository) Quarantine(ctx context.Context, raw string) error {
	if err := preserve(ctx, r.kv, KeyTasks, raw); err != nil {
		return err
	}
	return r.Save(ctx, []models.Task{})
}

// DeadlineRepository reads and writes the deadline index blob
type DeadlineRepository struct {
	kv KVStore
}

// NewDeadlineRepository creates a new deadline repository
func NewDeadlineRepository(kv KVStore) *DeadlineRepository {
	return &DeadlineRepository{kv: kv}
}

// Load returns the persisted index; a missing key yields an empty index
func (r *DeadlineRepository) Load(ctx context.Context) (models.Deadlines, error) {
	raw, ok, err := r.kv.Get(ctx, KeyDeadlines)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return models.Deadlines{}, nil
	}
	var deadlines models.Deadlines
	if err := json.Unmarshal([]byte(raw), &deadlines); err != nil {
		return nil, &CorruptBlobError{Key: KeyDeadlines, Raw: raw, Err: err}
	}
	if deadlines == nil {
		deadlines = models.Deadlines{}
	}
	return deadlines, nil
}

// Encode serializes the index into the pair to persist
func (r *DeadlineRepository) Encode(deadlines models.Deadlines) (KV, error) {
	if deadlines == nil {
		deadlines = models.Deadlines{}
	}
	data, err := json.Marshal(deadlines)
	if err != nil {
		return KV{}, fmt.Errorf("failed to marshal deadlines: %w", err)
	}
	return KV{Key: KeyDeadlines, Value: string(data)}, nil
}

// Save replaces the persisted index
func (r *DeadlineRepository) Save(ctx context.Context, deadlines models.Deadlines) error {
	kv, err := r.Encode(deadlines)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, kv.Key, kv.Value)
}

// Quarantine preserves raw under the corrupt key and resets the index to empty
func (r *DeadlineRepository) Quarantine(ctx context.Context, raw string) error {
	if err := preserve(ctx, r.kv, KeyDeadlines, raw); err != nil {
		return err
	}
	return r.Save(ctx, models.Deadlines{})
}
