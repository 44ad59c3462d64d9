package models

import "time"

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "Pending"
	TaskStatusCompleted TaskStatus = "Completed"
)

const (
	// DateLayout is the layout of deadline dates and Deadline Index keys
	DateLayout = "2006-01-02"
	// TimestampLayout matches JavaScript's Date.toISOString output
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// Task represents a task item as persisted under the "tasks" key
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   string     `json:"created_at"`
	// Deadline is a denormalized copy of the Deadline Index entry for this task.
	// Readers get it recomputed from the index; the stored value is never trusted.
	Deadline string `json:"deadline,omitempty"`
}

// IsCompleted reports whether the task has been completed
func (t Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// FormatTimestamp formats t the way created_at is stored
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// CloneTasks returns a copy of tasks that shares no backing array with the input
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return []Task{}
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// IndexOfTask returns the position of the task with the given id, or -1
func IndexOfTask(tasks []Task, id int64) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
