package queue

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies what changed. It doubles as the routing key.
type EventType string

const (
	EventTaskCreated     EventType = "task.created"
	EventTaskUpdated     EventType = "task.updated"
	EventTaskCompleted   EventType = "task.completed"
	EventTaskDeleted     EventType = "task.deleted"
	EventDeadlineSet     EventType = "deadline.set"
	EventDeadlineCleared EventType = "deadline.cleared"
	EventIndexReconciled EventType = "index.reconciled"
	EventThemeChanged    EventType = "theme.changed"
)

// Event describes a committed change
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	TaskID     *int64         `json:"task_id,omitempty"`
	Date       string         `json:"date,omitempty"`
	Theme      string         `json:"theme,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEvent creates a new event
func NewEvent(eventType EventType) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// NewTaskEvent creates an event about a single task
func NewTaskEvent(eventType EventType, taskID int64) *Event {
	e := NewEvent(eventType)
	e.TaskID = &taskID
	return e
}

// RoutingKey returns the topic routing key for the event
func (e *Event) RoutingKey() string {
	return string(e.Type)
}
