package planner

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/apperr"
	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/queue"
	"github.com/benvon/calendar-todo/internal/validation"
)

// TaskInput holds the user-editable fields of a task. An empty Deadline means none.
type TaskInput struct {
	Title       string
	Description string
	Deadline    string
}

func (in TaskInput) sanitize() (TaskInput, error) {
	title, err := validation.ValidateTitle(in.Title)
	if err != nil {
		return TaskInput{}, apperr.Validation("%s", err.Error())
	}
	description, err := validation.ValidateDescription(in.Description)
	if err != nil {
		return TaskInput{}, apperr.Validation("%s", err.Error())
	}
	if in.Deadline != "" {
		if err := validation.ValidateDate(in.Deadline); err != nil {
			return TaskInput{}, apperr.Validation("%s", err.Error())
		}
	}
	return TaskInput{Title: title, Description: description, Deadline: in.Deadline}, nil
}

// AddTask creates a pending task and, when a deadline is given, files it in the index
func (m *Manager) AddTask(ctx context.Context, in TaskInput) (models.Task, error) {
	in, err := in.sanitize()
	if err != nil {
		return models.Task{}, err
	}

	var created models.Task
	err = m.mutate(ctx, "add_task", func(ctx context.Context) ([]*queue.Event, error) {
		task := models.Task{
			ID:          m.nextID(),
			Title:       in.Title,
			Description: in.Description,
			Status:      models.TaskStatusPending,
			CreatedAt:   models.FormatTimestamp(m.now()),
		}
		trace.SpanFromContext(ctx).SetAttributes(taskAttr(task.ID))

		c := change{tasks: append(models.CloneTasks(m.tasks), task)}
		if in.Deadline != "" {
			c.deadlines = m.deadlines.Clone()
			c.deadlines.Assign(task.ID, in.Deadline)
		}
		if err := m.commit(ctx, "add_task", c); err != nil {
			return nil, err
		}

		task.Deadline = in.Deadline
		created = task
		m.logger.Info("task_created",
			zap.Int64("task_id", task.ID),
			zap.String("deadline", in.Deadline),
		)

		events := []*queue.Event{queue.NewTaskEvent(queue.EventTaskCreated, task.ID)}
		if in.Deadline != "" {
			e := queue.NewTaskEvent(queue.EventDeadlineSet, task.ID)
			e.Date = in.Deadline
			events = append(events, e)
		}
		return events, nil
	})
	return created, err
}

// UpdateTask replaces title, description and deadline. Status is left alone.
// An empty deadline removes the task from the index.
func (m *Manager) UpdateTask(ctx context.Context, id int64, in TaskInput) (models.Task, error) {
	in, err := in.sanitize()
	if err != nil {
		return models.Task{}, err
	}

	var updated models.Task
	err = m.mutate(ctx, "update_task", func(ctx context.Context) ([]*queue.Event, error) {
		trace.SpanFromContext(ctx).SetAttributes(taskAttr(id))
		i := models.IndexOfTask(m.tasks, id)
		if i < 0 {
			return nil, apperr.NotFound(id)
		}

		tasks := models.CloneTasks(m.tasks)
		tasks[i].Title = in.Title
		tasks[i].Description = in.Description

		deadlines := m.deadlines.Clone()
		cleared := false
		if in.Deadline != "" {
			deadlines.Assign(id, in.Deadline)
		} else {
			cleared = deadlines.Purge(id)
		}

		if err := m.commit(ctx, "update_task", change{tasks: tasks, deadlines: deadlines}); err != nil {
			return nil, err
		}

		updated = tasks[i]
		updated.Deadline = in.Deadline
		m.logger.Info("task_updated",
			zap.Int64("task_id", id),
			zap.String("deadline", in.Deadline),
		)

		events := []*queue.Event{queue.NewTaskEvent(queue.EventTaskUpdated, id)}
		switch {
		case in.Deadline != "":
			e := queue.NewTaskEvent(queue.EventDeadlineSet, id)
			e.Date = in.Deadline
			events = append(events, e)
		case cleared:
			events = append(events, queue.NewTaskEvent(queue.EventDeadlineCleared, id))
		}
		return events, nil
	})
	return updated, err
}

// CompleteTask marks a task completed. Completing a completed task writes nothing.
func (m *Manager) CompleteTask(ctx context.Context, id int64) error {
	return m.mutate(ctx, "complete_task", func(ctx context.Context) ([]*queue.Event, error) {
		trace.SpanFromContext(ctx).SetAttributes(taskAttr(id))
		i := models.IndexOfTask(m.tasks, id)
		if i < 0 {
			return nil, apperr.NotFound(id)
		}
		if m.tasks[i].IsCompleted() {
			return nil, nil
		}

		tasks := models.CloneTasks(m.tasks)
		tasks[i].Status = models.TaskStatusCompleted
		if err := m.commit(ctx, "complete_task", change{tasks: tasks}); err != nil {
			return nil, err
		}

		m.logger.Info("task_completed", zap.Int64("task_id", id))
		return []*queue.Event{queue.NewTaskEvent(queue.EventTaskCompleted, id)}, nil
	})
}

// DeleteTask removes a task and purges it from the index.
// The index is written first so a failed second write leaves no dangling index entry.
func (m *Manager) DeleteTask(ctx context.Context, id int64) error {
	return m.mutate(ctx, "delete_task", func(ctx context.Context) ([]*queue.Event, error) {
		trace.SpanFromContext(ctx).SetAttributes(taskAttr(id))
		i := models.IndexOfTask(m.tasks, id)
		if i < 0 {
			return nil, apperr.NotFound(id)
		}

		tasks := make([]models.Task, 0, len(m.tasks)-1)
		tasks = append(tasks, m.tasks[:i]...)
		tasks = append(tasks, m.tasks[i+1:]...)

		c := change{tasks: tasks, indexFirst: true}
		if deadlines := m.deadlines.Clone(); deadlines.Purge(id) {
			c.deadlines = deadlines
		}
		if err := m.commit(ctx, "delete_task", c); err != nil {
			return nil, err
		}

		m.logger.Info("task_deleted", zap.Int64("task_id", id))
		return []*queue.Event{queue.NewTaskEvent(queue.EventTaskDeleted, id)}, nil
	})
}

// SetTaskDeadline files the task under date, removing it from any other date
func (m *Manager) SetTaskDeadline(ctx context.Context, id int64, date string) error {
	if err := validation.ValidateDate(date); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	return m.mutate(ctx, "set_task_deadline", func(ctx context.Context) ([]*queue.Event, error) {
		trace.SpanFromContext(ctx).SetAttributes(taskAttr(id))
		if models.IndexOfTask(m.tasks, id) < 0 {
			return nil, apperr.NotFound(id)
		}

		deadlines := m.deadlines.Clone()
		deadlines.Assign(id, date)
		if err := m.commit(ctx, "set_task_deadline", change{deadlines: deadlines}); err != nil {
			return nil, err
		}

		m.logger.Info("deadline_set", zap.Int64("task_id", id), zap.String("date", date))
		e := queue.NewTaskEvent(queue.EventDeadlineSet, id)
		e.Date = date
		return []*queue.Event{e}, nil
	})
}

// RemoveTaskDeadline purges id from every bucket. The task need not exist,
// which lets callers clear stale index entries.
func (m *Manager) RemoveTaskDeadline(ctx context.Context, id int64) error {
	return m.mutate(ctx, "remove_task_deadline", func(ctx context.Context) ([]*queue.Event, error) {
		trace.SpanFromContext(ctx).SetAttributes(taskAttr(id))
		deadlines := m.deadlines.Clone()
		if !deadlines.Purge(id) {
			return nil, nil
		}
		if err := m.commit(ctx, "remove_task_deadline", change{deadlines: deadlines}); err != nil {
			return nil, err
		}

		m.logger.Info("deadline_cleared", zap.Int64("task_id", id))
		return []*queue.Event{queue.NewTaskEvent(queue.EventDeadlineCleared, id)}, nil
	})
}
