package planner

import (
	"github.com/benvon/calendar-todo/internal/apperr"
	"github.com/benvon/calendar-todo/internal/models"
)

// Marker colors used on the calendar
const (
	MarkerColorCompleted = "#4CAF50"
	MarkerColorPending   = "#2196F3"
	SelectedDateColor    = "#2196F3"
)

// withDeadlines returns a copy of tasks whose Deadline is taken from index
func withDeadlines(tasks []models.Task, index models.Deadlines) []models.Task {
	dates := make(map[int64]string, len(tasks))
	for _, date := range index.Dates() {
		for _, id := range index[date] {
			if _, seen := dates[id]; !seen {
				dates[id] = date
			}
		}
	}

	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		t.Deadline = dates[t.ID]
		out[i] = t
	}
	return out
}

// ListTasks returns every task with its deadline. When the last load failed
// the list is empty and the load error is returned with it.
func (m *Manager) ListTasks() ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return withDeadlines(m.tasks, m.deadlines), m.loadErr
}

// GetTask returns a single task with its deadline
func (m *Manager) GetTask(id int64) (models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := models.IndexOfTask(m.tasks, id)
	if i < 0 {
		return models.Task{}, apperr.NotFound(id)
	}
	task := m.tasks[i]
	task.Deadline, _ = m.deadlines.DateOf(id)
	return task, nil
}

// DeadlineFor returns the date id is filed under
func (m *Manager) DeadlineFor(id int64) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deadlines.DateOf(id)
}

// TasksOnDate returns the tasks filed under date, in bucket order.
// Index entries without a matching task are skipped.
func (m *Manager) TasksOnDate(date string) []models.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tasksOnDate(date)
}

func (m *Manager) tasksOnDate(date string) []models.Task {
	ids := m.deadlines[date]
	out := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		i := models.IndexOfTask(m.tasks, id)
		if i < 0 {
			continue
		}
		task := m.tasks[i]
		task.Deadline, _ = m.deadlines.DateOf(id)
		out = append(out, task)
	}
	return out
}

// MarkerColorFor returns the completed color if any task is completed, else the pending color
func MarkerColorFor(tasks []models.Task) string {
	for _, t := range tasks {
		if t.IsCompleted() {
			return MarkerColorCompleted
		}
	}
	return MarkerColorPending
}

// CalendarMarks returns a mark for every date holding at least one existing task.
// A non-empty selected date is flagged as selected, with or without tasks.
func (m *Manager) CalendarMarks(selected string) map[string]models.CalendarMark {
	m.mu.RLock()
	defer m.mu.RUnlock()

	marks := make(map[string]models.CalendarMark, len(m.deadlines)+1)
	for date := range m.deadlines {
		tasks := m.tasksOnDate(date)
		if len(tasks) == 0 {
			continue
		}
		marks[date] = models.CalendarMark{
			Marked:   true,
			DotColor: MarkerColorFor(tasks),
		}
	}

	if selected != "" {
		mark := marks[selected]
		mark.Selected = true
		mark.SelectedColor = SelectedDateColor
		marks[selected] = mark
	}
	return marks
}

// DeadlineIndex returns a copy of the index
func (m *Manager) DeadlineIndex() models.Deadlines {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deadlines.Clone()
}
