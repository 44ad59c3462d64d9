package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/services/planner"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	planner *planner.Manager
	logger  *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(p *planner.Manager, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{planner: p, logger: logger}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix (e.g., from apiRouter.PathPrefix("/tasks"))
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/reload", h.ReloadTasks).Methods("POST")
	r.HandleFunc("/reconcile", h.ReconcileTasks).Methods("POST")
	r.HandleFunc("/{id:[0-9]+}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}", h.UpdateTask).Methods("PUT")
	r.HandleFunc("/{id:[0-9]+}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id:[0-9]+}/complete", h.CompleteTask).Methods("POST")
	r.HandleFunc("/{id:[0-9]+}/deadline", h.SetDeadline).Methods("PUT")
	r.HandleFunc("/{id:[0-9]+}/deadline", h.RemoveDeadline).Methods("DELETE")
}

// TaskRequest is the body of create and full-replace update requests.
// An empty deadline means the task has none.
type TaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Deadline    string `json:"deadline" validate:"isodate"`
}

func (req TaskRequest) input() planner.TaskInput {
	return planner.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	}
}

// DeadlineRequest is the body of a set-deadline request
type DeadlineRequest struct {
	Date string `json:"date" validate:"required,isodate"`
}

// ListTasksResponse represents the response for listing tasks
type ListTasksResponse struct {
	Tasks []models.Task `json:"tasks"`
	Total int           `json:"total"`
}

// ListTasks lists every task with its deadline
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.planner.ListTasks()
	if err != nil {
		respondError(w, err, "Failed to retrieve tasks")
		return
	}
	respondJSON(w, http.StatusOK, ListTasksResponse{Tasks: tasks, Total: len(tasks)})
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.planner.AddTask(r.Context(), req.input())
	if err != nil {
		respondError(w, err, "Failed to create task")
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskIDFromPath(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	task, err := h.planner.GetTask(id)
	if err != nil {
		respondError(w, err, "Failed to retrieve task")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask replaces title, description and deadline of a task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskIDFromPath(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.planner.UpdateTask(r.Context(), id, req.input())
	if err != nil {
		respondError(w, err, "Failed to update task")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskIDFromPath(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	if err := h.planner.DeleteTask(r.Context(), id); err != nil {
		respondError(w, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks a task as completed
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskIDFromPath(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	if err := h.planner.CompleteTask(r.Context(), id); err != nil {
		respondError(w, err, "Failed to complete task")
		return
	}
	h.respondTask(w, id)
}

// SetDeadline files a task under a date
func (h *TaskHandler) SetDeadline(w http.ResponseWriter, r *http.Request) {
	id, err := taskIDFromPath(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	var req DeadlineRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.planner.SetTaskDeadline(r.Context(), id, req.Date); err != nil {
		respondError(w, err, "Failed to set deadline")
		return
	}
	h.respondTask(w, id)
}

// RemoveDeadline clears the deadline of a task
func (h *TaskHandler) RemoveDeadline(w http.ResponseWriter, r *http.Request) {
	id, err := taskIDFromPath(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	if err := h.planner.RemoveTaskDeadline(r.Context(), id); err != nil {
		respondError(w, err, "Failed to remove deadline")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReloadTasks re-reads tasks and deadlines from storage
func (h *TaskHandler) ReloadTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.Reload(r.Context()); err != nil {
		respondError(w, err, "Failed to reload tasks")
		return
	}
	h.ListTasks(w, r)
}

// ReconcileTasks repairs the deadline index and reports what changed
func (h *TaskHandler) ReconcileTasks(w http.ResponseWriter, r *http.Request) {
	report, err := h.planner.Reconcile(r.Context())
	if err != nil {
		respondError(w, err, "Failed to reconcile deadlines")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *TaskHandler) respondTask(w http.ResponseWriter, id int64) {
	task, err := h.planner.GetTask(id)
	if err != nil {
		respondError(w, err, "Failed to retrieve task")
		return
	}
	respondJSON(w, http.StatusOK, task)
}
