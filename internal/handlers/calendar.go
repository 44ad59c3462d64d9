package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/services/planner"
	"github.com/benvon/calendar-todo/internal/validation"
)

// CalendarHandler serves the date-oriented views of the task list
type CalendarHandler struct {
	planner *planner.Manager
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(p *planner.Manager) *CalendarHandler {
	return &CalendarHandler{planner: p}
}

// RegisterRoutes registers calendar routes under the /calendar prefix
func (h *CalendarHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/marks", h.Marks).Methods("GET")
	r.HandleFunc("/{date}", h.Day).Methods("GET")
}

// DayResponse lists the tasks due on one date
type DayResponse struct {
	Date        string        `json:"date"`
	MarkerColor string        `json:"marker_color"`
	Tasks       []models.Task `json:"tasks"`
}

// Marks returns the calendar decoration for every date with tasks
func (h *CalendarHandler) Marks(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("selected")
	if selected != "" {
		if err := validation.ValidateDate(selected); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, h.planner.CalendarMarks(selected))
}

// Day returns the tasks due on a date with the marker color for that date
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if err := validation.ValidateDate(date); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	tasks := h.planner.TasksOnDate(date)
	respondJSON(w, http.StatusOK, DayResponse{
		Date:        date,
		MarkerColor: planner.MarkerColorFor(tasks),
		Tasks:       tasks,
	})
}
