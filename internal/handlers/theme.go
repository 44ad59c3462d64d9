package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/services/theme"
)

// sseKeepAlive is how often an idle event stream gets a comment line
const sseKeepAlive = 25 * time.Second

// ThemeHandler exposes the theme state store
type ThemeHandler struct {
	store  *theme.Store
	logger *zap.Logger
}

// NewThemeHandler creates a new theme handler
func NewThemeHandler(store *theme.Store, logger *zap.Logger) *ThemeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThemeHandler{store: store, logger: logger}
}

// RegisterRoutes registers the request/response theme routes on the API router
func (h *ThemeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/themes", h.ListThemes).Methods("GET")
	r.HandleFunc("/theme", h.GetTheme).Methods("GET")
	r.HandleFunc("/theme", h.SetTheme).Methods("PUT")
}

// RegisterStreamRoutes registers the long-lived event stream.
// It must not sit behind a response timeout.
func (h *ThemeHandler) RegisterStreamRoutes(r *mux.Router) {
	r.HandleFunc("/theme/events", h.StreamThemeChanges).Methods("GET")
}

// SetThemeRequest is the body of a theme change
type SetThemeRequest struct {
	Name string `json:"name" validate:"required"`
}

// ThemesResponse lists the available themes
type ThemesResponse struct {
	Themes  []string `json:"themes"`
	Current string   `json:"current"`
}

// ListThemes returns the names of all registered themes
func (h *ThemeHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ThemesResponse{
		Themes:  h.store.Themes(),
		Current: h.store.Current(),
	})
}

// GetTheme returns the current theme and its palette
func (h *ThemeHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.State())
}

// SetTheme switches the current theme
func (h *ThemeHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req SetThemeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.store.SetTheme(r.Context(), req.Name); err != nil {
		respondError(w, err, "Failed to set theme")
		return
	}
	respondJSON(w, http.StatusOK, h.store.State())
}

// StreamThemeChanges streams theme changes as Server-Sent Events.
// The current state is sent first, then every change until the client leaves.
func (h *ThemeHandler) StreamThemeChanges(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Streaming unsupported")
		return
	}

	// Subscribers run synchronously inside SetTheme, so never block there
	changes := make(chan models.ThemeState, 8)
	unsubscribe := h.store.Subscribe(func(state models.ThemeState) {
		select {
		case changes <- state:
		default:
			h.logger.Warn("theme_event_dropped", zap.String("theme", state.Name))
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeThemeEvent(w, h.store.State()); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case state := <-changes:
			if err := writeThemeEvent(w, state); err != nil {
				h.logger.Debug("theme_stream_closed", zap.Error(err))
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeThemeEvent(w http.ResponseWriter, state models.ThemeState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: theme\ndata: %s\n\n", data)
	return err
}
