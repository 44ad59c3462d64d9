package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/calendar-todo/internal/database"
)

// HealthChecker handles health check requests
type HealthChecker struct {
	store  database.KVStore
	broker func(ctx context.Context) error
}

// NewHealthChecker creates a new health checker.
// broker may be nil when no message broker is configured.
func NewHealthChecker(store database.KVStore, broker func(ctx context.Context) error) *HealthChecker {
	return &HealthChecker{store: store, broker: broker}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string)

		if err := h.check(r.Context(), h.store.Ping); err != nil {
			response.Status = "unhealthy"
			checks["store"] = "unhealthy: " + err.Error()
		} else {
			checks["store"] = "healthy"
		}

		if h.broker != nil {
			// The broker is optional, so losing it degrades rather than fails
			if err := h.check(r.Context(), h.broker); err != nil {
				if response.Status == "healthy" {
					response.Status = "degraded"
				}
				checks["broker"] = "unhealthy: " + err.Error()
			} else {
				checks["broker"] = "healthy"
			}
		}

		response.Checks = checks
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) check(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return fn(ctx)
}
