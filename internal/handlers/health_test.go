package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/calendar-todo/internal/database"
)

// pingStore is a memory store whose Ping result is fixed
type pingStore struct {
	*database.MemoryStore
	pingErr error
}

func (s *pingStore) Ping(ctx context.Context) error { return s.pingErr }

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	brokerDown := func(ctx context.Context) error { return errors.New("connection refused") }
	brokerUp := func(ctx context.Context) error { return nil }

	tests := []struct {
		name         string
		mode         string
		storeErr     error
		broker       func(ctx context.Context) error
		expectStatus int
		expectHealth string
		expectChecks map[string]string
	}{
		{
			name:         "basic mode skips checks",
			storeErr:     errors.New("down"),
			expectStatus: http.StatusOK,
			expectHealth: "healthy",
		},
		{
			name:         "extended mode healthy store without broker",
			mode:         "extended",
			expectStatus: http.StatusOK,
			expectHealth: "healthy",
			expectChecks: map[string]string{"store": "healthy"},
		},
		{
			name:         "extended mode healthy store and broker",
			mode:         "extended",
			broker:       brokerUp,
			expectStatus: http.StatusOK,
			expectHealth: "healthy",
			expectChecks: map[string]string{"store": "healthy", "broker": "healthy"},
		},
		{
			name:         "store failure is unhealthy",
			mode:         "extended",
			storeErr:     errors.New("database is locked"),
			expectStatus: http.StatusServiceUnavailable,
			expectHealth: "unhealthy",
			expectChecks: map[string]string{"store": "unhealthy: database is locked"},
		},
		{
			name:         "broker failure only degrades",
			mode:         "extended",
			broker:       brokerDown,
			expectStatus: http.StatusOK,
			expectHealth: "degraded",
			expectChecks: map[string]string{"store": "healthy", "broker": "unhealthy: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &pingStore{MemoryStore: database.NewMemoryStore(), pingErr: tt.storeErr}
			h := NewHealthChecker(store, tt.broker)

			path := "/healthz"
			if tt.mode != "" {
				path += "?mode=" + tt.mode
			}
			rr := httptest.NewRecorder()
			h.HealthCheck(rr, httptest.NewRequest("GET", path, nil))

			if rr.Code != tt.expectStatus {
				t.Errorf("Expected status %d, got %d", tt.expectStatus, rr.Code)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.expectHealth {
				t.Errorf("Expected status %q, got %q", tt.expectHealth, resp.Status)
			}
			if len(resp.Checks) != len(tt.expectChecks) {
				t.Errorf("Expected %d checks, got %v", len(tt.expectChecks), resp.Checks)
			}
			for key, want := range tt.expectChecks {
				if got := resp.Checks[key]; got != want {
					t.Errorf("check[%s] = %q, want %q", key, got, want)
				}
			}
		})
	}
}
