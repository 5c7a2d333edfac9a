package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bandradar/bandradar/internal/core/breaker"
)

// BreakerReporter exposes per-source circuit breaker states.
type BreakerReporter interface {
	BreakerStates() map[string]breaker.State
}

// CacheReporter exposes result cache occupancy.
type CacheReporter interface {
	Len() int
}

// HealthHandler serves the health endpoints. The service is degraded
// when any source breaker is open; it is never unhealthy on source
// trouble alone because verification fails open.
type HealthHandler struct {
	Version  string
	Breakers BreakerReporter
	Cache    CacheReporter
}

// HealthResponse is the aggregate health body.
type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Timestamp    string            `json:"timestamp"`
	Sources      map[string]string `json:"sources,omitempty"`
	CacheEntries int               `json:"cache_entries"`
}

// Handle serves GET /health.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	sources := make(map[string]string)

	if h.Breakers != nil {
		for sourceID, state := range h.Breakers.BreakerStates() {
			sources[sourceID] = state.String()
			if state != breaker.StateClosed {
				status = "degraded"
			}
		}
	}

	entries := 0
	if h.Cache != nil {
		entries = h.Cache.Len()
	}

	response := HealthResponse{
		Status:       status,
		Version:      h.Version,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Sources:      sources,
		CacheEntries: entries,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// Liveness serves GET /health/live. Process-up probe only.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness serves GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
