package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandradar/bandradar/internal/config"
	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/cache"
	"github.com/bandradar/bandradar/internal/core/engine"
	"github.com/bandradar/bandradar/internal/core/source"
	"github.com/bandradar/bandradar/internal/core/verdict"
	"github.com/bandradar/bandradar/internal/server/handlers"
)

type emptyAdapter struct{ id string }

func (a *emptyAdapter) ID() string { return a.id }

func (a *emptyAdapter) Reliability() float64 { return 1.0 }

func (a *emptyAdapter) Verify(ctx context.Context, name string, nameType core.NameType) (*core.PlatformEvidence, error) {
	return &core.PlatformEvidence{
		SourceID:      a.id,
		Available:     true,
		Reliability:   1.0,
		SearchQuality: 1,
	}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	resultCache, err := cache.New(100)
	require.NoError(t, err)
	t.Cleanup(resultCache.Close)

	famous, err := source.NewFamous()
	require.NoError(t, err)

	verifier := &engine.Verifier{
		Coordinator: &engine.Coordinator{Sources: []source.Adapter{&emptyAdapter{id: "spotify"}}},
		Famous:      famous,
		Cache:       resultCache,
		Dedup:       cache.NewDeduper(5 * time.Second),
		Policy:      verdict.Policy{FailOpen: true, TTL: verdict.DefaultTTLPolicy()},
	}

	return New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, verifier, "test")
}

func TestVerifyEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := `{"names":[{"name":"Velvet Fox","type":"band"},{"name":"The Beatles","type":"band"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response handlers.VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Results, 2)
	assert.Equal(t, "Velvet Fox", response.Results[0].Name)
	assert.Equal(t, core.StatusAvailable, response.Results[0].Status)
	assert.Equal(t, core.StatusTaken, response.Results[1].Status)
}

func TestVerifyEndpointRejectsEmptyBatch(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify", strings.NewReader(`{"names":[]}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestVerifyEndpointRejectsBadName(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify",
		strings.NewReader(`{"names":[{"name":"","type":"band"}]}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "test", response.Version)
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bandradar")
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
