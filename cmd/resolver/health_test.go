package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/app"
	"github.com/felixgeelhaar/autoresolve/pkg/config"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(t *testing.T) *app.Container {
	t.Helper()
	cfg := &config.Config{
		AppEnv:               "test",
		DatabaseDriver:       "sqlite",
		SQLitePath:           filepath.Join(t.TempDir(), "resolver.db"),
		OutboxPollInterval:   time.Second,
		OutboxBatchSize:      10,
		OutboxMaxRetries:     3,
		DefaultWindowMinutes: 1440,
		DefaultMaxAttempts:   2,
		ResolverConcurrency:  1,
		ResolverInterval:     time.Minute,
		HolidaySources:       []string{"rules"},
	}
	c, err := app.NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthHandler(t *testing.T) {
	c := newContainer(t)
	c.ResolutionWorker.RunOnce(context.Background())
	h := healthHandler(c)

	rec, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resolver := body["resolver"].(map[string]any)
	assert.Equal(t, float64(0), resolver["last_selected"])
	assert.Contains(t, resolver, "last_run_at")
	assert.Contains(t, body, "outbox")

	rec, body = get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(observability.HealthStatusHealthy), body["status"])

	rec, body = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "counters")
}

func TestHealthHandler_NotReadyWhenDatabaseClosed(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.DB.Close())

	rec, body := get(t, healthHandler(c), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, string(observability.HealthStatusUnhealthy), body["status"])
}
