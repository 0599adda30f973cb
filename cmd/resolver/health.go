package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/app"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
)

// healthHandler serves liveness with worker and outbox progress, readiness
// from the dependency checks, and the in-process metrics snapshot.
func healthHandler(c *app.Container) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := c.OutboxProcessor.GetStats()
		lastRun, lastErr := c.ResolutionWorker.LastRun()

		resolver := map[string]any{
			"running": c.ResolutionWorker.IsRunning(),
		}
		if !lastRun.IsZero() {
			resolver["last_run_at"] = lastRun
		}
		if lastErr != nil {
			resolver["last_error"] = lastErr.Error()
		}
		if result := c.ResolutionWorker.LastResult(); result != nil {
			resolver["last_selected"] = result.Selected
			resolver["last_errors"] = result.Errors
			resolver["last_counts"] = result.Counts
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"resolver": resolver,
			"outbox": map[string]any{
				"running":           stats.IsRunning,
				"published":         stats.PublishedCount,
				"failed":            stats.FailedCount,
				"dead":              stats.DeadCount,
				"lag_seconds":       stats.LagSeconds,
				"last_processed_at": stats.LastProcessedAt,
				"last_error_at":     stats.LastErrorAt,
				"last_error":        stats.LastError,
			},
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		report := c.Health.Check(checkCtx)
		status := http.StatusOK
		if report.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	})

	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Metrics.Snapshot())
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
