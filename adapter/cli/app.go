package cli

import (
	"context"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/commands"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/queries"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
)

// Maintenance covers the schema and seed operations behind `migrate`.
type Maintenance interface {
	Migrate(ctx context.Context) ([]string, error)
	SeedRegions(ctx context.Context, path string) (int, error)
}

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	RunBatchHandler *commands.RunBatchHandler

	// Query Handlers
	ListCandidatesHandler *queries.ListCandidatesHandler
	ListOutcomesHandler   *queries.ListOutcomesHandler
	CheckBlackoutHandler  *queries.CheckBlackoutHandler

	Maintenance Maintenance
	Health      *observability.HealthRegistry
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	runBatchHandler *commands.RunBatchHandler,
	listCandidatesHandler *queries.ListCandidatesHandler,
	listOutcomesHandler *queries.ListOutcomesHandler,
	checkBlackoutHandler *queries.CheckBlackoutHandler,
) *App {
	return &App{
		RunBatchHandler:       runBatchHandler,
		ListCandidatesHandler: listCandidatesHandler,
		ListOutcomesHandler:   listOutcomesHandler,
		CheckBlackoutHandler:  checkBlackoutHandler,
	}
}

// SetMaintenance sets the migrate/seed backend.
func (a *App) SetMaintenance(m Maintenance) {
	a.Maintenance = m
}

// SetHealth sets the health registry used by `health`.
func (a *App) SetHealth(h *observability.HealthRegistry) {
	a.Health = h
}

var app *App

// SetApp sets the global CLI app instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI app instance.
func GetApp() *App {
	return app
}
