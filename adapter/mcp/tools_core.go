package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/autoresolve/adapter/cli"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/felixgeelhaar/mcp-go"
)

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("cli.health").
		Description("Check database and cache connectivity").
		Handler(func(ctx context.Context, input struct{}) (*observability.OverallHealth, error) {
			if app == nil {
				return nil, errors.New("app not initialized")
			}
			if app.Health == nil {
				return &observability.OverallHealth{Status: observability.HealthStatusHealthy}, nil
			}
			report := app.Health.Check(ctx)
			return &report, nil
		})

	srv.Tool("cli.version").
		Description("Get version information").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			return map[string]string{
				"version": cli.Version,
				"commit":  cli.Commit,
				"built":   cli.BuildDate,
			}, nil
		})

	return nil
}
