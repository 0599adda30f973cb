package mcp

import (
	"github.com/felixgeelhaar/autoresolve/adapter/cli"
	"github.com/felixgeelhaar/autoresolve/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	cliApp := cli.NewApp(
		container.RunBatchHandler,
		container.ListCandidatesHandler,
		container.ListOutcomesHandler,
		container.CheckBlackoutHandler,
	)
	cliApp.SetMaintenance(container)
	cliApp.SetHealth(container.Health)
	return cliApp
}
