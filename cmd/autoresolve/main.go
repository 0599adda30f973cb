package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/autoresolve/adapter/cli"
	"github.com/felixgeelhaar/autoresolve/internal/app"
	"github.com/felixgeelhaar/autoresolve/pkg/config"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// CLI output goes to stdout; keep logs on stderr and quiet by default.
	level := cfg.LogLevel
	if level == "info" {
		level = "warn"
	}
	logger = observability.NewLogger(observability.LogConfig{
		Level:       observability.LogLevel(level),
		Format:      observability.LogFormat(cfg.LogFormat),
		Output:      os.Stderr,
		ServiceName: "autoresolve-cli",
	})
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// version and help still work without a database.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()

		cliApp := cli.NewApp(
			container.RunBatchHandler,
			container.ListCandidatesHandler,
			container.ListOutcomesHandler,
			container.CheckBlackoutHandler,
		)
		cliApp.SetMaintenance(container)
		cliApp.SetHealth(container.Health)
		cli.SetApp(cliApp)
	}

	cli.Execute(ctx)
}
