package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/app"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/infrastructure/notify"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/autoresolve/pkg/config"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewServiceLogger("autoresolve-resolver", cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting resolver", "env", cfg.AppEnv)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if cfg.OutboxProcessorEnabled {
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			logger.Error("failed to start outbox processor", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("outbox processor disabled")
	}

	// With a broker, notifications come back through a durable queue.
	if cfg.RabbitMQURL != "" {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    cfg.RabbitMQURL,
			Logger: logger,
		}, nil)
		if err != nil {
			if !cfg.IsDevelopment() {
				logger.Error("failed to connect notification consumer", "error", err)
				os.Exit(1)
			}
			logger.Warn("notification consumer not available", "error", err)
		} else {
			defer consumer.Close()
			consumer.RegisterConsumer(notify.NewConsumer(notify.NewLogSender(logger), logger))
			go func() {
				if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("notification consumer stopped", "error", err)
				}
			}()
		}
	}

	if cfg.HealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.HealthAddr,
			Handler:           healthHandler(container),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.HealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	if !cfg.ResolverEnabled {
		logger.Info("resolution worker disabled")
		<-ctx.Done()
	} else if err := container.ResolutionWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("resolution worker error", "error", err)
	}

	logger.Info("shutting down resolver")
	container.OutboxProcessor.Stop()
	logger.Info("resolver stopped")
}
