package workers

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/commands"
)

// DefaultResolveInterval is the default interval between batch passes.
const DefaultResolveInterval = 5 * time.Minute

// BatchRunner runs a single batch pass.
type BatchRunner interface {
	Handle(ctx context.Context, cmd commands.RunBatchCommand) (*commands.BatchResult, error)
}

// ResolutionWorkerConfig configures the resolution worker.
type ResolutionWorkerConfig struct {
	Interval time.Duration
}

// DefaultResolutionWorkerConfig returns the default configuration.
func DefaultResolutionWorkerConfig() ResolutionWorkerConfig {
	return ResolutionWorkerConfig{Interval: DefaultResolveInterval}
}

// ResolutionWorker periodically resolves unfilled bookings.
type ResolutionWorker struct {
	runner  BatchRunner
	config  ResolutionWorkerConfig
	logger  *slog.Logger
	running atomic.Bool
	stopCh  chan struct{}
	once    sync.Once

	mu       sync.RWMutex
	lastRun  time.Time
	lastErr  error
	lastPass *commands.BatchResult
}

// NewResolutionWorker creates a new resolution worker.
func NewResolutionWorker(runner BatchRunner, config ResolutionWorkerConfig, logger *slog.Logger) *ResolutionWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultResolveInterval
	}
	return &ResolutionWorker{
		runner: runner,
		config: config,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Run starts the worker and blocks until context is cancelled or Stop() is called.
func (w *ResolutionWorker) Run(ctx context.Context) error {
	w.running.Store(true)
	defer w.running.Store(false)
	w.logger.Info("resolution worker started", "interval", w.config.Interval)

	// Run immediately on start
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("resolution worker stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			w.logger.Info("resolution worker stopped (stop signal)")
			return nil
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single batch pass and records its result.
func (w *ResolutionWorker) RunOnce(ctx context.Context) *commands.BatchResult {
	result, err := w.runner.Handle(ctx, commands.RunBatchCommand{})

	w.mu.Lock()
	w.lastRun = time.Now()
	w.lastErr = err
	if err == nil {
		w.lastPass = result
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.ErrorContext(ctx, "batch pass failed", "error", err)
		return nil
	}
	return result
}

// Stop signals the worker to stop gracefully.
func (w *ResolutionWorker) Stop() {
	w.once.Do(func() { close(w.stopCh) })
}

// IsRunning returns true if the worker is currently running.
func (w *ResolutionWorker) IsRunning() bool {
	return w.running.Load()
}

// LastRun returns when the last pass finished and its error, if any.
func (w *ResolutionWorker) LastRun() (time.Time, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastRun, w.lastErr
}

// LastResult returns the summary of the last successful pass.
func (w *ResolutionWorker) LastResult() *commands.BatchResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastPass
}
