package commands

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/services"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// BookingResolver resolves a single booking.
type BookingResolver interface {
	Handle(ctx context.Context, cmd ResolveBookingCommand) (domain.Resolution, error)
}

// RunBatchCommand runs one batch pass.
type RunBatchCommand struct {
	// ReferenceTime defaults to the handler's clock.
	ReferenceTime time.Time
}

// CommandName implements application.Command.
func (RunBatchCommand) CommandName() string { return "resolution.run_batch" }

var _ application.CommandHandler[RunBatchCommand, *BatchResult] = (*RunBatchHandler)(nil)

// BatchResult summarizes a batch pass.
type BatchResult struct {
	ReferenceTime time.Time
	Selected      int
	Counts        map[domain.ResolutionKind]int
	Errors        int
	Resolutions   []domain.Resolution
	Duration      time.Duration
}

// RunBatchHandler selects candidate bookings and resolves them in parallel.
type RunBatchHandler struct {
	eligibility *services.EligibilityEvaluator
	resolver    BookingResolver
	concurrency int
	metrics     observability.Metrics
	clock       func() time.Time
	logger      *slog.Logger
}

// NewRunBatchHandler creates the batch handler. concurrency bounds how many
// bookings are resolved at once.
func NewRunBatchHandler(
	eligibility *services.EligibilityEvaluator,
	resolver BookingResolver,
	concurrency int,
	metrics observability.Metrics,
	clock func() time.Time,
	logger *slog.Logger,
) *RunBatchHandler {
	if concurrency <= 0 {
		concurrency = 1
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunBatchHandler{
		eligibility: eligibility,
		resolver:    resolver,
		concurrency: concurrency,
		metrics:     metrics,
		clock:       clock,
		logger:      logger,
	}
}

// Handle runs the pass. Only a failed batch selection is returned as an error;
// per-booking failures are logged and counted.
func (h *RunBatchHandler) Handle(ctx context.Context, cmd RunBatchCommand) (*BatchResult, error) {
	started := time.Now()
	ctx = observability.WithCorrelationID(ctx, "")

	ref := cmd.ReferenceTime
	simulated := !ref.IsZero()
	if !simulated {
		ref = h.clock()
	}

	batch, err := h.eligibility.SelectBatch(ctx, ref)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		ReferenceTime: ref,
		Selected:      len(batch),
		Counts:        make(map[domain.ResolutionKind]int),
	}
	h.metrics.Gauge(observability.MetricBatchSize, float64(len(batch)))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(h.concurrency)

	for _, b := range batch {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			cmd := ResolveBookingCommand{Booking: b}
			if simulated {
				cmd.Now = ref
			}
			res, err := h.resolver.Handle(ctx, cmd)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors++
				h.metrics.Counter(observability.MetricResolutionErrors, 1)
				h.logger.ErrorContext(ctx, "booking resolution failed",
					"booking_id", b.ID,
					"error", err,
				)
			}
			if res.Kind != "" {
				result.Counts[res.Kind]++
				result.Resolutions = append(result.Resolutions, res)
				h.metrics.Counter(observability.MetricResolutions, 1, observability.T("kind", string(res.Kind)))
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(started)
	h.metrics.Timing(observability.MetricBatchDuration, result.Duration)
	h.logger.InfoContext(ctx, "resolution batch complete",
		"reference_time", ref,
		"selected", result.Selected,
		"rescheduled", result.Counts[domain.ResolutionRescheduled],
		"cancelled", result.Counts[domain.ResolutionCancelled],
		"errors", result.Errors,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
