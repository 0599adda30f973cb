package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/services"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
)

// ResolveBookingCommand asks the resolver to decide on one unfilled booking.
type ResolveBookingCommand struct {
	Booking *domain.Booking
	// Now overrides the clock for the eligibility re-check (simulated runs).
	Now time.Time
}

// CommandName implements application.Command.
func (ResolveBookingCommand) CommandName() string { return "resolution.resolve_booking" }

var _ application.CommandHandler[ResolveBookingCommand, domain.Resolution] = (*ResolveBookingHandler)(nil)

// ResolveBookingHandler walks one booking through race guard, region check,
// eligibility re-check, attempt limit, rescheduling and, failing that, cancellation.
type ResolveBookingHandler struct {
	guard              domain.RaceGuard
	config             domain.RegionConfigProvider
	eligibility        *services.EligibilityEvaluator
	selector           *services.DateSelector
	rescheduler        domain.Rescheduler
	canceller          *services.CancellationExecutor
	outcomes           domain.OutcomeLog
	defaultMaxAttempts int
	clock              func() time.Time
	logger             *slog.Logger
}

// NewResolveBookingHandler creates the resolution handler.
func NewResolveBookingHandler(
	guard domain.RaceGuard,
	config domain.RegionConfigProvider,
	eligibility *services.EligibilityEvaluator,
	selector *services.DateSelector,
	rescheduler domain.Rescheduler,
	canceller *services.CancellationExecutor,
	outcomes domain.OutcomeLog,
	defaultMaxAttempts int,
	clock func() time.Time,
	logger *slog.Logger,
) *ResolveBookingHandler {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveBookingHandler{
		guard:              guard,
		config:             config,
		eligibility:        eligibility,
		selector:           selector,
		rescheduler:        rescheduler,
		canceller:          canceller,
		outcomes:           outcomes,
		defaultMaxAttempts: defaultMaxAttempts,
		clock:              clock,
		logger:             logger,
	}
}

// Handle resolves the booking. Every domain outcome is returned as a Resolution;
// the error is reserved for collaborator failures that left no outcome entry
// (guard, region or window lookups) or for an outcome entry that failed to write.
func (h *ResolveBookingHandler) Handle(ctx context.Context, cmd ResolveBookingCommand) (domain.Resolution, error) {
	b := cmd.Booking
	ctx = observability.WithBookingID(ctx, b.ID.String())

	resolved, err := h.guard.AlreadyResolved(ctx, b)
	if r, ok := h.guard.(domain.RaceGuardReleaser); ok {
		defer h.release(ctx, r, b)
	}
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("race guard: %w", err)
	}
	if resolved {
		h.logger.InfoContext(ctx, "booking resolved concurrently, skipping")
		return domain.Aborted(b, domain.AbortConcurrentlyResolved), nil
	}

	region, err := h.config.Region(ctx, b.RegionID)
	if err != nil && !errors.Is(err, domain.ErrRegionNotFound) {
		return domain.Resolution{}, fmt.Errorf("region lookup: %w", err)
	}
	if region == nil || !region.AutoEnabled {
		h.logger.DebugContext(ctx, "region not auto-enabled, skipping", "region_id", b.RegionID)
		return domain.Aborted(b, domain.AbortRegionDisabled), nil
	}

	now := cmd.Now
	if now.IsZero() {
		now = h.clock()
	}

	eligible, err := h.eligibility.IsCandidate(ctx, b, now)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("eligibility re-check: %w", err)
	}
	if !eligible {
		entry := domain.NewIneligibleEntry(b, now)
		h.logger.WarnContext(ctx, "booking no longer eligible", "detail", entry.Message)
		return h.record(ctx, entry, domain.AnomalyLogged(b, entry.Message))
	}

	limit := b.AttemptLimit(region, h.defaultMaxAttempts)
	if b.AttemptsExhausted(limit) {
		msg := fmt.Sprintf("%s: %d of %d automatic reschedules already used",
			domain.ReasonRescheduleLimitExceeded.Description, b.RescheduleAttempts, limit)
		return h.cancel(ctx, b, domain.TriggerAttemptLimit, msg)
	}

	return h.reschedule(ctx, b, region, now)
}

// release lets the next pass see the booking again once this one is done.
func (h *ResolveBookingHandler) release(ctx context.Context, r domain.RaceGuardReleaser, b *domain.Booking) {
	if err := r.Release(context.WithoutCancel(ctx), b); err != nil {
		h.logger.WarnContext(ctx, "race guard release failed", "error", err)
	}
}

func (h *ResolveBookingHandler) reschedule(ctx context.Context, b *domain.Booking, region *domain.Region, now time.Time) (domain.Resolution, error) {
	sel, err := h.selector.SelectNewDate(ctx, services.SelectionRequest{Booking: b, Region: region})
	if err != nil {
		entry := domain.NewRescheduleErrorEntry(b, nil, "date selection error: "+err.Error(), now)
		h.logger.WarnContext(ctx, "date selection failed", "error", err)
		return h.record(ctx, entry, domain.RescheduleFailed(b, entry.Message))
	}
	if sel == nil {
		msg := fmt.Sprintf("%s: no valid date within %d weeks after %s",
			domain.ReasonNoSlotAvailable.Description, services.PolicySearchWeeks, b.Start.Format(time.RFC3339))
		return h.cancel(ctx, b, domain.TriggerNoSlot, msg)
	}

	result, err := h.rescheduler.Reschedule(ctx, domain.RescheduleRequest{
		Booking:     b,
		NewStart:    sel.Start,
		Reason:      domain.ReasonAutomatedReschedule,
		ProviderIDs: sel.ProviderIDs,
		RequestedAt: now,
	})
	if err != nil {
		entry := domain.NewRescheduleErrorEntry(b, &sel.Start, "reschedule operation error: "+err.Error(), now)
		h.logger.WarnContext(ctx, "reschedule operation failed", "error", err)
		return h.record(ctx, entry, domain.RescheduleFailed(b, entry.Message))
	}

	if result.Conflict == domain.ConflictRecurringSeries {
		msg := fmt.Sprintf("recurring conflict: moving to %s %s",
			sel.Start.Format(time.RFC3339), domain.ReasonRecurringConflict.Description)
		return h.cancel(ctx, b, domain.TriggerRecurringConflict, msg)
	}
	if !result.Applied {
		entry := domain.NewRescheduleErrorEntry(b, &sel.Start, "reschedule operation did not apply the new start", now)
		h.logger.WarnContext(ctx, "reschedule not applied")
		return h.record(ctx, entry, domain.RescheduleFailed(b, entry.Message))
	}

	entry := domain.NewRescheduledEntry(b, sel.Start, domain.ReasonAutomatedReschedule, now)
	h.logger.InfoContext(ctx, "booking rescheduled by us",
		"original_start", b.Start,
		"new_start", sel.Start,
		"strategy", sel.Strategy,
	)
	return h.record(ctx, entry, domain.Rescheduled(b, sel.Start))
}

func (h *ResolveBookingHandler) cancel(ctx context.Context, b *domain.Booking, trigger domain.CancelTrigger, message string) (domain.Resolution, error) {
	out, err := h.canceller.Cancel(ctx, b, trigger.Reason(), message)
	res := domain.Cancelled(b, trigger, message)
	if !out.Success {
		res = domain.CancellationFailed(b, trigger, message, out.Errors)
	}
	return res, err
}

func (h *ResolveBookingHandler) record(ctx context.Context, entry domain.OutcomeEntry, res domain.Resolution) (domain.Resolution, error) {
	if err := h.outcomes.Append(ctx, entry); err != nil {
		return res, fmt.Errorf("append outcome: %w", err)
	}
	return res, nil
}
