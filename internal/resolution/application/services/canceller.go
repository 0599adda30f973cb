package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
)

// CancelOutcome reports what the cancellation executor did.
type CancelOutcome struct {
	Success     bool
	Errors      []string
	RefundCents int64
	Entry       domain.OutcomeEntry
}

// CancellationExecutor cancels an unfilled booking on our behalf. The trigger,
// the cancellation record and the outcome entry commit together.
type CancellationExecutor struct {
	uow      application.UnitOfWork
	refunds  domain.RefundCalculator
	trigger  domain.CancellationTrigger
	records  domain.CancellationRecordRepository
	outcomes domain.OutcomeLog
	notifier domain.Notifier
	clock    func() time.Time
	logger   *slog.Logger
}

// NewCancellationExecutor creates a cancellation executor. A nil uow runs the
// writes without a transaction.
func NewCancellationExecutor(
	uow application.UnitOfWork,
	refunds domain.RefundCalculator,
	trigger domain.CancellationTrigger,
	records domain.CancellationRecordRepository,
	outcomes domain.OutcomeLog,
	notifier domain.Notifier,
	clock func() time.Time,
	logger *slog.Logger,
) *CancellationExecutor {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CancellationExecutor{
		uow:      uow,
		refunds:  refunds,
		trigger:  trigger,
		records:  records,
		outcomes: outcomes,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// Cancel computes the refund, triggers the cancellation and logs the outcome.
// A refused or failed trigger is reported in the outcome, not as an error. The
// returned error is only set when the record or outcome entry could not be
// written; the cancellation is then rolled back with them.
func (e *CancellationExecutor) Cancel(ctx context.Context, booking *domain.Booking, reason domain.Reason, message string) (CancelOutcome, error) {
	now := e.clock()
	req := domain.CancellationRequest{
		BookingID:   booking.ID,
		Reason:      reason,
		Tag:         domain.CancelTagAutoUnfilled,
		Message:     message,
		RequestedAt: now,
	}

	var (
		result     domain.TriggerResult
		outcome    CancelOutcome
		triggerErr error
	)
	refund, err := e.refunds.Refund(ctx, booking, reason)
	if err != nil {
		triggerErr = fmt.Errorf("refund calculation: %w", err)
	} else {
		req.RefundCents = refund
		err = e.inUnitOfWork(ctx, func(txCtx context.Context) error {
			res, terr := e.trigger.Trigger(txCtx, req)
			if terr != nil {
				triggerErr = fmt.Errorf("cancellation trigger: %w", terr)
				return triggerErr
			}
			result = res
			outcome = e.outcomeFor(booking, req, result, message, now)
			return e.persist(txCtx, req, result, outcome.Entry)
		})
		if err != nil && triggerErr == nil {
			return outcome, err
		}
	}

	if triggerErr != nil {
		result = domain.TriggerResult{Success: false, Errors: []string{triggerErr.Error()}}
		outcome = e.outcomeFor(booking, req, result, message, now)
		if err := e.inUnitOfWork(ctx, func(txCtx context.Context) error {
			return e.persist(txCtx, req, result, outcome.Entry)
		}); err != nil {
			return outcome, err
		}
	}

	if !result.Success {
		e.logger.WarnContext(ctx, "automatic cancellation failed",
			"booking_id", booking.ID,
			"reason", reason.Code,
			"errors", result.Errors,
		)
		return outcome, nil
	}

	if e.notifier != nil {
		if err := e.notifier.NotifyAutoCanceled(ctx, booking, message); err != nil {
			e.logger.WarnContext(ctx, "auto-cancel notification failed",
				"booking_id", booking.ID,
				"user_id", booking.UserID,
				"error", err,
			)
		}
	}

	e.logger.InfoContext(ctx, "booking canceled by us",
		"booking_id", booking.ID,
		"reason", reason.Code,
		"refund_cents", req.RefundCents,
	)
	return outcome, nil
}

func (e *CancellationExecutor) outcomeFor(booking *domain.Booking, req domain.CancellationRequest, result domain.TriggerResult, message string, now time.Time) CancelOutcome {
	out := CancelOutcome{
		Success:     result.Success,
		Errors:      result.Errors,
		RefundCents: req.RefundCents,
	}
	if result.Success {
		out.Entry = domain.NewCanceledEntry(booking, req.Reason, message, now)
	} else {
		out.Entry = domain.NewCancelFailedEntry(booking, req.Reason, message, result.Errors, now)
	}
	return out
}

func (e *CancellationExecutor) persist(ctx context.Context, req domain.CancellationRequest, result domain.TriggerResult, entry domain.OutcomeEntry) error {
	if e.records != nil {
		if err := e.records.Save(ctx, domain.NewCancellationRecord(req, result)); err != nil {
			return fmt.Errorf("store cancellation record: %w", err)
		}
	}
	if err := e.outcomes.Append(ctx, entry); err != nil {
		return fmt.Errorf("append cancel outcome: %w", err)
	}
	return nil
}

func (e *CancellationExecutor) inUnitOfWork(ctx context.Context, fn application.UnitOfWorkFunc) error {
	if e.uow == nil {
		return fn(ctx)
	}
	return application.WithUnitOfWork(ctx, e.uow, fn)
}
