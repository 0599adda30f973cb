package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/outbox"
)

// CancellationTrigger cancels a booking inside one transaction and enqueues
// booking.canceled_by_us. The cancellation record is stored by the caller.
type CancellationTrigger struct {
	uow      application.UnitOfWork
	bookings domain.BookingRepository
	outbox   outbox.Repository
}

// NewCancellationTrigger creates the cancellation trigger.
func NewCancellationTrigger(uow application.UnitOfWork, bookings domain.BookingRepository, ob outbox.Repository) *CancellationTrigger {
	return &CancellationTrigger{uow: uow, bookings: bookings, outbox: ob}
}

// Trigger refuses, with an error list, a booking that is no longer an
// unfilled confirmed booking.
func (t *CancellationTrigger) Trigger(ctx context.Context, req domain.CancellationRequest) (domain.TriggerResult, error) {
	var result domain.TriggerResult
	err := application.WithUnitOfWork(ctx, t.uow, func(txCtx context.Context) error {
		current, err := t.bookings.FindByID(txCtx, req.BookingID)
		if errors.Is(err, domain.ErrBookingNotFound) {
			result.Errors = []string{"booking not found"}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load booking: %w", err)
		}
		if problems := cancelPreconditions(current); len(problems) > 0 {
			result.Errors = problems
			return nil
		}

		current.Status = domain.BookingStatusCancelled
		current.CancelTag = req.Tag
		if err := t.bookings.Save(txCtx, current); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}

		event := domain.NewBookingCanceledByUs(current, req)
		event.SetMetadata(application.EventMetadataFromContext(ctx, current.UserID))
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		if err := t.outbox.Save(txCtx, msg); err != nil {
			return fmt.Errorf("enqueue %s: %w", event.RoutingKey(), err)
		}
		result.Success = true
		return nil
	})
	if err != nil {
		return domain.TriggerResult{}, err
	}
	return result, nil
}

func cancelPreconditions(b *domain.Booking) []string {
	var problems []string
	if !b.IsConfirmed() {
		problems = append(problems, fmt.Sprintf("booking status is %s, not %s", b.Status, domain.BookingStatusConfirmed))
	}
	if b.HasProvider() {
		problems = append(problems, "a provider is already assigned")
	}
	return problems
}

// FullRefundCalculator refunds the whole price: the cancellation is ours.
type FullRefundCalculator struct{}

func (FullRefundCalculator) Refund(_ context.Context, b *domain.Booking, _ domain.Reason) (int64, error) {
	if b.PriceCents < 0 {
		return 0, fmt.Errorf("booking %s has negative price %d", b.ID, b.PriceCents)
	}
	return b.PriceCents, nil
}
