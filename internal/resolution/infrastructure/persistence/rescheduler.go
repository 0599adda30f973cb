package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/outbox"
)

// Rescheduler moves a booking to a new start inside one transaction and
// enqueues booking.rescheduled_by_us.
type Rescheduler struct {
	uow      application.UnitOfWork
	bookings BookingStore
	outbox   outbox.Repository
	logger   *slog.Logger
}

// NewRescheduler creates the reschedule operation.
func NewRescheduler(uow application.UnitOfWork, bookings BookingStore, ob outbox.Repository, logger *slog.Logger) *Rescheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rescheduler{uow: uow, bookings: bookings, outbox: ob, logger: logger}
}

// Reschedule applies req. It reports a recurring conflict, without changing
// anything, when a later booking of the same series starts at or before the
// new start. A booking that stopped being unfilled is left alone and reported
// as not applied.
func (r *Rescheduler) Reschedule(ctx context.Context, req domain.RescheduleRequest) (domain.RescheduleResult, error) {
	var result domain.RescheduleResult
	err := application.WithUnitOfWork(ctx, r.uow, func(txCtx context.Context) error {
		current, err := r.bookings.FindByID(txCtx, req.Booking.ID)
		if err != nil {
			return fmt.Errorf("load booking: %w", err)
		}
		if !current.IsUnfilled() {
			r.logger.InfoContext(ctx, "booking changed before reschedule, skipping",
				"booking_id", current.ID,
				"status", current.Status,
				"provider_assigned", current.HasProvider(),
			)
			return nil
		}

		conflict, err := r.seriesConflict(txCtx, current, req)
		if err != nil {
			return err
		}
		if conflict {
			result.Conflict = domain.ConflictRecurringSeries
			return nil
		}

		event := domain.NewBookingRescheduledByUs(current, req.NewStart, req.Reason, req.ProviderIDs, req.RequestedAt)
		event.SetMetadata(application.EventMetadataFromContext(ctx, current.UserID))

		current.Start = req.NewStart
		current.RescheduleAttempts++
		current.RecommendedProviders = append(current.RecommendedProviders[:0:0], req.ProviderIDs...)
		if err := r.bookings.Save(txCtx, current); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}

		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		if err := r.outbox.Save(txCtx, msg); err != nil {
			return fmt.Errorf("enqueue %s: %w", event.RoutingKey(), err)
		}
		result.Applied = true
		return nil
	})
	if err != nil {
		return domain.RescheduleResult{}, err
	}
	return result, nil
}

func (r *Rescheduler) seriesConflict(ctx context.Context, b *domain.Booking, req domain.RescheduleRequest) (bool, error) {
	if !b.IsRecurring() {
		return false, nil
	}
	series, err := r.bookings.FindBySeries(ctx, *b.SeriesID)
	if err != nil {
		return false, fmt.Errorf("load series: %w", err)
	}
	for _, other := range series {
		if other.ID == b.ID || other.SeriesPosition <= b.SeriesPosition {
			continue
		}
		if other.Status == domain.BookingStatusCancelled {
			continue
		}
		if !other.Start.After(req.NewStart) {
			r.logger.InfoContext(ctx, "reschedule would overtake a later booking in the series",
				"booking_id", b.ID,
				"series_id", *b.SeriesID,
				"blocking_booking_id", other.ID,
			)
			return true, nil
		}
	}
	return false, nil
}
