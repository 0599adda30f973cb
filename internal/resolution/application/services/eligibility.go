package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
)

// EligibilityEvaluator decides which bookings the resolver may act on.
type EligibilityEvaluator struct {
	config               domain.RegionConfigProvider
	bookings             domain.BookingRepository
	defaultWindowMinutes int
	logger               *slog.Logger
}

// NewEligibilityEvaluator creates an evaluator. defaultWindowMinutes applies to
// (region, service) pairs without a configured window.
func NewEligibilityEvaluator(
	config domain.RegionConfigProvider,
	bookings domain.BookingRepository,
	defaultWindowMinutes int,
	logger *slog.Logger,
) *EligibilityEvaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &EligibilityEvaluator{
		config:               config,
		bookings:             bookings,
		defaultWindowMinutes: defaultWindowMinutes,
		logger:               logger,
	}
}

// AutoRBUMinutes returns the auto-accept window for a (region, service) pair.
func (e *EligibilityEvaluator) AutoRBUMinutes(ctx context.Context, regionID, serviceID string) (int, error) {
	minutes, found, err := e.config.WindowMinutes(ctx, regionID, serviceID)
	if err != nil {
		return 0, fmt.Errorf("window lookup for %s/%s: %w", regionID, serviceID, err)
	}
	if !found {
		return e.defaultWindowMinutes, nil
	}
	return minutes, nil
}

// IsCandidate reports whether the booking qualifies for automatic handling at ref.
func (e *EligibilityEvaluator) IsCandidate(ctx context.Context, booking *domain.Booking, ref time.Time) (bool, error) {
	if !booking.IsConfirmed() || booking.HasProvider() {
		return false, nil
	}
	minutes, err := e.AutoRBUMinutes(ctx, booking.RegionID, booking.ServiceID)
	if err != nil {
		return false, err
	}
	return WithinWindow(booking.Start, ref, minutes), nil
}

// WithinWindow reports whether ref lies in [start-minutes, start).
func WithinWindow(start, ref time.Time, minutes int) bool {
	opens := start.Add(-time.Duration(minutes) * time.Minute)
	return !ref.Before(opens) && ref.Before(start)
}

// Lookahead sizes the coarse batch query.
func (e *EligibilityEvaluator) Lookahead(ctx context.Context) (time.Duration, error) {
	maxMinutes, found, err := e.config.MaxWindowMinutes(ctx)
	if err != nil {
		return 0, fmt.Errorf("max window lookup: %w", err)
	}
	minutes := e.defaultWindowMinutes
	if found && maxMinutes > minutes {
		minutes = maxMinutes
	}
	return time.Duration(minutes) * time.Minute, nil
}

// SelectBatch returns the bookings in auto-enabled regions that are candidates at ref.
func (e *EligibilityEvaluator) SelectBatch(ctx context.Context, ref time.Time) ([]*domain.Booking, error) {
	regionIDs, err := e.config.AutoEnabledRegionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("auto-enabled regions: %w", err)
	}
	if len(regionIDs) == 0 {
		return nil, nil
	}

	lookahead, err := e.Lookahead(ctx)
	if err != nil {
		return nil, err
	}

	unfilled, err := e.bookings.FindUnfilledInWindow(ctx, regionIDs, ref, ref.Add(lookahead))
	if err != nil {
		return nil, fmt.Errorf("unfilled bookings: %w", err)
	}

	selected := make([]*domain.Booking, 0, len(unfilled))
	for _, b := range unfilled {
		ok, err := e.IsCandidate(ctx, b, ref)
		if err != nil {
			e.logger.WarnContext(ctx, "skipping booking, eligibility check failed",
				"booking_id", b.ID,
				"error", err,
			)
			continue
		}
		if ok {
			selected = append(selected, b)
		}
	}

	e.logger.DebugContext(ctx, "batch selected",
		"regions", len(regionIDs),
		"lookahead", lookahead,
		"unfilled", len(unfilled),
		"selected", len(selected),
	)
	return selected, nil
}
