package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository reads and stores bookings.
type BookingRepository interface {
	// Save creates or updates a booking.
	Save(ctx context.Context, booking *Booking) error
	// FindByID returns ErrBookingNotFound when missing.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// FindUnfilledInWindow returns confirmed, provider-less bookings in the
	// given regions whose start falls in [from, to).
	FindUnfilledInWindow(ctx context.Context, regionIDs []string, from, to time.Time) ([]*Booking, error)
}

// RegionConfigProvider answers every region-level configuration question.
type RegionConfigProvider interface {
	// Region returns ErrRegionNotFound when missing.
	Region(ctx context.Context, regionID string) (*Region, error)
	AutoEnabledRegionIDs(ctx context.Context) ([]string, error)
	// WindowMinutes returns found=false when no (region, service) row exists.
	WindowMinutes(ctx context.Context, regionID, serviceID string) (minutes int, found bool, err error)
	// MaxWindowMinutes returns found=false when no window is configured anywhere.
	MaxWindowMinutes(ctx context.Context) (minutes int, found bool, err error)
	// DayPolicy returns an empty policy when the region has none.
	DayPolicy(ctx context.Context, regionID string) (DayPolicy, error)
}

// RegionConfigWriter stores region configuration.
type RegionConfigWriter interface {
	SaveRegion(ctx context.Context, region *Region) error
	SaveWindow(ctx context.Context, window WindowConfig) error
	SaveDayPolicy(ctx context.Context, policy DayPolicy) error
}

// Recommender proposes a start time and providers for a booking.
type Recommender interface {
	Recommend(ctx context.Context, booking *Booking, arrival ArrivalType) (Recommendation, error)
}

// Rescheduler applies a new start time to a booking.
type Rescheduler interface {
	Reschedule(ctx context.Context, req RescheduleRequest) (RescheduleResult, error)
}

// RaceGuard reports whether a booking was resolved concurrently, for example by
// a provider accepting it after batch selection.
type RaceGuard interface {
	AlreadyResolved(ctx context.Context, booking *Booking) (bool, error)
}

// RaceGuardReleaser is implemented by guards that hold a claim on a booking
// from a clear AlreadyResolved answer until the booking has been handled.
type RaceGuardReleaser interface {
	Release(ctx context.Context, booking *Booking) error
}

// RefundCalculator computes the refund owed when we cancel.
type RefundCalculator interface {
	Refund(ctx context.Context, booking *Booking, reason Reason) (int64, error)
}

// CancellationTrigger performs the cancellation side effect.
type CancellationTrigger interface {
	Trigger(ctx context.Context, req CancellationRequest) (TriggerResult, error)
}

// CancellationRecordRepository stores cancellation records.
type CancellationRecordRepository interface {
	Save(ctx context.Context, record CancellationRecord) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]CancellationRecord, error)
}

// Notifier tells a user about an automatic cancellation.
type Notifier interface {
	NotifyAutoCanceled(ctx context.Context, booking *Booking, message string) error
}

// HolidaySource reports observed holidays for a country on a civil date.
type HolidaySource interface {
	ObservedHolidays(ctx context.Context, date time.Time, country string) ([]Holiday, error)
}

// OutcomeLog is the append-only sink for outcome entries.
type OutcomeLog interface {
	Append(ctx context.Context, entry OutcomeEntry) error
}

// OutcomeRepository appends and lists outcome entries.
type OutcomeRepository interface {
	OutcomeLog
	List(ctx context.Context, filter OutcomeFilter) ([]OutcomeEntry, error)
}
