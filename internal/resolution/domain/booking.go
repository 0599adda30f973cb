package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Booking is the slice of a customer booking the resolver needs to decide on.
type Booking struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	RegionID   string
	ServiceID  string
	Start      time.Time
	Status     BookingStatus
	ProviderID *uuid.UUID
	PriceCents int64

	// RescheduleAttempts counts automatic reschedules already applied.
	RescheduleAttempts int
	// MaxAttempts overrides the region limit when set.
	MaxAttempts *int

	SeriesID       *uuid.UUID
	SeriesPosition int

	RecommendedProviders []uuid.UUID
	CancelTag            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsConfirmed reports whether the booking is confirmed.
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// HasProvider reports whether a provider is assigned.
func (b *Booking) HasProvider() bool {
	return b.ProviderID != nil && *b.ProviderID != uuid.Nil
}

// IsUnfilled reports whether the booking is confirmed without a provider.
func (b *Booking) IsUnfilled() bool {
	return b.IsConfirmed() && !b.HasProvider()
}

// IsRecurring reports whether the booking belongs to a series.
func (b *Booking) IsRecurring() bool {
	return b.SeriesID != nil
}

// AttemptLimit resolves the effective limit: booking override, then region, then fallback.
func (b *Booking) AttemptLimit(region *Region, fallback int) int {
	if b.MaxAttempts != nil {
		return *b.MaxAttempts
	}
	if region != nil && region.MaxAttempts != nil {
		return *region.MaxAttempts
	}
	return fallback
}

// AttemptsExhausted reports whether no automatic reschedule may be tried.
func (b *Booking) AttemptsExhausted(limit int) bool {
	return b.RescheduleAttempts >= limit
}
