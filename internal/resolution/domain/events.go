package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/autoresolve/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Booking"

	RoutingKeyRescheduledByUs = "booking.rescheduled_by_us"
	RoutingKeyCanceledByUs    = "booking.canceled_by_us"
	RoutingKeyAutoCanceled    = "notification.auto_canceled"
)

// BookingRescheduledByUs is emitted when the resolver moves a booking.
type BookingRescheduledByUs struct {
	sharedDomain.BaseEvent
	BookingID   uuid.UUID   `json:"booking_id"`
	UserID      uuid.UUID   `json:"user_id"`
	OldStart    time.Time   `json:"old_start"`
	NewStart    time.Time   `json:"new_start"`
	ReasonCode  ReasonCode  `json:"reason_code"`
	ProviderIDs []uuid.UUID `json:"provider_ids,omitempty"`
	Attempt     int         `json:"attempt"`
}

// NewBookingRescheduledByUs creates a BookingRescheduledByUs event.
func NewBookingRescheduledByUs(b *Booking, newStart time.Time, reason Reason, providers []uuid.UUID, at time.Time) BookingRescheduledByUs {
	return BookingRescheduledByUs{
		BaseEvent:   sharedDomain.NewBaseEventAt(b.ID, AggregateType, RoutingKeyRescheduledByUs, at),
		BookingID:   b.ID,
		UserID:      b.UserID,
		OldStart:    b.Start,
		NewStart:    newStart,
		ReasonCode:  reason.Code,
		ProviderIDs: providers,
		Attempt:     b.RescheduleAttempts + 1,
	}
}

// BookingCanceledByUs is emitted when the resolver cancels a booking.
type BookingCanceledByUs struct {
	sharedDomain.BaseEvent
	BookingID   uuid.UUID  `json:"booking_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Start       time.Time  `json:"start"`
	ReasonCode  ReasonCode `json:"reason_code"`
	RefundCents int64      `json:"refund_cents"`
	Tag         string     `json:"tag"`
}

// NewBookingCanceledByUs creates a BookingCanceledByUs event.
func NewBookingCanceledByUs(b *Booking, req CancellationRequest) BookingCanceledByUs {
	return BookingCanceledByUs{
		BaseEvent:   sharedDomain.NewBaseEventAt(b.ID, AggregateType, RoutingKeyCanceledByUs, req.RequestedAt),
		BookingID:   b.ID,
		UserID:      b.UserID,
		Start:       b.Start,
		ReasonCode:  req.Reason.Code,
		RefundCents: req.RefundCents,
		Tag:         req.Tag,
	}
}

// AutoCanceledNotification asks the notification service to tell the user.
type AutoCanceledNotification struct {
	sharedDomain.BaseEvent
	UserID    uuid.UUID `json:"user_id"`
	BookingID uuid.UUID `json:"booking_id"`
	Start     time.Time `json:"start"`
	Message   string    `json:"message"`
}

// NewAutoCanceledNotification creates an AutoCanceledNotification event.
func NewAutoCanceledNotification(b *Booking, message string, at time.Time) AutoCanceledNotification {
	return AutoCanceledNotification{
		BaseEvent: sharedDomain.NewBaseEventAt(b.ID, AggregateType, RoutingKeyAutoCanceled, at),
		UserID:    b.UserID,
		BookingID: b.ID,
		Start:     b.Start,
		Message:   message,
	}
}
