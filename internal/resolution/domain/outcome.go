package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutcomeType tags an outcome log entry with the pathway taken.
type OutcomeType string

const (
	// OutcomeRescheduled is "rescheduled by us".
	OutcomeRescheduled OutcomeType = "rbu"
	// OutcomeCanceled is "canceled by us".
	OutcomeCanceled OutcomeType = "cbu"
)

// FailurePrefix marks the message of a failed cancellation entry.
const FailurePrefix = "FAILED: "

// OutcomeEntry is the immutable record of one decision cycle for a booking.
type OutcomeEntry struct {
	ID            uuid.UUID
	BookingID     uuid.UUID
	OriginalStart time.Time
	NewStart      *time.Time
	ReasonID      int
	Type          OutcomeType
	Success       bool
	Message       string
	RecordedAt    time.Time
}

// NewRescheduledEntry records a successful automatic reschedule.
func NewRescheduledEntry(b *Booking, newStart time.Time, reason Reason, at time.Time) OutcomeEntry {
	ns := newStart
	return OutcomeEntry{
		ID:            uuid.New(),
		BookingID:     b.ID,
		OriginalStart: b.Start,
		NewStart:      &ns,
		ReasonID:      reason.ID,
		Type:          OutcomeRescheduled,
		Success:       true,
		Message: fmt.Sprintf("rescheduled from %s to %s: %s",
			b.Start.Format(time.RFC3339), newStart.Format(time.RFC3339), reason.Description),
		RecordedAt: at,
	}
}

// NewIneligibleEntry records a booking that no longer qualified at execution time.
func NewIneligibleEntry(b *Booking, now time.Time) OutcomeEntry {
	return OutcomeEntry{
		ID:            uuid.New(),
		BookingID:     b.ID,
		OriginalStart: b.Start,
		ReasonID:      ReasonAutomatedReschedule.ID,
		Type:          OutcomeRescheduled,
		Success:       false,
		Message: fmt.Sprintf("booking not eligible for automatic handling: confirmed=%t provider_assigned=%t start=%s now=%s",
			b.IsConfirmed(), b.HasProvider(), b.Start.Format(time.RFC3339), now.Format(time.RFC3339)),
		RecordedAt: now,
	}
}

// NewRescheduleErrorEntry records a reschedule attempt that failed outright.
// newStart is nil when the failure happened before a date was chosen.
func NewRescheduleErrorEntry(b *Booking, newStart *time.Time, message string, at time.Time) OutcomeEntry {
	return OutcomeEntry{
		ID:            uuid.New(),
		BookingID:     b.ID,
		OriginalStart: b.Start,
		NewStart:      newStart,
		ReasonID:      ReasonAutomatedReschedule.ID,
		Type:          OutcomeRescheduled,
		Success:       false,
		Message:       FailurePrefix + message,
		RecordedAt:    at,
	}
}

// NewCanceledEntry records a successful automatic cancellation.
func NewCanceledEntry(b *Booking, reason Reason, message string, at time.Time) OutcomeEntry {
	return OutcomeEntry{
		ID:            uuid.New(),
		BookingID:     b.ID,
		OriginalStart: b.Start,
		ReasonID:      reason.ID,
		Type:          OutcomeCanceled,
		Success:       true,
		Message:       message,
		RecordedAt:    at,
	}
}

// NewCancelFailedEntry records a cancellation the trigger refused.
func NewCancelFailedEntry(b *Booking, reason Reason, message string, errs []string, at time.Time) OutcomeEntry {
	msg := FailurePrefix + message
	if len(errs) > 0 {
		msg += ": " + strings.Join(errs, "; ")
	}
	return OutcomeEntry{
		ID:            uuid.New(),
		BookingID:     b.ID,
		OriginalStart: b.Start,
		ReasonID:      reason.ID,
		Type:          OutcomeCanceled,
		Success:       false,
		Message:       msg,
		RecordedAt:    at,
	}
}

// OutcomeFilter narrows outcome queries. Zero values match everything.
type OutcomeFilter struct {
	BookingID *uuid.UUID
	Type      OutcomeType
	Since     *time.Time
	Limit     int
}
