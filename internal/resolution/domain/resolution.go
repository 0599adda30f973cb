package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResolutionKind tags how one booking's decision cycle ended.
type ResolutionKind string

const (
	ResolutionAborted            ResolutionKind = "aborted"
	ResolutionAnomalyLogged      ResolutionKind = "anomaly_logged"
	ResolutionRescheduleFailed   ResolutionKind = "reschedule_failed"
	ResolutionRescheduled        ResolutionKind = "rescheduled"
	ResolutionCancelled          ResolutionKind = "cancelled"
	ResolutionCancellationFailed ResolutionKind = "cancellation_failed"
)

// AbortCause explains a silent abort.
type AbortCause string

const (
	AbortConcurrentlyResolved AbortCause = "concurrently_resolved"
	AbortRegionDisabled       AbortCause = "region_disabled"
)

// CancelTrigger names which exhausted path led to cancellation.
type CancelTrigger string

const (
	TriggerAttemptLimit      CancelTrigger = "attempt_limit_exceeded"
	TriggerNoSlot            CancelTrigger = "no_slot_available"
	TriggerRecurringConflict CancelTrigger = "recurring_conflict"
)

// Reason returns the catalog entry recorded for the trigger.
func (t CancelTrigger) Reason() Reason {
	switch t {
	case TriggerAttemptLimit:
		return ReasonRescheduleLimitExceeded
	case TriggerRecurringConflict:
		return ReasonRecurringConflict
	default:
		return ReasonNoSlotAvailable
	}
}

// Resolution is the tagged result of resolving one booking.
type Resolution struct {
	Kind          ResolutionKind
	BookingID     uuid.UUID
	OriginalStart time.Time

	// Set when Kind is ResolutionAborted.
	AbortCause AbortCause
	// Set when Kind is ResolutionRescheduled.
	NewStart *time.Time
	// Set when Kind is ResolutionCancelled or ResolutionCancellationFailed.
	Trigger CancelTrigger

	Message string
	Errors  []string
}

// Aborted builds a no-op result that leaves no outcome entry.
func Aborted(b *Booking, cause AbortCause) Resolution {
	return Resolution{Kind: ResolutionAborted, BookingID: b.ID, OriginalStart: b.Start, AbortCause: cause}
}

// AnomalyLogged builds the result for a logged, non-actioned booking.
func AnomalyLogged(b *Booking, message string) Resolution {
	return Resolution{Kind: ResolutionAnomalyLogged, BookingID: b.ID, OriginalStart: b.Start, Message: message}
}

// RescheduleFailed builds the result for a logged reschedule that could not be carried out.
func RescheduleFailed(b *Booking, message string) Resolution {
	return Resolution{Kind: ResolutionRescheduleFailed, BookingID: b.ID, OriginalStart: b.Start, Message: message}
}

// Rescheduled builds the result for a moved booking.
func Rescheduled(b *Booking, newStart time.Time) Resolution {
	ns := newStart
	return Resolution{Kind: ResolutionRescheduled, BookingID: b.ID, OriginalStart: b.Start, NewStart: &ns}
}

// Cancelled builds the result for a cancelled booking.
func Cancelled(b *Booking, trigger CancelTrigger, message string) Resolution {
	return Resolution{Kind: ResolutionCancelled, BookingID: b.ID, OriginalStart: b.Start, Trigger: trigger, Message: message}
}

// CancellationFailed builds the result for a cancellation the trigger refused.
func CancellationFailed(b *Booking, trigger CancelTrigger, message string, errs []string) Resolution {
	return Resolution{
		Kind:          ResolutionCancellationFailed,
		BookingID:     b.ID,
		OriginalStart: b.Start,
		Trigger:       trigger,
		Message:       message,
		Errors:        errs,
	}
}

// WritesOutcome reports whether this result left an outcome entry.
func (r Resolution) WritesOutcome() bool {
	return r.Kind != ResolutionAborted
}

// Err maps the result onto the error taxonomy. Rescheduled and aborted results return nil.
func (r Resolution) Err() error {
	switch r.Kind {
	case ResolutionAnomalyLogged:
		return ErrIneligibleAnomaly
	case ResolutionRescheduleFailed:
		return ErrRescheduleFailed
	case ResolutionCancellationFailed:
		return ErrCancellationFailed
	case ResolutionCancelled:
		switch r.Trigger {
		case TriggerAttemptLimit:
			return ErrAttemptLimitExceeded
		case TriggerRecurringConflict:
			return ErrRecurringConflict
		default:
			return ErrNoSlotAvailable
		}
	}
	return nil
}
