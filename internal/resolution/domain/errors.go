package domain

import "errors"

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrRegionNotFound   = errors.New("region not found")
	ErrInvalidWindow    = errors.New("invalid auto-accept window")
	ErrInvalidDayPolicy = errors.New("invalid reschedule day policy")
	ErrNotStrictlyLater = errors.New("new start must be strictly after the original start")
)

// Resolution error taxonomy. These never escape the orchestrator as Go errors;
// Resolution.Err maps an outcome onto them so callers can use errors.Is.
var (
	ErrIneligibleAnomaly    = errors.New("booking failed eligibility re-check")
	ErrAttemptLimitExceeded = errors.New("automatic reschedule attempts exhausted")
	ErrNoSlotAvailable      = errors.New("no reschedule slot in search horizon")
	ErrRecurringConflict    = errors.New("reschedule conflicts with recurring series")
	ErrRescheduleFailed     = errors.New("reschedule could not be applied")
	ErrCancellationFailed   = errors.New("cancellation trigger failed")
)
