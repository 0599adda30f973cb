package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArrivalType tells the recommender which scheduling flow is asking.
type ArrivalType string

const ArrivalAutoReschedule ArrivalType = "AUTO_RESCHEDULE"

// Recommendation is an optimizer-proposed start time with candidate providers.
type Recommendation struct {
	ProviderIDs []uuid.UUID
	Start       time.Time
}

// IsEmpty reports whether the recommender had nothing to offer.
func (r Recommendation) IsEmpty() bool {
	return r.Start.IsZero()
}

// ConflictKind is a conflict reported by the reschedule operation.
type ConflictKind string

const (
	ConflictNone            ConflictKind = ""
	ConflictRecurringSeries ConflictKind = "recurring_series"
)

// RescheduleRequest asks the reschedule operation to move a booking.
type RescheduleRequest struct {
	Booking     *Booking
	NewStart    time.Time
	Reason      Reason
	ProviderIDs []uuid.UUID
	RequestedAt time.Time
}

// RescheduleResult is the reschedule operation's answer.
type RescheduleResult struct {
	Applied  bool
	Conflict ConflictKind
}
