package domain

// ReasonCode is the stable identifier of a Reason.
type ReasonCode string

// Reason explains why a booking was rescheduled or cancelled by us.
type Reason struct {
	ID          int
	Code        ReasonCode
	Description string
}

var (
	ReasonAutomatedReschedule = Reason{
		ID:          1,
		Code:        "automated_reschedule",
		Description: "automated reschedule by us",
	}
	ReasonRescheduleLimitExceeded = Reason{
		ID:          2,
		Code:        "reschedule_limit_exceeded",
		Description: "reschedule limit exceeded",
	}
	ReasonNoSlotAvailable = Reason{
		ID:          3,
		Code:        "no_slot_available",
		Description: "no slot available in the search horizon",
	}
	ReasonRecurringConflict = Reason{
		ID:          4,
		Code:        "recurring_conflict",
		Description: "would be scheduled later than an existing recurring booking in the series",
	}
)

// Reasons returns the full catalog in id order.
func Reasons() []Reason {
	return []Reason{
		ReasonAutomatedReschedule,
		ReasonRescheduleLimitExceeded,
		ReasonNoSlotAvailable,
		ReasonRecurringConflict,
	}
}

// ReasonByID looks up a catalog entry.
func ReasonByID(id int) (Reason, bool) {
	for _, r := range Reasons() {
		if r.ID == id {
			return r, true
		}
	}
	return Reason{}, false
}
