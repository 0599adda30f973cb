package domain

import (
	"time"

	"github.com/google/uuid"
)

// CancelTagAutoUnfilled marks cancellations made by the unfilled-booking resolver.
const CancelTagAutoUnfilled = "auto_unfilled"

// CancellationRequest is handed to the cancellation trigger.
type CancellationRequest struct {
	BookingID   uuid.UUID
	Reason      Reason
	RefundCents int64
	Tag         string
	Message     string
	RequestedAt time.Time
}

// TriggerResult is what the cancellation trigger reports back.
type TriggerResult struct {
	Success bool
	Errors  []string
}

// CancellationRecord captures one cancellation attempt.
type CancellationRecord struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	ReasonID    int
	RefundCents int64
	Tag         string
	Success     bool
	Errors      []string
	CreatedAt   time.Time
}

// NewCancellationRecord builds the record for a trigger outcome.
func NewCancellationRecord(req CancellationRequest, result TriggerResult) CancellationRecord {
	return CancellationRecord{
		ID:          uuid.New(),
		BookingID:   req.BookingID,
		ReasonID:    req.Reason.ID,
		RefundCents: req.RefundCents,
		Tag:         req.Tag,
		Success:     result.Success,
		Errors:      append([]string(nil), result.Errors...),
		CreatedAt:   req.RequestedAt,
	}
}
