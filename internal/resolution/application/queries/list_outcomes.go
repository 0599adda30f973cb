package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/google/uuid"
)

// DefaultOutcomeLimit caps outcome listings when no limit is given.
const DefaultOutcomeLimit = 50

// OutcomeDTO is a data transfer object for outcome log entries.
type OutcomeDTO struct {
	ID            uuid.UUID  `json:"id"`
	BookingID     uuid.UUID  `json:"booking_id"`
	Type          string     `json:"type"`
	Success       bool       `json:"success"`
	ReasonCode    string     `json:"reason_code"`
	OriginalStart time.Time  `json:"original_start"`
	NewStart      *time.Time `json:"new_start,omitempty"`
	Message       string     `json:"message"`
	RecordedAt    time.Time  `json:"recorded_at"`
}

// ListOutcomesQuery filters the outcome log.
type ListOutcomesQuery struct {
	BookingID *uuid.UUID
	Type      string
	Since     *time.Time
	Limit     int
}

// QueryName implements application.Query.
func (ListOutcomesQuery) QueryName() string { return "resolution.list_outcomes" }

var _ application.QueryHandler[ListOutcomesQuery, []OutcomeDTO] = (*ListOutcomesHandler)(nil)

// ListOutcomesHandler handles the ListOutcomesQuery.
type ListOutcomesHandler struct {
	outcomes domain.OutcomeRepository
}

// NewListOutcomesHandler creates a new ListOutcomesHandler.
func NewListOutcomesHandler(outcomes domain.OutcomeRepository) *ListOutcomesHandler {
	return &ListOutcomesHandler{outcomes: outcomes}
}

// Handle executes the ListOutcomesQuery, newest first.
func (h *ListOutcomesHandler) Handle(ctx context.Context, query ListOutcomesQuery) ([]OutcomeDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultOutcomeLimit
	}

	entries, err := h.outcomes.List(ctx, domain.OutcomeFilter{
		BookingID: query.BookingID,
		Type:      domain.OutcomeType(query.Type),
		Since:     query.Since,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	dtos := make([]OutcomeDTO, 0, len(entries))
	for _, e := range entries {
		code := ""
		if reason, ok := domain.ReasonByID(e.ReasonID); ok {
			code = string(reason.Code)
		}
		dtos = append(dtos, OutcomeDTO{
			ID:            e.ID,
			BookingID:     e.BookingID,
			Type:          string(e.Type),
			Success:       e.Success,
			ReasonCode:    code,
			OriginalStart: e.OriginalStart,
			NewStart:      e.NewStart,
			Message:       e.Message,
			RecordedAt:    e.RecordedAt,
		})
	}
	return dtos, nil
}
