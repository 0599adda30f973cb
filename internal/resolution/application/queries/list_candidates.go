package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/services"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/google/uuid"
)

// CandidateDTO describes a booking the next batch pass would act on.
type CandidateDTO struct {
	BookingID          uuid.UUID `json:"booking_id"`
	RegionID           string    `json:"region_id"`
	ServiceID          string    `json:"service_id"`
	Start              time.Time `json:"start"`
	RescheduleAttempts int       `json:"reschedule_attempts"`
	WindowMinutes      int       `json:"window_minutes"`
}

// ListCandidatesQuery is a dry run of batch selection.
type ListCandidatesQuery struct {
	// ReferenceTime defaults to now.
	ReferenceTime time.Time
}

// QueryName implements application.Query.
func (ListCandidatesQuery) QueryName() string { return "resolution.list_candidates" }

var _ application.QueryHandler[ListCandidatesQuery, []CandidateDTO] = (*ListCandidatesHandler)(nil)

// ListCandidatesHandler handles the ListCandidatesQuery.
type ListCandidatesHandler struct {
	eligibility *services.EligibilityEvaluator
	clock       func() time.Time
}

// NewListCandidatesHandler creates a new ListCandidatesHandler.
func NewListCandidatesHandler(eligibility *services.EligibilityEvaluator, clock func() time.Time) *ListCandidatesHandler {
	if clock == nil {
		clock = time.Now
	}
	return &ListCandidatesHandler{eligibility: eligibility, clock: clock}
}

// Handle executes the ListCandidatesQuery.
func (h *ListCandidatesHandler) Handle(ctx context.Context, query ListCandidatesQuery) ([]CandidateDTO, error) {
	ref := query.ReferenceTime
	if ref.IsZero() {
		ref = h.clock()
	}

	batch, err := h.eligibility.SelectBatch(ctx, ref)
	if err != nil {
		return nil, err
	}

	dtos := make([]CandidateDTO, 0, len(batch))
	for _, b := range batch {
		window, err := h.eligibility.AutoRBUMinutes(ctx, b.RegionID, b.ServiceID)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, CandidateDTO{
			BookingID:          b.ID,
			RegionID:           b.RegionID,
			ServiceID:          b.ServiceID,
			Start:              b.Start,
			RescheduleAttempts: b.RescheduleAttempts,
			WindowMinutes:      window,
		})
	}
	return dtos, nil
}
