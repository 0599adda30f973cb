package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/services"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
)

// CheckBlackoutQuery asks whether a date is a blackout for a country.
type CheckBlackoutQuery struct {
	Date    time.Time
	Country string
}

// QueryName implements application.Query.
func (CheckBlackoutQuery) QueryName() string { return "holiday.check_blackout" }

var _ application.QueryHandler[CheckBlackoutQuery, services.BlackoutVerdict] = (*CheckBlackoutHandler)(nil)

// CheckBlackoutHandler handles the CheckBlackoutQuery.
type CheckBlackoutHandler struct {
	calendar *services.BlackoutCalendar
}

// NewCheckBlackoutHandler creates a new CheckBlackoutHandler.
func NewCheckBlackoutHandler(calendar *services.BlackoutCalendar) *CheckBlackoutHandler {
	return &CheckBlackoutHandler{calendar: calendar}
}

// Handle executes the CheckBlackoutQuery.
func (h *CheckBlackoutHandler) Handle(ctx context.Context, query CheckBlackoutQuery) (services.BlackoutVerdict, error) {
	return h.calendar.Check(ctx, query.Date, query.Country), nil
}
