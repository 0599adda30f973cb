package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
)

// dayAfterWatchList names holidays whose following day is also blacked out.
// Matching is a case-insensitive substring test so naming variants such as
// "Thanksgiving Day" or "Christmas Day (observed)" still match.
var dayAfterWatchList = []string{"thanksgiving", "christmas day", "new year's day"}

// BlackoutVerdict explains a blackout decision.
type BlackoutVerdict struct {
	Date     time.Time `json:"date"`
	Country  string    `json:"country"`
	Blackout bool      `json:"blackout"`
	// Holidays observed on the date itself.
	Holidays []string `json:"holidays,omitempty"`
	// DayAfter is set when the date follows a watch-listed holiday.
	DayAfter string `json:"day_after,omitempty"`
}

// BlackoutCalendar decides whether a date may be used as a reschedule target.
type BlackoutCalendar struct {
	source domain.HolidaySource
	logger *slog.Logger
}

// NewBlackoutCalendar creates a blackout calendar over a holiday source.
func NewBlackoutCalendar(source domain.HolidaySource, logger *slog.Logger) *BlackoutCalendar {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlackoutCalendar{source: source, logger: logger}
}

// IsBlackoutDate reports whether date is an observed holiday, or the day after a
// watch-listed one, in country. Source failures count as "no holiday".
func (c *BlackoutCalendar) IsBlackoutDate(ctx context.Context, date time.Time, country string) bool {
	return c.Check(ctx, date, country).Blackout
}

// Check is IsBlackoutDate with the evidence attached.
func (c *BlackoutCalendar) Check(ctx context.Context, date time.Time, country string) BlackoutVerdict {
	day := domain.CivilDate(date)
	country = domain.NormalizeCountry(country)
	verdict := BlackoutVerdict{Date: day, Country: country}

	for _, h := range c.observed(ctx, day, country) {
		verdict.Holidays = append(verdict.Holidays, h.Name)
	}
	if len(verdict.Holidays) > 0 {
		verdict.Blackout = true
		return verdict
	}

	for _, h := range c.observed(ctx, day.AddDate(0, 0, -1), country) {
		if onDayAfterWatchList(h.Name) {
			verdict.Blackout = true
			verdict.DayAfter = h.Name
			return verdict
		}
	}
	return verdict
}

func (c *BlackoutCalendar) observed(ctx context.Context, day time.Time, country string) []domain.Holiday {
	if c.source == nil {
		return nil
	}
	holidays, err := c.source.ObservedHolidays(ctx, day, country)
	if err != nil {
		c.logger.WarnContext(ctx, "holiday lookup failed, treating date as regular day",
			"date", day.Format(time.DateOnly),
			"country", country,
			"error", err,
		)
		return nil
	}

	var observed []domain.Holiday
	for _, h := range holidays {
		if h.Observed {
			observed = append(observed, h)
		}
	}
	return observed
}

func onDayAfterWatchList(name string) bool {
	lower := strings.ToLower(name)
	for _, watched := range dayAfterWatchList {
		if strings.Contains(lower, watched) {
			return true
		}
	}
	return false
}
