// Package holidays provides observed-holiday sources for the blackout calendar.
package holidays

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/teambition/rrule-go"
)

// ErrUnknownCountry is returned when a source has no calendar for a country.
var ErrUnknownCountry = errors.New("no holiday calendar for country")

// rule is one yearly holiday. Fixed-date holidays that land on a weekend are
// observed on the adjacent weekday.
type rule struct {
	name   string
	option rrule.ROption
	fixed  bool
}

func fixedDate(name string, month time.Month, day int) rule {
	return rule{
		name:   name,
		option: rrule.ROption{Freq: rrule.YEARLY, Bymonth: []int{int(month)}, Bymonthday: []int{day}},
		fixed:  true,
	}
}

func nthWeekday(name string, month time.Month, wd rrule.Weekday, n int) rule {
	return rule{
		name:   name,
		option: rrule.ROption{Freq: rrule.YEARLY, Bymonth: []int{int(month)}, Byweekday: []rrule.Weekday{wd.Nth(n)}},
	}
}

var calendars = map[string][]rule{
	"US": {
		fixedDate("New Year's Day", time.January, 1),
		nthWeekday("Martin Luther King Jr. Day", time.January, rrule.MO, 3),
		nthWeekday("Presidents' Day", time.February, rrule.MO, 3),
		nthWeekday("Memorial Day", time.May, rrule.MO, -1),
		fixedDate("Juneteenth", time.June, 19),
		fixedDate("Independence Day", time.July, 4),
		nthWeekday("Labor Day", time.September, rrule.MO, 1),
		nthWeekday("Columbus Day", time.October, rrule.MO, 2),
		fixedDate("Veterans Day", time.November, 11),
		nthWeekday("Thanksgiving", time.November, rrule.TH, 4),
		fixedDate("Christmas Day", time.December, 25),
	},
	"CA": {
		fixedDate("New Year's Day", time.January, 1),
		{name: "Good Friday", option: rrule.ROption{Freq: rrule.YEARLY, Byeaster: []int{-2}}},
		{name: "Victoria Day", option: rrule.ROption{
			Freq:       rrule.YEARLY,
			Bymonth:    []int{int(time.May)},
			Byweekday:  []rrule.Weekday{rrule.MO},
			Bymonthday: []int{18, 19, 20, 21, 22, 23, 24},
		}},
		fixedDate("Canada Day", time.July, 1),
		nthWeekday("Labour Day", time.September, rrule.MO, 1),
		nthWeekday("Thanksgiving", time.October, rrule.MO, 2),
		fixedDate("Remembrance Day", time.November, 11),
		fixedDate("Christmas Day", time.December, 25),
		fixedDate("Boxing Day", time.December, 26),
	},
}

// RuleSource computes holidays from built-in recurrence rules.
type RuleSource struct {
	mu    sync.Mutex
	years map[string][]domain.Holiday
}

// NewRuleSource creates a rule-based source for the built-in countries.
func NewRuleSource() *RuleSource {
	return &RuleSource{years: make(map[string][]domain.Holiday)}
}

// Countries lists the countries with a built-in calendar.
func (s *RuleSource) Countries() []string {
	out := make([]string, 0, len(calendars))
	for c := range calendars {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ObservedHolidays returns the holidays falling on date's calendar day.
func (s *RuleSource) ObservedHolidays(_ context.Context, date time.Time, country string) ([]domain.Holiday, error) {
	country = domain.NormalizeCountry(country)
	rules, ok := calendars[country]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, country)
	}

	day := domain.CivilDate(date)
	all, err := s.year(country, rules, day.Year())
	if err != nil {
		return nil, err
	}

	var out []domain.Holiday
	for _, h := range all {
		if h.Date.Equal(day) {
			out = append(out, h)
		}
	}
	return out, nil
}

// year returns the holidays of year plus its neighbours, so that observed
// shifts across New Year are visible from both sides.
func (s *RuleSource) year(country string, rules []rule, year int) ([]domain.Holiday, error) {
	key := fmt.Sprintf("%s/%d", country, year)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.years[key]; ok {
		return cached, nil
	}

	from := time.Date(year-1, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(year+1, time.December, 31, 0, 0, 0, 0, time.UTC)

	var out []domain.Holiday
	for _, r := range rules {
		opt := r.option
		opt.Dtstart = from
		opt.Until = until
		rr, err := rrule.NewRRule(opt)
		if err != nil {
			return nil, fmt.Errorf("holiday rule %q: %w", r.name, err)
		}
		for _, d := range rr.All() {
			out = append(out, expand(r, country, domain.CivilDate(d))...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	s.years[key] = out
	return out, nil
}

func expand(r rule, country string, date time.Time) []domain.Holiday {
	actual := domain.Holiday{Date: date, Name: r.name, Country: country, Observed: true}
	if !r.fixed {
		return []domain.Holiday{actual}
	}

	var shifted time.Time
	switch date.Weekday() {
	case time.Saturday:
		shifted = date.AddDate(0, 0, -1)
	case time.Sunday:
		shifted = date.AddDate(0, 0, 1)
	default:
		return []domain.Holiday{actual}
	}

	actual.Observed = false
	return []domain.Holiday{
		actual,
		{Date: shifted, Name: r.name + " (observed)", Country: country, Observed: true},
	}
}
