package domain

import (
	"fmt"
	"strings"
	"time"
)

// DayPolicy maps a booking's weekday to the preferred weekday to move it to.
type DayPolicy struct {
	RegionID string
	targets  map[time.Weekday]time.Weekday
}

// NewDayPolicy creates a policy from weekday pairs.
func NewDayPolicy(regionID string, targets map[time.Weekday]time.Weekday) DayPolicy {
	copied := make(map[time.Weekday]time.Weekday, len(targets))
	for from, to := range targets {
		copied[from] = to
	}
	return DayPolicy{RegionID: regionID, targets: copied}
}

// ParseDayPolicy creates a policy from weekday names such as "Wednesday" -> "Friday".
func ParseDayPolicy(regionID string, names map[string]string) (DayPolicy, error) {
	targets := make(map[time.Weekday]time.Weekday, len(names))
	for from, to := range names {
		fromDay, err := ParseWeekday(from)
		if err != nil {
			return DayPolicy{}, err
		}
		toDay, err := ParseWeekday(to)
		if err != nil {
			return DayPolicy{}, err
		}
		targets[fromDay] = toDay
	}
	return NewDayPolicy(regionID, targets), nil
}

// Governs reports whether the policy has an entry for the weekday.
func (p DayPolicy) Governs(day time.Weekday) bool {
	_, ok := p.targets[day]
	return ok
}

// Target returns the preferred weekday for a booking on day.
func (p DayPolicy) Target(day time.Weekday) (time.Weekday, bool) {
	to, ok := p.targets[day]
	return to, ok
}

// Entries returns a copy of the weekday mapping.
func (p DayPolicy) Entries() map[time.Weekday]time.Weekday {
	copied := make(map[time.Weekday]time.Weekday, len(p.targets))
	for from, to := range p.targets {
		copied[from] = to
	}
	return copied
}

// IsEmpty reports whether the policy governs no weekday.
func (p DayPolicy) IsEmpty() bool {
	return len(p.targets) == 0
}

// ParseWeekday accepts full or three-letter English weekday names, any case.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || (len(n) == 3 && strings.HasPrefix(full, n)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: unknown weekday %q", ErrInvalidDayPolicy, name)
}

// DaysUntil returns the forward distance in days from one weekday to another, in [0, 6].
func DaysUntil(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}
