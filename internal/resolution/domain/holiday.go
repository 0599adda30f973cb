package domain

import (
	"strings"
	"time"
)

// Holiday is one observed holiday reported by a data source.
type Holiday struct {
	Date     time.Time
	Name     string
	Country  string
	Observed bool
}

// CivilDate strips the clock from t, keeping t's calendar date, as midnight UTC.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeCountry upper-cases an ISO country code.
func NormalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}
