package domain

import (
	"time"
)

// Region holds the per-region switches that govern automatic handling.
type Region struct {
	ID          string
	Name        string
	CountryCode string
	Timezone    string
	AutoEnabled bool
	MaxAttempts *int
}

// Location returns the region's time zone, falling back to UTC.
func (r *Region) Location() *time.Location {
	if r == nil || r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WindowConfig is the auto-accept window for one (region, service) pair.
type WindowConfig struct {
	RegionID  string
	ServiceID string
	Minutes   int
}

// Duration returns the window as a time.Duration.
func (w WindowConfig) Duration() time.Duration {
	return time.Duration(w.Minutes) * time.Minute
}

// Validate checks the window length.
func (w WindowConfig) Validate() error {
	if w.RegionID == "" || w.ServiceID == "" {
		return ErrInvalidWindow
	}
	if w.Minutes <= 0 {
		return ErrInvalidWindow
	}
	return nil
}
