package holidays

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
)

// NamedSource pairs a source with the name used in logs.
type NamedSource struct {
	Name   string
	Source domain.HolidaySource
}

// CompositeSource returns the union of several sources. A failing source is
// skipped; the lookup fails only when no source answered.
type CompositeSource struct {
	sources []NamedSource
	logger  *slog.Logger
}

// NewCompositeSource creates a union of sources.
func NewCompositeSource(logger *slog.Logger, sources ...NamedSource) *CompositeSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompositeSource{sources: sources, logger: logger}
}

// ObservedHolidays merges the holidays of every answering source, dropping
// duplicates by name.
func (c *CompositeSource) ObservedHolidays(ctx context.Context, date time.Time, country string) ([]domain.Holiday, error) {
	var (
		out      []domain.Holiday
		seen     = make(map[string]bool)
		answered int
		errs     []error
	)
	for _, s := range c.sources {
		hs, err := s.Source.ObservedHolidays(ctx, date, country)
		if err != nil {
			if !errors.Is(err, ErrUnknownCountry) {
				c.logger.Warn("holiday source failed", "source", s.Name, "country", country, "error", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		answered++
		for _, h := range hs {
			key := fmt.Sprintf("%t/%s", h.Observed, h.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, h)
		}
	}
	if answered == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
