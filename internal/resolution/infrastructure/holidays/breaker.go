package holidays

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker around a remote source.
type BreakerConfig struct {
	FailureThreshold uint32
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
}

// DefaultBreakerConfig returns the breaker settings used for remote calendars.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
	}
}

// BreakerSource guards a remote source with a circuit breaker. An unknown
// country is an answer, not a failure, and does not count towards tripping.
type BreakerSource struct {
	inner   domain.HolidaySource
	breaker *gobreaker.CircuitBreaker[[]domain.Holiday]
}

// NewBreakerSource wraps inner.
func NewBreakerSource(name string, inner domain.HolidaySource, cfg BreakerConfig, logger *slog.Logger) *BreakerSource {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("holiday source breaker state changed",
				"source", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerSource{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[[]domain.Holiday](settings),
	}
}

// ObservedHolidays calls the wrapped source unless the breaker is open.
func (s *BreakerSource) ObservedHolidays(ctx context.Context, date time.Time, country string) ([]domain.Holiday, error) {
	var unknown error
	out, err := s.breaker.Execute(func() ([]domain.Holiday, error) {
		hs, err := s.inner.ObservedHolidays(ctx, date, country)
		if errors.Is(err, ErrUnknownCountry) {
			unknown = err
			return nil, nil
		}
		return hs, err
	})
	if err != nil {
		return nil, err
	}
	if unknown != nil {
		return nil, unknown
	}
	return out, nil
}

// State reports the breaker state.
func (s *BreakerSource) State() gobreaker.State {
	return s.breaker.State()
}
