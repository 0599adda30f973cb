package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/google/uuid"
)

const (
	// PolicySearchWeeks bounds the weekday-policy search.
	PolicySearchWeeks = 8
	// ScanHorizonDays bounds the calendar scan: 8 weeks minus one day.
	ScanHorizonDays = 7*PolicySearchWeeks - 1
)

// Strategy names reported on a Selection.
const (
	StrategyRecommender  = "recommender"
	StrategyDayPolicy    = "day_policy"
	StrategyCalendarScan = "calendar_scan"
)

// Blackouts answers blackout questions for the selector.
type Blackouts interface {
	IsBlackoutDate(ctx context.Context, date time.Time, country string) bool
}

// SelectionRequest is the input to every date strategy.
type SelectionRequest struct {
	Booking *domain.Booking
	Region  *domain.Region
}

func (r SelectionRequest) country() string {
	if r.Region == nil {
		return ""
	}
	return r.Region.CountryCode
}

// localStart is the booking start in the region's time zone, so weekday and
// date arithmetic follow local calendar days.
func (r SelectionRequest) localStart() time.Time {
	return r.Booking.Start.In(r.Region.Location())
}

// Selection is a chosen replacement start.
type Selection struct {
	Start       time.Time
	ProviderIDs []uuid.UUID
	Strategy    string
}

// Verdict is a strategy's answer.
type Verdict int

const (
	// VerdictPass means the strategy does not apply; the next one is asked.
	VerdictPass Verdict = iota
	// VerdictFound means the strategy produced a date.
	VerdictFound
	// VerdictExhausted means the strategy applies but found nothing; the search stops.
	VerdictExhausted
)

// StrategyResult pairs a verdict with the selection it found.
type StrategyResult struct {
	Verdict   Verdict
	Selection Selection
}

// DateStrategy is one step of the replacement-date search.
type DateStrategy interface {
	Name() string
	Select(ctx context.Context, req SelectionRequest) (StrategyResult, error)
}

// DateSelector evaluates strategies in order until one is decisive.
type DateSelector struct {
	strategies []DateStrategy
	logger     *slog.Logger
}

// NewDateSelector creates a selector over the given strategies, tried in order.
func NewDateSelector(logger *slog.Logger, strategies ...DateStrategy) *DateSelector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DateSelector{strategies: strategies, logger: logger}
}

// NewDefaultDateSelector wires recommender, day policy, then calendar scan.
func NewDefaultDateSelector(
	recommender domain.Recommender,
	config domain.RegionConfigProvider,
	blackouts Blackouts,
	logger *slog.Logger,
) *DateSelector {
	return NewDateSelector(logger,
		NewRecommenderStrategy(recommender, logger),
		NewDayPolicyStrategy(config, blackouts),
		NewCalendarScanStrategy(blackouts),
	)
}

// SelectNewDate returns the replacement start, or nil when no slot exists.
func (s *DateSelector) SelectNewDate(ctx context.Context, req SelectionRequest) (*Selection, error) {
	for _, strategy := range s.strategies {
		result, err := strategy.Select(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%s strategy: %w", strategy.Name(), err)
		}
		switch result.Verdict {
		case VerdictFound:
			sel := result.Selection
			sel.Strategy = strategy.Name()
			s.logger.DebugContext(ctx, "replacement date selected",
				"booking_id", req.Booking.ID,
				"strategy", sel.Strategy,
				"new_start", sel.Start,
			)
			return &sel, nil
		case VerdictExhausted:
			s.logger.DebugContext(ctx, "no replacement date",
				"booking_id", req.Booking.ID,
				"strategy", strategy.Name(),
			)
			return nil, nil
		}
	}
	return nil, nil
}

// RecommenderStrategy defers to the external optimizer when it has an answer.
type RecommenderStrategy struct {
	recommender domain.Recommender
	logger      *slog.Logger
}

// NewRecommenderStrategy creates the recommender step. A nil recommender always passes.
func NewRecommenderStrategy(recommender domain.Recommender, logger *slog.Logger) *RecommenderStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommenderStrategy{recommender: recommender, logger: logger}
}

func (s *RecommenderStrategy) Name() string { return StrategyRecommender }

func (s *RecommenderStrategy) Select(ctx context.Context, req SelectionRequest) (StrategyResult, error) {
	if s.recommender == nil {
		return StrategyResult{Verdict: VerdictPass}, nil
	}
	rec, err := s.recommender.Recommend(ctx, req.Booking, domain.ArrivalAutoReschedule)
	if err != nil {
		s.logger.WarnContext(ctx, "recommender unavailable, falling back to calendar search",
			"booking_id", req.Booking.ID,
			"error", err,
		)
		return StrategyResult{Verdict: VerdictPass}, nil
	}
	if rec.IsEmpty() {
		return StrategyResult{Verdict: VerdictPass}, nil
	}
	if !rec.Start.After(req.Booking.Start) {
		s.logger.WarnContext(ctx, "ignoring recommendation not after original start",
			"booking_id", req.Booking.ID,
			"recommended_start", rec.Start,
		)
		return StrategyResult{Verdict: VerdictPass}, nil
	}
	return StrategyResult{
		Verdict:   VerdictFound,
		Selection: Selection{Start: rec.Start, ProviderIDs: rec.ProviderIDs},
	}, nil
}

// DayPolicyStrategy moves a booking to its region's preferred weekday.
type DayPolicyStrategy struct {
	config    domain.RegionConfigProvider
	blackouts Blackouts
}

// NewDayPolicyStrategy creates the weekday-policy step.
func NewDayPolicyStrategy(config domain.RegionConfigProvider, blackouts Blackouts) *DayPolicyStrategy {
	return &DayPolicyStrategy{config: config, blackouts: blackouts}
}

func (s *DayPolicyStrategy) Name() string { return StrategyDayPolicy }

// Select tries the target weekday at weekly steps. The policy path has no
// Monday-Thursday restriction; only blackouts and "not after start" exclude a date.
func (s *DayPolicyStrategy) Select(ctx context.Context, req SelectionRequest) (StrategyResult, error) {
	policy, err := s.config.DayPolicy(ctx, req.Booking.RegionID)
	if err != nil {
		return StrategyResult{}, err
	}

	start := req.localStart()
	target, ok := policy.Target(start.Weekday())
	if !ok {
		return StrategyResult{Verdict: VerdictPass}, nil
	}

	// A same-weekday target starts one week out so the search still covers
	// PolicySearchWeeks candidates.
	minOffset := domain.DaysUntil(start.Weekday(), target)
	if minOffset == 0 {
		minOffset = 7
	}
	for week := 0; week < PolicySearchWeeks; week++ {
		candidate := start.AddDate(0, 0, minOffset+7*week)
		if !candidate.After(start) {
			continue
		}
		if s.blackouts.IsBlackoutDate(ctx, candidate, req.country()) {
			continue
		}
		return StrategyResult{Verdict: VerdictFound, Selection: Selection{Start: candidate}}, nil
	}
	return StrategyResult{Verdict: VerdictExhausted}, nil
}

// CalendarScanStrategy is the dependency-free fallback search.
type CalendarScanStrategy struct {
	blackouts Blackouts
}

// NewCalendarScanStrategy creates the calendar scan step.
func NewCalendarScanStrategy(blackouts Blackouts) *CalendarScanStrategy {
	return &CalendarScanStrategy{blackouts: blackouts}
}

func (s *CalendarScanStrategy) Name() string { return StrategyCalendarScan }

func (s *CalendarScanStrategy) Select(ctx context.Context, req SelectionRequest) (StrategyResult, error) {
	next := s.NextReschedulableDate(ctx, req)
	if next == nil {
		return StrategyResult{Verdict: VerdictExhausted}, nil
	}
	return StrategyResult{Verdict: VerdictFound, Selection: Selection{Start: *next}}, nil
}

// NextReschedulableDate returns the first Monday-Thursday, non-blackout date
// 1 to ScanHorizonDays days after the booking, keeping its local start time.
func (s *CalendarScanStrategy) NextReschedulableDate(ctx context.Context, req SelectionRequest) *time.Time {
	start := req.localStart()
	for offset := 1; offset <= ScanHorizonDays; offset++ {
		candidate := start.AddDate(0, 0, offset)
		if !isMondayToThursday(candidate.Weekday()) {
			continue
		}
		if s.blackouts.IsBlackoutDate(ctx, candidate, req.country()) {
			continue
		}
		return &candidate
	}
	return nil
}

func isMondayToThursday(day time.Weekday) bool {
	return day >= time.Monday && day <= time.Thursday
}
