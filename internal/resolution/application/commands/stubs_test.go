package commands

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/google/uuid"
)

var errBoom = errors.New("boom")

type stubGuard struct {
	resolved bool
	err      error
}

func (s *stubGuard) AlreadyResolved(ctx context.Context, b *domain.Booking) (bool, error) {
	return s.resolved, s.err
}

// claimGuard claims a booking on a clear answer and frees it on Release.
// Claims in held but not in mine belong to another instance.
type claimGuard struct {
	mu       sync.Mutex
	held     map[uuid.UUID]bool
	mine     map[uuid.UUID]bool
	released int
}

func newClaimGuard() *claimGuard {
	return &claimGuard{held: make(map[uuid.UUID]bool), mine: make(map[uuid.UUID]bool)}
}

func (g *claimGuard) AlreadyResolved(ctx context.Context, b *domain.Booking) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[b.ID] {
		return true, nil
	}
	g.held[b.ID] = true
	g.mine[b.ID] = true
	return false, nil
}

func (g *claimGuard) Release(ctx context.Context, b *domain.Booking) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mine[b.ID] {
		delete(g.held, b.ID)
		delete(g.mine, b.ID)
		g.released++
	}
	return nil
}

type stubConfig struct {
	regions  map[string]*domain.Region
	windows  map[string]int
	policies map[string]domain.DayPolicy
	err      error
}

func newStubConfig() *stubConfig {
	return &stubConfig{
		regions:  make(map[string]*domain.Region),
		windows:  make(map[string]int),
		policies: make(map[string]domain.DayPolicy),
	}
}

func (s *stubConfig) Region(ctx context.Context, id string) (*domain.Region, error) {
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.regions[id]
	if !ok {
		return nil, domain.ErrRegionNotFound
	}
	return r, nil
}

func (s *stubConfig) AutoEnabledRegionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for id, r := range s.regions {
		if r.AutoEnabled {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *stubConfig) WindowMinutes(ctx context.Context, regionID, serviceID string) (int, bool, error) {
	m, ok := s.windows[regionID+"/"+serviceID]
	return m, ok, nil
}

func (s *stubConfig) MaxWindowMinutes(ctx context.Context) (int, bool, error) {
	max := 0
	for _, m := range s.windows {
		if m > max {
			max = m
		}
	}
	return max, max > 0, nil
}

func (s *stubConfig) DayPolicy(ctx context.Context, regionID string) (domain.DayPolicy, error) {
	return s.policies[regionID], nil
}

type stubBookings struct {
	bookings []*domain.Booking
}

func (s *stubBookings) Save(ctx context.Context, b *domain.Booking) error { return nil }

func (s *stubBookings) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	for _, b := range s.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, domain.ErrBookingNotFound
}

func (s *stubBookings) FindUnfilledInWindow(ctx context.Context, regionIDs []string, from, to time.Time) ([]*domain.Booking, error) {
	return s.bookings, nil
}

type stubRecommender struct {
	rec   domain.Recommendation
	calls int
}

func (s *stubRecommender) Recommend(ctx context.Context, b *domain.Booking, arrival domain.ArrivalType) (domain.Recommendation, error) {
	s.calls++
	return s.rec, nil
}

type stubRescheduler struct {
	result domain.RescheduleResult
	err    error
	got    []domain.RescheduleRequest
}

func (s *stubRescheduler) Reschedule(ctx context.Context, req domain.RescheduleRequest) (domain.RescheduleResult, error) {
	s.got = append(s.got, req)
	return s.result, s.err
}

type stubHolidays struct {
	holidays map[string][]domain.Holiday
}

func (s *stubHolidays) ObservedHolidays(ctx context.Context, date time.Time, country string) ([]domain.Holiday, error) {
	return s.holidays[date.Format(time.DateOnly)], nil
}

type stubOutcomes struct {
	mu      sync.Mutex
	entries []domain.OutcomeEntry
	err     error
}

func (s *stubOutcomes) Append(ctx context.Context, entry domain.OutcomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

type stubRefunds struct{}

func (stubRefunds) Refund(ctx context.Context, b *domain.Booking, reason domain.Reason) (int64, error) {
	return b.PriceCents, nil
}

type stubTrigger struct {
	result domain.TriggerResult
	got    []domain.CancellationRequest
}

func (s *stubTrigger) Trigger(ctx context.Context, req domain.CancellationRequest) (domain.TriggerResult, error) {
	s.got = append(s.got, req)
	return s.result, nil
}

type stubNotifier struct {
	notified int
}

func (s *stubNotifier) NotifyAutoCanceled(ctx context.Context, b *domain.Booking, message string) error {
	s.notified++
	return nil
}

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}
