package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/google/uuid"
)

// stubHolidays reports holidays keyed by "COUNTRY|YYYY-MM-DD".
type stubHolidays struct {
	mu       sync.Mutex
	holidays map[string][]domain.Holiday
	err      error
	calls    int
}

func newStubHolidays() *stubHolidays {
	return &stubHolidays{holidays: make(map[string][]domain.Holiday)}
}

func (s *stubHolidays) add(country string, date time.Time, name string, observed bool) {
	key := country + "|" + date.Format(time.DateOnly)
	s.holidays[key] = append(s.holidays[key], domain.Holiday{
		Date: domain.CivilDate(date), Name: name, Country: country, Observed: observed,
	})
}

func (s *stubHolidays) ObservedHolidays(ctx context.Context, date time.Time, country string) ([]domain.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.holidays[country+"|"+date.Format(time.DateOnly)], nil
}

// blackoutFunc adapts a predicate to Blackouts.
type blackoutFunc func(date time.Time) bool

func (f blackoutFunc) IsBlackoutDate(ctx context.Context, date time.Time, country string) bool {
	return f(date)
}

var noBlackouts = blackoutFunc(func(time.Time) bool { return false })

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

func (s *stubConfig) Region(ctx context.Context, regionID string) (*domain.Region, error) {
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.regions[regionID]
	if !ok {
		return nil, domain.ErrRegionNotFound
	}
	return r, nil
}

func (s *stubConfig) AutoEnabledRegionIDs(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	var ids []string
	for id, r := range s.regions {
		if r.AutoEnabled {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *stubConfig) WindowMinutes(ctx context.Context, regionID, serviceID string) (int, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	m, ok := s.windows[regionID+"/"+serviceID]
	return m, ok, nil
}

func (s *stubConfig) MaxWindowMinutes(ctx context.Context) (int, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	max, found := 0, false
	for _, m := range s.windows {
		if m > max {
			max, found = m, true
		}
	}
	return max, found, nil
}

func (s *stubConfig) DayPolicy(ctx context.Context, regionID string) (domain.DayPolicy, error) {
	if s.err != nil {
		return domain.DayPolicy{}, s.err
	}
	return s.policies[regionID], nil
}

type stubBookings struct {
	bookings   []*domain.Booking
	err        error
	gotRegions []string
	gotFrom    time.Time
	gotTo      time.Time
}

func (s *stubBookings) Save(ctx context.Context, b *domain.Booking) error {
	s.bookings = append(s.bookings, b)
	return nil
}

func (s *stubBookings) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	for _, b := range s.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, domain.ErrBookingNotFound
}

func (s *stubBookings) FindUnfilledInWindow(ctx context.Context, regionIDs []string, from, to time.Time) ([]*domain.Booking, error) {
	s.gotRegions, s.gotFrom, s.gotTo = regionIDs, from, to
	if s.err != nil {
		return nil, s.err
	}
	return s.bookings, nil
}

type stubRecommender struct {
	rec   domain.Recommendation
	err   error
	calls int
}

func (s *stubRecommender) Recommend(ctx context.Context, b *domain.Booking, arrival domain.ArrivalType) (domain.Recommendation, error) {
	s.calls++
	return s.rec, s.err
}

type txKey struct{}

// recordingUnitOfWork tags each context it begins with a transaction number.
type recordingUnitOfWork struct {
	begun      int
	committed  int
	rolledBack int
}

func (u *recordingUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.begun++
	return context.WithValue(ctx, txKey{}, u.begun), nil
}

func (u *recordingUnitOfWork) Commit(ctx context.Context) error {
	u.committed++
	return nil
}

func (u *recordingUnitOfWork) Rollback(ctx context.Context) error {
	u.rolledBack++
	return nil
}

func txOf(ctx context.Context) int {
	n, _ := ctx.Value(txKey{}).(int)
	return n
}

type stubOutcomes struct {
	entries []domain.OutcomeEntry
	txs     []int
	err     error
}

func (s *stubOutcomes) Append(ctx context.Context, entry domain.OutcomeEntry) error {
	s.txs = append(s.txs, txOf(ctx))
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

type stubRefunds struct {
	cents int64
	err   error
}

func (s *stubRefunds) Refund(ctx context.Context, b *domain.Booking, reason domain.Reason) (int64, error) {
	return s.cents, s.err
}

type stubTrigger struct {
	result domain.TriggerResult
	err    error
	got    []domain.CancellationRequest
	txs    []int
}

func (s *stubTrigger) Trigger(ctx context.Context, req domain.CancellationRequest) (domain.TriggerResult, error) {
	s.got = append(s.got, req)
	s.txs = append(s.txs, txOf(ctx))
	return s.result, s.err
}

type stubRecords struct {
	records []domain.CancellationRecord
	txs     []int
	err     error
}

func (s *stubRecords) Save(ctx context.Context, r domain.CancellationRecord) error {
	s.txs = append(s.txs, txOf(ctx))
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, r)
	return nil
}

func (s *stubRecords) ListByBooking(ctx context.Context, id uuid.UUID) ([]domain.CancellationRecord, error) {
	return s.records, nil
}

type stubNotifier struct {
	notified []uuid.UUID
	err      error
}

func (s *stubNotifier) NotifyAutoCanceled(ctx context.Context, b *domain.Booking, message string) error {
	s.notified = append(s.notified, b.ID)
	return s.err
}

var errBoom = errors.New("boom")

func at(layout string) time.Time {
	t, err := time.Parse(time.RFC3339, layout)
	if err != nil {
		panic(err)
	}
	return t
}

func unfilledBooking(start time.Time) *domain.Booking {
	return &domain.Booking{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		RegionID:  "us-east",
		ServiceID: "cleaning",
		Start:     start,
		Status:    domain.BookingStatusConfirmed,
	}
}

func usRegion() *domain.Region {
	return &domain.Region{ID: "us-east", CountryCode: "US", Timezone: "UTC", AutoEnabled: true}
}
