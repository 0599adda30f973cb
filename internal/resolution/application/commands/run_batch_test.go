package commands

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/services"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu       sync.Mutex
	seen     []ResolveBookingCommand
	inFlight atomic.Int32
	peak     atomic.Int32
	results  map[uuid.UUID]domain.Resolution
	errs     map[uuid.UUID]error
}

func (r *fakeResolver) Handle(ctx context.Context, cmd ResolveBookingCommand) (domain.Resolution, error) {
	n := r.inFlight.Add(1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	r.inFlight.Add(-1)

	r.mu.Lock()
	r.seen = append(r.seen, cmd)
	r.mu.Unlock()
	return r.results[cmd.Booking.ID], r.errs[cmd.Booking.ID]
}

func batchFixture(n int) (*stubConfig, *stubBookings, time.Time) {
	ref := at("2026-11-04T09:00:00Z")
	cfg := newStubConfig()
	cfg.regions["us-east"] = &domain.Region{ID: "us-east", AutoEnabled: true}
	cfg.windows["us-east/cleaning"] = 120

	repo := &stubBookings{}
	for i := 0; i < n; i++ {
		repo.bookings = append(repo.bookings, &domain.Booking{
			ID:        uuid.New(),
			RegionID:  "us-east",
			ServiceID: "cleaning",
			Start:     ref.Add(time.Hour),
			Status:    domain.BookingStatusConfirmed,
		})
	}
	return cfg, repo, ref
}

func TestRunBatch_ResolvesEveryCandidate(t *testing.T) {
	cfg, repo, ref := batchFixture(6)
	resolver := &fakeResolver{results: map[uuid.UUID]domain.Resolution{}, errs: map[uuid.UUID]error{}}
	for i, b := range repo.bookings {
		if i%2 == 0 {
			resolver.results[b.ID] = domain.Rescheduled(b, b.Start.AddDate(0, 0, 1))
		} else {
			resolver.results[b.ID] = domain.Cancelled(b, domain.TriggerNoSlot, "no slot")
		}
	}
	metrics := observability.NewInMemoryMetrics()
	eval := services.NewEligibilityEvaluator(cfg, repo, 60, nil)

	h := NewRunBatchHandler(eval, resolver, 2, metrics, func() time.Time { return ref }, nil)
	result, err := h.Handle(context.Background(), RunBatchCommand{})
	require.NoError(t, err)

	assert.Equal(t, 6, result.Selected)
	assert.Equal(t, 3, result.Counts[domain.ResolutionRescheduled])
	assert.Equal(t, 3, result.Counts[domain.ResolutionCancelled])
	assert.Len(t, result.Resolutions, 6)
	assert.LessOrEqual(t, resolver.peak.Load(), int32(2))
	assert.Equal(t, int64(3), metrics.GetCounter(observability.MetricResolutions, observability.T("kind", "cancelled")))

	for _, cmd := range resolver.seen {
		assert.True(t, cmd.Now.IsZero(), "live runs let the resolver read its own clock")
	}
}

func TestRunBatch_OneFailureDoesNotAbortTheBatch(t *testing.T) {
	cfg, repo, ref := batchFixture(3)
	resolver := &fakeResolver{results: map[uuid.UUID]domain.Resolution{}, errs: map[uuid.UUID]error{}}
	resolver.errs[repo.bookings[0].ID] = errBoom
	for _, b := range repo.bookings[1:] {
		resolver.results[b.ID] = domain.Rescheduled(b, b.Start.AddDate(0, 0, 1))
	}
	eval := services.NewEligibilityEvaluator(cfg, repo, 60, nil)

	result, err := NewRunBatchHandler(eval, resolver, 4, nil, func() time.Time { return ref }, nil).
		Handle(context.Background(), RunBatchCommand{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 2, result.Counts[domain.ResolutionRescheduled])
	assert.Len(t, resolver.seen, 3)
}

func TestRunBatch_SimulatedReferenceTime(t *testing.T) {
	cfg, repo, ref := batchFixture(1)
	resolver := &fakeResolver{results: map[uuid.UUID]domain.Resolution{}, errs: map[uuid.UUID]error{}}
	eval := services.NewEligibilityEvaluator(cfg, repo, 60, nil)
	h := NewRunBatchHandler(eval, resolver, 1, nil, func() time.Time { return ref.AddDate(-1, 0, 0) }, nil)

	result, err := h.Handle(context.Background(), RunBatchCommand{ReferenceTime: ref})
	require.NoError(t, err)

	assert.Equal(t, ref, result.ReferenceTime)
	require.Len(t, resolver.seen, 1)
	assert.Equal(t, ref, resolver.seen[0].Now)
}

func TestRunBatch_EmptyBatch(t *testing.T) {
	cfg := newStubConfig()
	eval := services.NewEligibilityEvaluator(cfg, &stubBookings{}, 60, nil)
	resolver := &fakeResolver{}

	result, err := NewRunBatchHandler(eval, resolver, 1, nil, nil, nil).Handle(context.Background(), RunBatchCommand{})
	require.NoError(t, err)
	assert.Zero(t, result.Selected)
	assert.Empty(t, resolver.seen)
}
