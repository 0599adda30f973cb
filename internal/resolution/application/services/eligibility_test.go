package services

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCandidate_RequiresConfirmedAndUnfilled(t *testing.T) {
	cfg := newStubConfig()
	eval := NewEligibilityEvaluator(cfg, &stubBookings{}, 120, nil)
	start := at("2026-11-04T10:00:00Z")
	provider := uuid.New()

	unconfirmed := unfilledBooking(start)
	unconfirmed.Status = domain.BookingStatusPending
	filled := unfilledBooking(start)
	filled.ProviderID = &provider

	for _, ref := range []time.Time{start.Add(-time.Hour), start.Add(-time.Minute), start.Add(-48 * time.Hour), start} {
		ok, err := eval.IsCandidate(context.Background(), unconfirmed, ref)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = eval.IsCandidate(context.Background(), filled, ref)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestIsCandidate_WindowBoundaries(t *testing.T) {
	cfg := newStubConfig()
	cfg.windows["us-east/cleaning"] = 120
	eval := NewEligibilityEvaluator(cfg, &stubBookings{}, 1440, nil)
	start := at("2026-11-04T10:00:00Z")
	b := unfilledBooking(start)

	tests := []struct {
		name     string
		ref      time.Time
		expected bool
	}{
		{"window opens", start.Add(-120 * time.Minute), true},
		{"just before window", start.Add(-120*time.Minute - time.Nanosecond), false},
		{"inside window", start.Add(-60 * time.Minute), true},
		{"last instant", start.Add(-time.Nanosecond), true},
		{"exact start excluded", start, false},
		{"after start", start.Add(time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := eval.IsCandidate(context.Background(), b, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestAutoRBUMinutes_FallsBackToDefault(t *testing.T) {
	cfg := newStubConfig()
	cfg.windows["us-east/cleaning"] = 90
	eval := NewEligibilityEvaluator(cfg, &stubBookings{}, 1440, nil)

	m, err := eval.AutoRBUMinutes(context.Background(), "us-east", "cleaning")
	require.NoError(t, err)
	assert.Equal(t, 90, m)

	m, err = eval.AutoRBUMinutes(context.Background(), "us-east", "gardening")
	require.NoError(t, err)
	assert.Equal(t, 1440, m)

	cfg.err = errBoom
	_, err = eval.AutoRBUMinutes(context.Background(), "us-east", "cleaning")
	assert.ErrorIs(t, err, errBoom)
}

func TestSelectBatch(t *testing.T) {
	ref := at("2026-11-04T08:00:00Z")

	t.Run("no auto-enabled regions skips the query", func(t *testing.T) {
		cfg := newStubConfig()
		cfg.regions["us-east"] = &domain.Region{ID: "us-east"}
		repo := &stubBookings{}
		eval := NewEligibilityEvaluator(cfg, repo, 60, nil)

		batch, err := eval.SelectBatch(context.Background(), ref)
		require.NoError(t, err)
		assert.Empty(t, batch)
		assert.Nil(t, repo.gotRegions)
	})

	t.Run("lookahead is max of configured and default", func(t *testing.T) {
		cfg := newStubConfig()
		cfg.regions["us-east"] = usRegion()
		cfg.windows["us-east/cleaning"] = 180
		repo := &stubBookings{}
		eval := NewEligibilityEvaluator(cfg, repo, 60, nil)

		_, err := eval.SelectBatch(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, []string{"us-east"}, repo.gotRegions)
		assert.Equal(t, ref, repo.gotFrom)
		assert.Equal(t, ref.Add(180*time.Minute), repo.gotTo)

		eval = NewEligibilityEvaluator(cfg, repo, 600, nil)
		_, err = eval.SelectBatch(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, ref.Add(600*time.Minute), repo.gotTo)
	})

	t.Run("coarse results are filtered precisely", func(t *testing.T) {
		cfg := newStubConfig()
		cfg.regions["us-east"] = usRegion()
		cfg.windows["us-east/cleaning"] = 180
		cfg.windows["us-east/laundry"] = 30

		inWindow := unfilledBooking(ref.Add(2 * time.Hour))
		shortWindow := unfilledBooking(ref.Add(2 * time.Hour))
		shortWindow.ServiceID = "laundry"
		pending := unfilledBooking(ref.Add(time.Hour))
		pending.Status = domain.BookingStatusPending

		repo := &stubBookings{bookings: []*domain.Booking{inWindow, shortWindow, pending}}
		eval := NewEligibilityEvaluator(cfg, repo, 60, nil)

		batch, err := eval.SelectBatch(context.Background(), ref)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, inWindow.ID, batch[0].ID)
	})

	t.Run("query error propagates", func(t *testing.T) {
		cfg := newStubConfig()
		cfg.regions["us-east"] = usRegion()
		eval := NewEligibilityEvaluator(cfg, &stubBookings{err: errBoom}, 60, nil)

		_, err := eval.SelectBatch(context.Background(), ref)
		assert.ErrorIs(t, err, errBoom)
	})
}
