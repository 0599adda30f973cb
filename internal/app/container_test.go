package app

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/commands"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/queries"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/services"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/infrastructure/persistence"
	"github.com/felixgeelhaar/autoresolve/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:               "development",
		DatabaseDriver:       "sqlite",
		SQLitePath:           filepath.Join(t.TempDir(), "autoresolve.db"),
		OutboxPollInterval:   time.Second,
		OutboxBatchSize:      100,
		OutboxMaxRetries:     3,
		DefaultWindowMinutes: 1440,
		DefaultMaxAttempts:   2,
		ResolverInterval:     time.Minute,
		ResolverConcurrency:  2,
		HolidaySources:       []string{"rules"},
	}
}

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	c, err := NewContainer(context.Background(), testConfig(t), slog.Default())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewContainer_LocalMode(t *testing.T) {
	c := newTestContainer(t)

	assert.NotNil(t, c.DB)
	assert.NotNil(t, c.Repos)
	assert.Nil(t, c.RedisClient)
	assert.Nil(t, c.RecommenderClient)
	assert.Same(t, c.InProcessEventBus, c.EventPublisher)
	assert.NotNil(t, c.RunBatchHandler)
	assert.NotNil(t, c.ResolutionWorker)

	report := c.Health.Check(context.Background())
	assert.Equal(t, "healthy", string(report.Status))

	applied, err := c.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied, "migrations ran on start")
}

func TestNewContainer_UnknownHolidaySource(t *testing.T) {
	cfg := testConfig(t)
	cfg.HolidaySources = []string{"almanac"}

	_, err := NewContainer(context.Background(), cfg, slog.Default())
	assert.ErrorContains(t, err, "almanac")
}

func TestContainer_BatchEndToEnd(t *testing.T) {
	c := newTestContainer(t)
	ctx := context.Background()

	require.NoError(t, c.Repos.Regions.SaveRegion(ctx, &domain.Region{
		ID:          "nyc",
		Name:        "New York",
		CountryCode: "US",
		Timezone:    "UTC",
		AutoEnabled: true,
	}))

	// Monday morning; both bookings start the same afternoon.
	ref := time.Date(2025, time.November, 17, 9, 0, 0, 0, time.UTC)
	start := time.Date(2025, time.November, 17, 15, 0, 0, 0, time.UTC)

	fresh := &domain.Booking{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		RegionID:  "nyc",
		ServiceID: "cleaning",
		Start:     start,
		Status:    domain.BookingStatusConfirmed,
	}
	exhausted := &domain.Booking{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		RegionID:           "nyc",
		ServiceID:          "cleaning",
		Start:              start,
		Status:             domain.BookingStatusConfirmed,
		PriceCents:         8000,
		RescheduleAttempts: 2,
	}
	require.NoError(t, c.Repos.Bookings.Save(ctx, fresh))
	require.NoError(t, c.Repos.Bookings.Save(ctx, exhausted))

	candidates, err := c.ListCandidatesHandler.Handle(ctx, queries.ListCandidatesQuery{ReferenceTime: ref})
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	result, err := c.RunBatchHandler.Handle(ctx, commands.RunBatchCommand{ReferenceTime: ref})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Selected)
	assert.Equal(t, 1, result.Counts[domain.ResolutionRescheduled])
	assert.Equal(t, 1, result.Counts[domain.ResolutionCancelled])
	assert.Zero(t, result.Errors)

	// Tuesday is the first open weekday after Monday.
	moved, err := c.Repos.Bookings.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, moved.Start.Equal(start.AddDate(0, 0, 1)))
	assert.Equal(t, 1, moved.RescheduleAttempts)

	cancelled, err := c.Repos.Bookings.FindByID(ctx, exhausted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)

	records, err := c.Repos.Cancellations.ListByBooking(ctx, exhausted.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(8000), records[0].RefundCents)

	entries, err := c.ListOutcomesHandler.Handle(ctx, queries.ListOutcomesQuery{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	pending, err := c.Repos.Outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, pending, "rescheduled, canceled and notification events")

	require.NoError(t, c.OutboxProcessor.ProcessOnce(ctx))
	pending, err = c.Repos.Outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Equal(t, uint64(3), c.OutboxProcessor.GetStats().PublishedCount)
}

func TestContainer_CheckBlackout(t *testing.T) {
	c := newTestContainer(t)

	result, err := c.CheckBlackoutHandler.Handle(context.Background(), queries.CheckBlackoutQuery{
		Date:    time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC),
		Country: "US",
	})
	require.NoError(t, err)
	assert.True(t, result.Blackout)
}

type failingOutcomes struct{}

func (failingOutcomes) Append(context.Context, domain.OutcomeEntry) error {
	return errOutcomeStore
}

var errOutcomeStore = errors.New("outcome store unavailable")

func TestContainer_CancellationRollsBackWithoutOutcome(t *testing.T) {
	c := newTestContainer(t)
	ctx := context.Background()

	b := &domain.Booking{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		RegionID:   "nyc",
		ServiceID:  "cleaning",
		Start:      time.Date(2025, time.November, 17, 15, 0, 0, 0, time.UTC),
		Status:     domain.BookingStatusConfirmed,
		PriceCents: 8000,
	}
	require.NoError(t, c.Repos.Bookings.Save(ctx, b))

	exec := services.NewCancellationExecutor(
		c.Repos.UnitOfWork,
		persistence.FullRefundCalculator{},
		c.Trigger,
		c.Repos.Cancellations,
		failingOutcomes{},
		nil, nil, nil,
	)
	_, err := exec.Cancel(ctx, b, domain.ReasonNoSlotAvailable, "no slot")
	require.ErrorIs(t, err, errOutcomeStore)

	current, err := c.Repos.Bookings.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, current.Status, "still unfilled for the next pass")

	records, err := c.Repos.Cancellations.ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	pending, err := c.Repos.Outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}
