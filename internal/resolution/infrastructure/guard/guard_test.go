package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBookings struct {
	booking *domain.Booking
	err     error
}

func (s *stubBookings) Save(context.Context, *domain.Booking) error { return nil }

func (s *stubBookings) FindByID(context.Context, uuid.UUID) (*domain.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookings) FindUnfilledInWindow(context.Context, []string, time.Time, time.Time) ([]*domain.Booking, error) {
	return nil, nil
}

type memoryLocks struct {
	held map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemoryLocks() *memoryLocks {
	return &memoryLocks{held: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryLocks) Acquire(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.held[key]; ok {
		return false, nil
	}
	m.held[key] = token
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryLocks) Release(_ context.Context, key, token string) error {
	if m.err != nil {
		return m.err
	}
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

type fixedGuard struct {
	resolved bool
	err      error
	calls    int
}

func (g *fixedGuard) AlreadyResolved(context.Context, *domain.Booking) (bool, error) {
	g.calls++
	return g.resolved, g.err
}

func unfilled() *domain.Booking {
	return &domain.Booking{ID: uuid.New(), Status: domain.BookingStatusConfirmed}
}

func TestProviderGuard(t *testing.T) {
	provider := uuid.New()

	tests := []struct {
		name    string
		current *domain.Booking
		err     error
		want    bool
		wantErr bool
	}{
		{name: "still unfilled", current: unfilled(), want: false},
		{name: "provider accepted", current: &domain.Booking{Status: domain.BookingStatusConfirmed, ProviderID: &provider}, want: true},
		{name: "cancelled meanwhile", current: &domain.Booking{Status: domain.BookingStatusCancelled}, want: true},
		{name: "deleted", err: domain.ErrBookingNotFound, want: true},
		{name: "store error", err: errors.New("db down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewProviderGuard(&stubBookings{booking: tt.current, err: tt.err})
			resolved, err := g.AlreadyResolved(context.Background(), unfilled())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resolved)
		})
	}
}

func TestInflightGuard(t *testing.T) {
	locks := newMemoryLocks()
	g := NewInflightGuard(locks, time.Minute)
	b := unfilled()

	resolved, err := g.AlreadyResolved(context.Background(), b)
	require.NoError(t, err)
	assert.False(t, resolved)
	assert.Equal(t, time.Minute, locks.ttls["autoresolve:inflight:"+b.ID.String()])

	resolved, err = g.AlreadyResolved(context.Background(), b)
	require.NoError(t, err)
	assert.True(t, resolved)

	resolved, err = g.AlreadyResolved(context.Background(), unfilled())
	require.NoError(t, err)
	assert.False(t, resolved)
}

func TestInflightGuard_ReleaseFreesTheBooking(t *testing.T) {
	locks := newMemoryLocks()
	g := NewInflightGuard(locks, time.Minute)
	b := unfilled()
	ctx := context.Background()

	resolved, err := g.AlreadyResolved(ctx, b)
	require.NoError(t, err)
	require.False(t, resolved)

	require.NoError(t, g.Release(ctx, b))
	assert.Empty(t, locks.held)

	resolved, err = g.AlreadyResolved(ctx, b)
	require.NoError(t, err)
	assert.False(t, resolved, "a finished booking is free for the next pass")
}

func TestInflightGuard_ReleaseLeavesForeignLocks(t *testing.T) {
	locks := newMemoryLocks()
	b := unfilled()
	key := "autoresolve:inflight:" + b.ID.String()
	locks.held[key] = "other-instance"
	g := NewInflightGuard(locks, time.Minute)

	resolved, err := g.AlreadyResolved(context.Background(), b)
	require.NoError(t, err)
	assert.True(t, resolved)

	require.NoError(t, g.Release(context.Background(), b))
	assert.Equal(t, "other-instance", locks.held[key])
}

func TestInflightGuard_ReleaseChecksToken(t *testing.T) {
	locks := newMemoryLocks()
	g := NewInflightGuard(locks, time.Minute)
	b := unfilled()
	key := "autoresolve:inflight:" + b.ID.String()

	_, err := g.AlreadyResolved(context.Background(), b)
	require.NoError(t, err)

	// The lock expired and another instance took it.
	locks.held[key] = "other-instance"
	require.NoError(t, g.Release(context.Background(), b))
	assert.Equal(t, "other-instance", locks.held[key])
}

func TestInflightGuard_LockError(t *testing.T) {
	g := NewInflightGuard(&memoryLocks{err: errors.New("redis down")}, 0)
	_, err := g.AlreadyResolved(context.Background(), unfilled())
	assert.Error(t, err)
}

func TestInflightGuard_RedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	g := NewInflightGuard(NewRedisLockStore(client), time.Minute)
	_, err := g.AlreadyResolved(context.Background(), unfilled())
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	t.Run("stops at first resolved", func(t *testing.T) {
		first := &fixedGuard{resolved: true}
		second := &fixedGuard{}
		resolved, err := Chain{first, second}.AlreadyResolved(context.Background(), unfilled())
		require.NoError(t, err)
		assert.True(t, resolved)
		assert.Equal(t, 0, second.calls)
	})

	t.Run("stops at first error", func(t *testing.T) {
		first := &fixedGuard{err: errors.New("boom")}
		second := &fixedGuard{}
		_, err := Chain{first, second}.AlreadyResolved(context.Background(), unfilled())
		assert.Error(t, err)
		assert.Equal(t, 0, second.calls)
	})

	t.Run("release reaches stateful members", func(t *testing.T) {
		locks := newMemoryLocks()
		b := unfilled()
		chain := Chain{&fixedGuard{}, NewInflightGuard(locks, time.Minute)}

		resolved, err := chain.AlreadyResolved(context.Background(), b)
		require.NoError(t, err)
		require.False(t, resolved)
		require.Len(t, locks.held, 1)

		var releaser domain.RaceGuardReleaser = chain
		require.NoError(t, releaser.Release(context.Background(), b))
		assert.Empty(t, locks.held)
	})

	t.Run("all clear", func(t *testing.T) {
		first, second := &fixedGuard{}, &fixedGuard{}
		resolved, err := Chain{first, second}.AlreadyResolved(context.Background(), unfilled())
		require.NoError(t, err)
		assert.False(t, resolved)
		assert.Equal(t, 1, second.calls)
	})
}
