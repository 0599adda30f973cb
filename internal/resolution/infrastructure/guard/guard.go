// Package guard detects bookings resolved concurrently with a batch pass.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ProviderGuard re-reads the booking and reports it resolved once it is no
// longer an unfilled confirmed booking.
type ProviderGuard struct {
	bookings domain.BookingRepository
}

// NewProviderGuard creates a guard over the booking store.
func NewProviderGuard(bookings domain.BookingRepository) *ProviderGuard {
	return &ProviderGuard{bookings: bookings}
}

// AlreadyResolved implements domain.RaceGuard.
func (g *ProviderGuard) AlreadyResolved(ctx context.Context, booking *domain.Booking) (bool, error) {
	current, err := g.bookings.FindByID(ctx, booking.ID)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reload booking: %w", err)
	}
	return !current.IsUnfilled(), nil
}

// LockStore takes short-lived exclusive locks. A lock is owned by the token
// that took it.
type LockStore interface {
	// Acquire returns false when the key is already held.
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Release drops the lock if token still owns it.
	Release(ctx context.Context, key, token string) error
}

// releaseScript deletes the key only while it still holds the caller's token,
// so an expired lock retaken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLockStore takes locks with SET NX.
type RedisLockStore struct {
	client *redis.Client
}

// NewRedisLockStore creates a Redis lock store.
func NewRedisLockStore(client *redis.Client) *RedisLockStore {
	return &RedisLockStore{client: client}
}

// Acquire implements LockStore.
func (s *RedisLockStore) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, token, ttl).Result()
}

// Release implements LockStore.
func (s *RedisLockStore) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, s.client, []string{key}, token).Err()
}

// InflightGuard reports a booking resolved when another resolver instance
// already holds its in-flight lock. The lock is held until Release, or until
// ttl if the holder dies first.
type InflightGuard struct {
	locks LockStore
	ttl   time.Duration

	mu     sync.Mutex
	tokens map[uuid.UUID]string
}

// NewInflightGuard creates an in-flight guard.
func NewInflightGuard(locks LockStore, ttl time.Duration) *InflightGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &InflightGuard{locks: locks, ttl: ttl, tokens: make(map[uuid.UUID]string)}
}

// AlreadyResolved implements domain.RaceGuard.
func (g *InflightGuard) AlreadyResolved(ctx context.Context, booking *domain.Booking) (bool, error) {
	token := uuid.NewString()
	acquired, err := g.locks.Acquire(ctx, inflightKey(booking), token, g.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire in-flight lock: %w", err)
	}
	if !acquired {
		return true, nil
	}
	g.mu.Lock()
	g.tokens[booking.ID] = token
	g.mu.Unlock()
	return false, nil
}

// Release implements domain.RaceGuardReleaser. It is a no-op when this guard
// holds no lock for the booking.
func (g *InflightGuard) Release(ctx context.Context, booking *domain.Booking) error {
	g.mu.Lock()
	token, ok := g.tokens[booking.ID]
	delete(g.tokens, booking.ID)
	g.mu.Unlock()
	if !ok {
		return nil
	}
	if err := g.locks.Release(ctx, inflightKey(booking), token); err != nil {
		return fmt.Errorf("release in-flight lock: %w", err)
	}
	return nil
}

func inflightKey(b *domain.Booking) string {
	return "autoresolve:inflight:" + b.ID.String()
}

// Chain asks each guard in order and stops at the first that reports the
// booking resolved.
type Chain []domain.RaceGuard

// AlreadyResolved implements domain.RaceGuard.
func (c Chain) AlreadyResolved(ctx context.Context, booking *domain.Booking) (bool, error) {
	for _, g := range c {
		resolved, err := g.AlreadyResolved(ctx, booking)
		if err != nil || resolved {
			return resolved, err
		}
	}
	return false, nil
}

// Release implements domain.RaceGuardReleaser for every member that holds
// state.
func (c Chain) Release(ctx context.Context, booking *domain.Booking) error {
	var errs []error
	for _, g := range c {
		if r, ok := g.(domain.RaceGuardReleaser); ok {
			if err := r.Release(ctx, booking); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
