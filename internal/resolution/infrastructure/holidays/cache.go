package holidays

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "autoresolve:holidays"

// CacheStore is the key-value store behind a CachedSource.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCacheStore stores cache entries in Redis.
type RedisCacheStore struct {
	client *redis.Client
}

// NewRedisCacheStore creates a Redis-backed cache store.
func NewRedisCacheStore(client *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{client: client}
}

// Get returns the value for key; found is false on a miss.
func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value under key.
func (s *RedisCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// CachedSource caches lookups of one named source. Cache failures degrade to
// direct lookups. Wrap single sources only: a union answers with members down
// and that partial day must not be stored.
type CachedSource struct {
	name    string
	inner   domain.HolidaySource
	store   CacheStore
	ttl     time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewCachedSource wraps inner with a cache keyed by the source name.
func NewCachedSource(name string, inner domain.HolidaySource, store CacheStore, ttl time.Duration, metrics observability.Metrics, logger *slog.Logger) *CachedSource {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{name: name, inner: inner, store: store, ttl: ttl, metrics: metrics, logger: logger}
}

type cachedHoliday struct {
	Date     string `json:"date"`
	Name     string `json:"name"`
	Observed bool   `json:"observed"`
}

// ObservedHolidays returns cached holidays or looks them up and caches them.
func (s *CachedSource) ObservedHolidays(ctx context.Context, date time.Time, country string) ([]domain.Holiday, error) {
	country = domain.NormalizeCountry(country)
	day := domain.CivilDate(date)
	key := fmt.Sprintf("%s:%s:%s:%s", cacheKeyPrefix, s.name, country, day.Format(time.DateOnly))

	data, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("holiday cache read failed", "key", key, "error", err)
	} else if found {
		if hs, err := decodeCached(data, country); err == nil {
			s.metrics.Counter(observability.MetricHolidayLookups, 1, observability.T("cache", "hit"), observability.T("source", s.name))
			return hs, nil
		}
	}
	s.metrics.Counter(observability.MetricHolidayLookups, 1, observability.T("cache", "miss"), observability.T("source", s.name))

	hs, err := s.inner.ObservedHolidays(ctx, day, country)
	if err != nil {
		return nil, err
	}

	if encoded, err := encodeCached(hs); err == nil {
		if err := s.store.Set(ctx, key, encoded, s.ttl); err != nil {
			s.logger.Warn("holiday cache write failed", "key", key, "error", err)
		}
	}
	return hs, nil
}

func encodeCached(hs []domain.Holiday) ([]byte, error) {
	out := make([]cachedHoliday, 0, len(hs))
	for _, h := range hs {
		out = append(out, cachedHoliday{
			Date:     h.Date.Format(time.DateOnly),
			Name:     h.Name,
			Observed: h.Observed,
		})
	}
	return json.Marshal(out)
}

func decodeCached(data []byte, country string) ([]domain.Holiday, error) {
	var cached []cachedHoliday
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, errors.New("empty cache entry")
	}
	out := make([]domain.Holiday, 0, len(cached))
	for _, c := range cached {
		d, err := time.Parse(time.DateOnly, c.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Holiday{Date: d, Name: c.Name, Country: country, Observed: c.Observed})
	}
	return out, nil
}
