package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricResolutions, 1, T("kind", "cancelled"))
	m.Counter(MetricResolutions, 2, T("kind", "cancelled"))
	m.Counter(MetricResolutions, 1, T("kind", "rescheduled"))
	m.Gauge(MetricBatchSize, 4)
	m.Timing(MetricBatchDuration, 1500*time.Millisecond)

	assert.Equal(t, int64(3), m.GetCounter(MetricResolutions, T("kind", "cancelled")))
	assert.Equal(t, int64(1), m.GetCounter(MetricResolutions, T("kind", "rescheduled")))
	assert.Equal(t, 4.0, m.GetGauge(MetricBatchSize))
	assert.Len(t, m.GetTimings(MetricBatchDuration), 1)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Counters["autoresolve.resolutions:kind=cancelled"])
	assert.Equal(t, int64(1500), snap.TimingsMs[MetricBatchDuration])
}

func TestFormatKey_TagOrderIndependent(t *testing.T) {
	a := formatKey("x", []Tag{T("b", "2"), T("a", "1")})
	b := formatKey("x", []Tag{T("a", "1"), T("b", "2")})
	assert.Equal(t, a, b)
}

func TestHealthRegistry(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return nil }))

	assert.Equal(t, HealthStatusHealthy, r.Check(context.Background()).Status)

	r.Register("redis", PingChecker("redis", HealthStatusDegraded, func(context.Context) error {
		return errors.New("connection refused")
	}))
	health := r.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, health.Status)
	assert.Contains(t, health.Checks["redis"].Message, "connection refused")

	r.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error {
		return errors.New("down")
	}))
	assert.Equal(t, HealthStatusUnhealthy, r.Check(context.Background()).Status)
}
