package cache

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidex/rescache/metric"
)

func gatherValue(t *testing.T, reg *metric.MetricsRegistry, family, component string) (float64, bool) {
	t.Helper()

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != family {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "component" && label.GetValue() == component {
					if m.GetCounter() != nil {
						return m.GetCounter().GetValue(), true
					}
					if m.GetGauge() != nil {
						return m.GetGauge().GetValue(), true
					}
				}
			}
		}
	}
	return 0, false
}

func newMetricsCache(t *testing.T, prefix string) (*Cache[string], *metric.MetricsRegistry, *fakeClock) {
	t.Helper()

	reg := metric.NewMetricsRegistry()
	clock := newFakeClock()

	c, err := New[string](context.Background(), DefaultConfig(),
		WithClock[string](clock.Now),
		WithMetrics[string](reg, prefix))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, reg, clock
}

func TestMetricsTrackOperations(t *testing.T) {
	c, reg, clock := newMetricsCache(t, "categories")

	require.NoError(t, c.Set("k", "v", WithTTL(time.Minute)))
	c.Get("k")
	c.Get("k")
	c.Get("missing")
	c.Invalidate("k")

	hits, ok := gatherValue(t, reg, "rescache_cache_hits_total", "categories")
	require.True(t, ok, "hits counter not found")
	assert.Equal(t, 2.0, hits)

	misses, _ := gatherValue(t, reg, "rescache_cache_misses_total", "categories")
	assert.Equal(t, 1.0, misses)

	sets, _ := gatherValue(t, reg, "rescache_cache_sets_total", "categories")
	assert.Equal(t, 1.0, sets)

	deletes, _ := gatherValue(t, reg, "rescache_cache_deletes_total", "categories")
	assert.Equal(t, 1.0, deletes)

	// Expiry discovered on read shows up as an expiration, not a delete
	require.NoError(t, c.Set("transient", "v", WithTTL(time.Second)))
	clock.Advance(2 * time.Second)
	c.Get("transient")

	expirations, _ := gatherValue(t, reg, "rescache_cache_expirations_total", "categories")
	assert.Equal(t, 1.0, expirations)
}

func TestMetricsTrackSizeGauge(t *testing.T) {
	c, reg, _ := newMetricsCache(t, "categories")

	require.NoError(t, c.Set("a", "v"))
	require.NoError(t, c.Set("b", "v"))

	size, ok := gatherValue(t, reg, "rescache_cache_size", "categories")
	require.True(t, ok, "size gauge not found")
	assert.Equal(t, 2.0, size)

	memory, ok := gatherValue(t, reg, "rescache_cache_memory_bytes", "categories")
	require.True(t, ok, "memory gauge not found")
	assert.Greater(t, memory, 0.0)

	c.Invalidate("a")
	c.Invalidate("b")

	size, _ = gatherValue(t, reg, "rescache_cache_size", "categories")
	assert.Equal(t, 0.0, size)
}

func TestMetricsEvictionCounter(t *testing.T) {
	reg := metric.NewMetricsRegistry()
	clock := newFakeClock()

	cfg := DefaultConfig()
	cfg.MaxSize = 1
	c, err := New[string](context.Background(), cfg,
		WithClock[string](clock.Now),
		WithMetrics[string](reg, "tiny"))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("a", "v"))
	clock.Advance(time.Millisecond)
	require.NoError(t, c.Set("b", "v"))

	evictions, ok := gatherValue(t, reg, "rescache_cache_evictions_total", "tiny")
	require.True(t, ok)
	assert.Equal(t, 1.0, evictions)
}

func TestMetricsUnregisteredOnClose(t *testing.T) {
	c, reg, _ := newMetricsCache(t, "categories")

	require.NoError(t, c.Close())

	// The prefix is free again: a second cache can register under it
	c2, err := New[string](context.Background(), DefaultConfig(),
		WithMetrics[string](reg, "categories"))
	require.NoError(t, err)
	defer c2.Close()
}

func TestMetricsDuplicatePrefixRejected(t *testing.T) {
	c, reg, _ := newMetricsCache(t, "categories")
	defer c.Close()

	_, err := New[string](context.Background(), DefaultConfig(),
		WithMetrics[string](reg, "categories"))
	require.Error(t, err, "two live caches cannot share a metrics prefix")
}

func TestMetricsHelpText(t *testing.T) {
	c, reg, _ := newMetricsCache(t, "categories")
	_ = c

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "rescache_cache_hits_total" {
			found = mf
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, dto.MetricType_COUNTER, found.GetType())
	assert.NotEmpty(t, found.GetHelp())
}
