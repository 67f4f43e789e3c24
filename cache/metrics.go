package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rapidex/rescache/metric"
)

// cacheMetrics holds Prometheus metrics for cache operations.
type cacheMetrics struct {
	registry *metric.MetricsRegistry
	prefix   string

	// Counter metrics - directly incremented without stats duplication
	hits        prometheus.Counter
	misses      prometheus.Counter
	sets        prometheus.Counter
	deletes     prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter

	// Gauge metrics - updated on operations
	size   prometheus.Gauge
	memory prometheus.Gauge
}

func newCounter(prefix, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "rescache",
		Subsystem:   "cache",
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

// newCacheMetrics creates and registers cache metrics with the provided registry.
func newCacheMetrics(registry *metric.MetricsRegistry, prefix string) (*cacheMetrics, error) {
	m := &cacheMetrics{
		registry:    registry,
		prefix:      prefix,
		hits:        newCounter(prefix, "hits_total", "Total number of cache hits"),
		misses:      newCounter(prefix, "misses_total", "Total number of cache misses"),
		sets:        newCounter(prefix, "sets_total", "Total number of cache set operations"),
		deletes:     newCounter(prefix, "deletes_total", "Total number of explicit invalidations"),
		evictions:   newCounter(prefix, "evictions_total", "Total number of capacity evictions"),
		expirations: newCounter(prefix, "expirations_total", "Total number of TTL expiry removals"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "rescache",
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of entries in cache",
		}),
		memory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "rescache",
			Subsystem:   "cache",
			Name:        "memory_bytes",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Estimated memory usage of cached values in bytes",
		}),
	}

	counters := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"cache_hits", m.hits},
		{"cache_misses", m.misses},
		{"cache_sets", m.sets},
		{"cache_deletes", m.deletes},
		{"cache_evictions", m.evictions},
		{"cache_expirations", m.expirations},
	}
	for _, c := range counters {
		if err := registry.RegisterCounter(prefix, c.name, c.counter); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(prefix, "cache_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "cache_memory_bytes", m.memory); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *cacheMetrics) recordHit()        { m.hits.Inc() }
func (m *cacheMetrics) recordMiss()       { m.misses.Inc() }
func (m *cacheMetrics) recordSet()        { m.sets.Inc() }
func (m *cacheMetrics) recordDelete()     { m.deletes.Inc() }
func (m *cacheMetrics) recordEviction()   { m.evictions.Inc() }
func (m *cacheMetrics) recordExpiration() { m.expirations.Inc() }

func (m *cacheMetrics) updateSize(size int) {
	m.size.Set(float64(size))
}

func (m *cacheMetrics) updateMemory(bytes int64) {
	m.memory.Set(float64(bytes))
}

// unregister removes every metric this instance registered. Called on Close
// so a recreated cache can register under the same prefix.
func (m *cacheMetrics) unregister() {
	m.registry.UnregisterComponent(m.prefix)
}
