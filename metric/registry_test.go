package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidex/rescache/errors"
)

func testCounter(name string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rescache",
		Subsystem: "test",
		Name:      name,
		Help:      "test counter",
	})
}

func testGauge(name string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rescache",
		Subsystem: "test",
		Name:      name,
		Help:      "test gauge",
	})
}

func TestRegisterCounter(t *testing.T) {
	r := NewMetricsRegistry()

	err := r.RegisterCounter("categories", "hits_total", testCounter("hits_total"))
	require.NoError(t, err)

	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, fam := range families {
		if fam.GetName() == "rescache_test_hits_total" {
			found = true
		}
	}
	assert.True(t, found, "registered counter should be gatherable")
}

func TestRegisterDuplicateRejected(t *testing.T) {
	r := NewMetricsRegistry()

	require.NoError(t, r.RegisterCounter("categories", "hits_total", testCounter("hits_total")))

	err := r.RegisterCounter("categories", "hits_total", testCounter("hits_total_other"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestSameMetricNameDifferentComponents(t *testing.T) {
	r := NewMetricsRegistry()

	c1 := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rescache", Subsystem: "a", Name: "hits_total", Help: "h",
	})
	c2 := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rescache", Subsystem: "b", Name: "hits_total", Help: "h",
	})

	require.NoError(t, r.RegisterCounter("a", "hits_total", c1))
	require.NoError(t, r.RegisterCounter("b", "hits_total", c2))
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	r := NewMetricsRegistry()

	require.NoError(t, r.RegisterGauge("categories", "size", testGauge("size")))

	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rescache", Subsystem: "test", Name: "load_seconds", Help: "h",
	})
	require.NoError(t, r.RegisterHistogram("categories", "load_seconds", h))
}

func TestUnregister(t *testing.T) {
	r := NewMetricsRegistry()

	require.NoError(t, r.RegisterCounter("categories", "hits_total", testCounter("hits_total")))
	assert.True(t, r.Unregister("categories", "hits_total"))
	assert.False(t, r.Unregister("categories", "hits_total"))

	// Name is free again after unregistration
	require.NoError(t, r.RegisterCounter("categories", "hits_total", testCounter("hits_total")))
}

func TestUnregisterComponent(t *testing.T) {
	r := NewMetricsRegistry()

	require.NoError(t, r.RegisterCounter("categories", "hits_total", testCounter("hits_total")))
	require.NoError(t, r.RegisterGauge("categories", "size", testGauge("size")))
	require.NoError(t, r.RegisterCounter("other", "hits_total", prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rescache", Subsystem: "other", Name: "hits_total", Help: "h",
	})))

	assert.Equal(t, 2, r.UnregisterComponent("categories"))
	assert.Equal(t, 0, r.UnregisterComponent("categories"))
	assert.True(t, r.Unregister("other", "hits_total"))
}

func TestHandlerServesMetrics(t *testing.T) {
	r := NewMetricsRegistry()
	assert.NotNil(t, r.Handler())
}
