// Package metric manages Prometheus metric registration for rescache.
//
// # Overview
//
// MetricsRegistry wraps a private prometheus.Registry and tracks every
// collector under a "component.metric" key, so two cache instances can
// export the same metric names without colliding and a closed instance
// can unregister everything it owns in one call.
//
// The registry always includes the Go runtime and process collectors.
//
// # Usage
//
//	reg := metric.NewMetricsRegistry()
//	c, _ := cache.New[[]byte](cache.DefaultConfig(),
//	    cache.WithMetrics[[]byte](reg, "categories"))
//
//	http.Handle("/metrics", reg.Handler())
//
// Registration failures are classified: duplicate registration is an
// invalid error (caller bug), a Prometheus-level failure is fatal.
package metric
