package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rapidex/rescache/metric"
	"github.com/rapidex/rescache/pkg/retry"
	"github.com/rapidex/rescache/storage"
)

// SizeEstimator computes the estimated serialized size of a value in
// bytes. Used for the memory usage statistic and the advisory memory
// limit.
type SizeEstimator[V any] func(V) int64

// Option configures cache behavior using the functional options pattern.
type Option[V any] func(*cacheOptions[V])

// cacheOptions holds internal configuration for cache instances.
// Stats are ALWAYS collected - they are not optional.
// Metrics are optional and exposed via WithMetrics().
type cacheOptions[V any] struct {
	logger *slog.Logger
	clock  func() time.Time
	store  storage.Store

	// metricsReg is optional - if provided, cache stats are also exposed
	// as Prometheus metrics
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string

	sizeOf        SizeEstimator[V]
	evictCallback EvictCallback[V]
	retryCfg      retry.Config
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(opts *cacheOptions[V]) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithClock overrides the time source. Tests use it to make TTL expiry
// deterministic.
func WithClock[V any](clock func() time.Time) Option[V] {
	return func(opts *cacheOptions[V]) {
		if clock != nil {
			opts.clock = clock
		}
	}
}

// WithStore supplies the durable storage backend the persistence adapter
// writes through. Required when Config.PersistToStorage is true.
func WithStore[V any](store storage.Store) Option[V] {
	return func(opts *cacheOptions[V]) {
		opts.store = store
	}
}

// WithMetrics enables Prometheus metrics export for cache statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[V any](registry *metric.MetricsRegistry, prefix string) Option[V] {
	return func(opts *cacheOptions[V]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithSizeEstimator overrides the default JSON-length size estimator.
func WithSizeEstimator[V any](fn SizeEstimator[V]) Option[V] {
	return func(opts *cacheOptions[V]) {
		if fn != nil {
			opts.sizeOf = fn
		}
	}
}

// WithEvictionCallback sets a callback invoked when entries are evicted
// under capacity pressure.
func WithEvictionCallback[V any](callback EvictCallback[V]) Option[V] {
	return func(opts *cacheOptions[V]) {
		opts.evictCallback = callback
	}
}

// WithPersistRetry overrides the retry policy for persistence writes.
func WithPersistRetry[V any](cfg retry.Config) Option[V] {
	return func(opts *cacheOptions[V]) {
		opts.retryCfg = cfg
	}
}

// applyOptions applies functional options to create final cache configuration.
func applyOptions[V any](options ...Option[V]) *cacheOptions[V] {
	opts := &cacheOptions[V]{
		logger:   slog.Default(),
		clock:    time.Now,
		sizeOf:   jsonSize[V],
		retryCfg: retry.Storage(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}

// jsonSize estimates a value's footprint as the length of its JSON
// encoding. Unencodable values count as zero.
func jsonSize[V any](value V) int64 {
	data, err := json.Marshal(value)
	if err != nil {
		return 0
	}
	return int64(len(data))
}
