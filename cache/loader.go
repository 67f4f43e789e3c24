package cache

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// LoadFunc fetches a value for a key on a cache miss. It is supplied by
// the data-loading layer; the cache never performs network I/O itself.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// GetOrLoad returns the cached value for key, or runs load and caches the
// result. Concurrent calls for the same key collapse into a single load;
// the losers share the winner's result. A load failure is returned
// unchanged and nothing is cached.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load LoadFunc[V], options ...EntryOption) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	result, err, _ := c.loads.Do(key, func() (any, error) {
		// A concurrent flight may have filled the entry already
		if value, ok := c.Get(key); ok {
			return value, nil
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(key, value, options...); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// warmConcurrency bounds parallel warmup loads.
const warmConcurrency = 4

// Warm pre-populates the cache for keys that are not already present,
// loading at most warmConcurrency keys in parallel. Present keys are
// skipped without touching hit/miss accounting. The first load error
// cancels the remaining loads and is returned.
func (c *Cache[V]) Warm(ctx context.Context, keys []string, load func(ctx context.Context, key string) (V, error), options ...EntryOption) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)

	for _, key := range keys {
		if c.contains(key) {
			continue
		}
		g.Go(func() error {
			_, err := c.GetOrLoad(ctx, key, func(ctx context.Context) (V, error) {
				return load(ctx, key)
			}, options...)
			return err
		})
	}

	return g.Wait()
}
