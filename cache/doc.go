// Package cache implements a bounded, TTL-based cache with pluggable
// eviction, tag invalidation, best-effort persistence, and built-in
// statistics.
//
// # Cache behavior
//
//   - Capacity: at most Config.MaxSize entries exist at any time. A Set
//     that pushes the store over capacity evicts victims (one per
//     violation) until the invariant holds again.
//   - Eviction: LRU by default; LFU and FIFO are selectable via
//     configuration. High priority entries are considered only when
//     nothing else remains - the capacity invariant is never compromised
//     for priority.
//   - Expiry: an entry's effective TTL is its TTL scaled by a per-priority
//     multiplier. Get checks expiry lazily and a background sweep removes
//     the rest on Config.CleanupInterval, so stale data is never returned
//     regardless of sweep timing.
//   - Persistence: entries at or above Config.PersistPriority are written
//     through a storage.Store on a debounced schedule and restored on
//     startup. Every storage failure is logged and swallowed; the
//     in-memory cache never depends on storage working.
//   - Statistics: hit/miss counters, hit rate, a serialized-size memory
//     estimate and the most accessed entry are always collected; Clear
//     resets them. Prometheus export is optional via WithMetrics.
//
// # Usage
//
//	c, err := cache.New[[]catalog.Category](ctx, cache.DefaultConfig(),
//	    cache.WithStore[[]catalog.Category](store),
//	    cache.WithMetrics[[]catalog.Category](registry, "categories"),
//	)
//	if err != nil { ... }
//	defer c.Close()
//
//	err = c.Set(key, categories,
//	    cache.WithTags("establishment-1", "category-list"),
//	    cache.WithPriority(cache.PriorityHigh),
//	)
//
//	if cats, ok := c.Get(key); ok { ... }
//
// On a miss the data-loading layer fetches and calls Set, or uses
// GetOrLoad to collapse concurrent fetches for the same key.
package cache
