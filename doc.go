// Package rescache provides a bounded, TTL-based in-process cache for
// RapidEx establishment data (categories, category lists, filtered views).
//
// # Architecture
//
// The module is built from small, composable packages:
//
//	┌─────────────────────────────────────┐
//	│            catalog                  │  RapidEx keys, Category model,
//	│  (typed wrapper, key builders)      │  establishment-scoped invalidation
//	└─────────────────────────────────────┘
//	           ↓ wraps
//	┌─────────────────────────────────────┐
//	│             cache                   │  Entry store, eviction (LRU/LFU/FIFO),
//	│  (facade, sweeper, persistence,     │  expiry sweep, debounced persistence,
//	│   stats, notifier, loader)          │  hit/miss statistics, change events
//	└─────────────────────────────────────┘
//	           ↓ persists through
//	┌─────────────────────────────────────┐
//	│            storage                  │  Durable key-value primitive
//	│   (memory, file-backed stores)      │  (best effort, quota aware)
//	└─────────────────────────────────────┘
//
// Supporting packages: errors (classified error handling), metric
// (Prometheus registry), pkg/retry (bounded exponential backoff for
// persistence writes).
//
// # Design rules
//
// The cache is an optimization, never a correctness dependency:
//
//   - Get/Set/Invalidate never surface storage failures; persistence
//     errors are logged and the in-memory cache keeps working.
//   - The capacity invariant (size <= max size) always holds. High
//     priority entries are evicted last, not never.
//   - Expired entries are never returned, whether the background sweep
//     has run or not.
//   - Configuration problems are reported as data (ValidationResult),
//     with out-of-range values clamped under a warning.
//
// Callers own the data they cache: on a miss the data-loading layer
// fetches from the RapidEx API and calls Set, or uses GetOrLoad to
// collapse concurrent fetches for the same key.
package rescache
