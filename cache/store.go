package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rapidex/rescache/errors"
)

// Cache is a bounded, TTL-based cache with pluggable eviction and
// best-effort persistence. It is safe for concurrent use.
//
// The capacity invariant (Size() <= Config.MaxSize) holds after every
// Set. Expired entries are never returned: Get checks expiry lazily and
// the background sweep reclaims the rest.
type Cache[V any] struct {
	mu      sync.RWMutex
	cfg     Config
	entries map[string]*Entry[V]

	// memoryUsage sums the size estimates of live entries. Guarded by mu.
	memoryUsage int64

	stats    *Statistics // ALWAYS initialized
	metrics  *cacheMetrics
	notifier *notifier
	persist  *persister
	logger   *slog.Logger
	clock    func() time.Time
	sizeOf   SizeEstimator[V]
	evictFn  EvictCallback[V]

	loads singleflight.Group

	// Background sweep coordination
	shutdown  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache from cfg. Zero fields take defaults and out-of-range
// values are clamped under a logged warning; the only rejected
// configurations are those Validate reports as errors. The background
// sweep stops when ctx is cancelled or Close is called.
func New[V any](ctx context.Context, cfg Config, options ...Option[V]) (*Cache[V], error) {
	cfg, result := cfg.Normalize()
	if !result.Valid() {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "New",
			strings.Join(result.Errors, "; "))
	}

	opts := applyOptions(options...)
	for _, warning := range result.Warnings {
		opts.logger.Warn("cache config adjusted", "detail", warning)
	}

	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *cacheMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "New", "metrics registration")
		}
	}

	c := &Cache[V]{
		cfg:      cfg,
		entries:  make(map[string]*Entry[V]),
		stats:    stats,
		metrics:  metrics,
		notifier: newNotifier(),
		logger:   opts.logger,
		clock:    opts.clock,
		sizeOf:   opts.sizeOf,
		evictFn:  opts.evictCallback,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	if cfg.PersistToStorage {
		if opts.store == nil {
			c.logger.Warn("persistence enabled but no storage backend supplied; persistence disabled")
		} else {
			c.persist = newPersister(opts.store, cfg.StorageKey, cfg.PersistDebounce,
				opts.retryCfg, opts.logger, c.persistSnapshot)
			c.restore()
		}
	}

	go c.run(ctx)

	return c, nil
}

// Get retrieves a value by key. It returns the zero value and false on a
// miss, including when the entry exists but its TTL has elapsed; the
// lazy expiry check removes such entries immediately so stale data is
// never returned between sweeps. Hits update the entry's access metadata.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return zero, false
	}

	now := c.clock()
	if entry.expired(now, c.cfg.TTLMultipliers) {
		c.removeExpiredEntry(key, now)
		c.recordMiss()
		return zero, false
	}

	c.mu.Lock()
	entry, exists = c.entries[key]
	if !exists {
		// Removed between the read and write lock
		c.mu.Unlock()
		c.recordMiss()
		return zero, false
	}
	entry.LastAccessedAt = now
	entry.AccessCount++
	value := entry.Value
	count := entry.AccessCount
	c.mu.Unlock()

	c.stats.Hit()
	c.stats.RecordAccess(key, count)
	if c.metrics != nil {
		c.metrics.recordHit()
	}

	return value, true
}

// Set inserts or overwrites an entry. TTL, priority, and tags default from
// the configuration unless overridden per call. If the insertion pushes
// the store over capacity, victims are evicted until the invariant holds
// again. The only error is an empty key.
func (c *Cache[V]) Set(key string, value V, options ...EntryOption) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrEmptyKey, "cache", "Set", "validate key")
	}

	settings := entrySettings{
		ttl:      c.cfg.DefaultTTL,
		priority: PriorityNormal,
	}
	for _, opt := range options {
		opt(&settings)
	}

	now := c.clock()
	entry := &Entry[V]{
		Key:            key,
		Value:          value,
		CreatedAt:      now,
		LastAccessedAt: now,
		TTL:            settings.ttl,
		Tags:           settings.tags,
		Priority:       settings.priority,
		size:           c.sizeOf(value),
	}

	var evicted []*Entry[V]

	c.mu.Lock()
	if old, exists := c.entries[key]; exists {
		// Overwrite refreshes in place: old metadata is discarded
		c.memoryUsage -= old.size
	}
	c.entries[key] = entry
	c.memoryUsage += entry.size

	for len(c.entries) > c.cfg.MaxSize {
		victimK, ok := victimKey(c.entries, c.cfg.EvictionStrategy)
		if !ok {
			// victimKey fails only on an empty store
			break
		}
		victim := c.entries[victimK]
		delete(c.entries, victimK)
		c.memoryUsage -= victim.size
		evicted = append(evicted, victim)
	}
	size := len(c.entries)
	memory := c.memoryUsage
	c.mu.Unlock()

	c.stats.Set()
	c.stats.UpdateSize(int64(size))
	c.stats.UpdateMemoryUsage(memory)
	if c.metrics != nil {
		c.metrics.recordSet()
		c.metrics.updateSize(size)
		c.metrics.updateMemory(memory)
	}

	for _, victim := range evicted {
		c.stats.Eviction()
		c.stats.DropAccess(victim.Key)
		if c.metrics != nil {
			c.metrics.recordEviction()
		}
		if c.evictFn != nil {
			c.evictFn(victim.Key, victim.Value)
		}
		c.notifier.publish(Event{Type: EventEvict, Key: victim.Key, Tags: victim.Tags, Time: now})
		if c.cfg.Debug {
			c.logger.Debug("cache entry evicted",
				"key", victim.Key,
				"strategy", string(c.cfg.EvictionStrategy),
				"access_count", victim.AccessCount)
		}
	}

	if c.cfg.MaxMemoryUsage > 0 && memory > c.cfg.MaxMemoryUsage {
		c.logger.Warn("cache memory estimate above advisory limit",
			"memory_bytes", memory,
			"limit_bytes", c.cfg.MaxMemoryUsage)
	}

	c.notifier.publish(Event{Type: EventSet, Key: key, Tags: entry.Tags, Time: now})
	c.schedulePersist()

	return nil
}

// Invalidate removes a single entry. It returns true if the key existed;
// invalidating an absent key is a no-op, not an error.
func (c *Cache[V]) Invalidate(key string) bool {
	c.mu.Lock()
	entry, exists := c.entries[key]
	if exists {
		delete(c.entries, key)
		c.memoryUsage -= entry.size
	}
	size := len(c.entries)
	memory := c.memoryUsage
	c.mu.Unlock()

	if !exists {
		return false
	}

	c.stats.Delete()
	c.stats.DropAccess(key)
	c.stats.UpdateSize(int64(size))
	c.stats.UpdateMemoryUsage(memory)
	if c.metrics != nil {
		c.metrics.recordDelete()
		c.metrics.updateSize(size)
		c.metrics.updateMemory(memory)
	}

	c.notifier.publish(Event{Type: EventInvalidate, Key: key, Tags: entry.Tags, Time: c.clock()})
	c.schedulePersist()

	return true
}

// InvalidateByTag removes every entry whose tag set contains tag and
// returns how many were removed. Used to drop all cached data for one
// establishment or one resource kind at once.
func (c *Cache[V]) InvalidateByTag(tag string) int {
	var removed []*Entry[V]

	c.mu.Lock()
	for key, entry := range c.entries {
		if entry.hasTag(tag) {
			delete(c.entries, key)
			c.memoryUsage -= entry.size
			removed = append(removed, entry)
		}
	}
	size := len(c.entries)
	memory := c.memoryUsage
	c.mu.Unlock()

	if len(removed) == 0 {
		return 0
	}

	now := c.clock()
	for _, entry := range removed {
		c.stats.Delete()
		c.stats.DropAccess(entry.Key)
		if c.metrics != nil {
			c.metrics.recordDelete()
		}
		c.notifier.publish(Event{Type: EventInvalidate, Key: entry.Key, Tags: entry.Tags, Time: now})
	}
	c.stats.UpdateSize(int64(size))
	c.stats.UpdateMemoryUsage(memory)
	if c.metrics != nil {
		c.metrics.updateSize(size)
		c.metrics.updateMemory(memory)
	}
	if c.cfg.Debug {
		c.logger.Debug("cache tag invalidation", "tag", tag, "removed", len(removed))
	}

	c.schedulePersist()
	return len(removed)
}

// Clear removes all entries and resets statistics.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry[V])
	c.memoryUsage = 0
	c.mu.Unlock()

	c.stats.Reset()
	if c.metrics != nil {
		c.metrics.updateSize(0)
		c.metrics.updateMemory(0)
	}

	c.notifier.publish(Event{Type: EventClear, Time: c.clock()})
	c.schedulePersist()
}

// Keys returns the keys of all non-expired entries.
func (c *Cache[V]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.clock()
	keys := make([]string, 0, len(c.entries))
	for key, entry := range c.entries {
		if !entry.expired(now, c.cfg.TTLMultipliers) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Size returns the current number of entries. Entries past their TTL but
// not yet swept are included.
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache statistics.
func (c *Cache[V]) Stats() Snapshot {
	snap := c.stats.Summary()
	snap.TotalEntries = int64(c.Size())
	return snap
}

// Subscribe registers a callback for cache change events and returns a
// subscription id for Unsubscribe. Callbacks run synchronously on the
// mutating goroutine and must not block.
func (c *Cache[V]) Subscribe(fn EventFunc) string {
	return c.notifier.subscribe(fn)
}

// SubscribeStats registers a callback for the periodic statistics stream.
// It only fires when Config.StatsInterval is positive.
func (c *Cache[V]) SubscribeStats(fn StatsFunc) string {
	return c.notifier.subscribeStats(fn)
}

// Unsubscribe removes a subscription of either kind.
func (c *Cache[V]) Unsubscribe(id string) bool {
	return c.notifier.unsubscribe(id)
}

// Close stops the background sweep and the persistence debounce timer,
// performing one final synchronous flush so eligible entries survive a
// clean shutdown. Close is idempotent.
func (c *Cache[V]) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.persist != nil {
			c.persist.close()
			c.persist.flushNow()
		}

		close(c.shutdown)

		select {
		case <-c.done:
		case <-time.After(5 * time.Second):
			err = fmt.Errorf("timeout waiting for cache background loop to finish")
		}

		if c.metrics != nil {
			c.metrics.unregister()
		}
	})
	return err
}

// recordMiss tracks a miss in stats and metrics.
func (c *Cache[V]) recordMiss() {
	c.stats.Miss()
	if c.metrics != nil {
		c.metrics.recordMiss()
	}
}

// contains reports key presence without touching access metadata or
// hit/miss accounting. Used by warmup probing.
func (c *Cache[V]) contains(key string) bool {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	return exists && !entry.expired(c.clock(), c.cfg.TTLMultipliers)
}

// removeExpiredEntry deletes key if it is still present and still expired
// at now, recording the expiration.
func (c *Cache[V]) removeExpiredEntry(key string, now time.Time) {
	c.mu.Lock()
	entry, exists := c.entries[key]
	if !exists || !entry.expired(now, c.cfg.TTLMultipliers) {
		c.mu.Unlock()
		return
	}
	delete(c.entries, key)
	c.memoryUsage -= entry.size
	size := len(c.entries)
	memory := c.memoryUsage
	c.mu.Unlock()

	c.stats.Expiration()
	c.stats.DropAccess(key)
	c.stats.UpdateSize(int64(size))
	c.stats.UpdateMemoryUsage(memory)
	if c.metrics != nil {
		c.metrics.recordExpiration()
		c.metrics.updateSize(size)
		c.metrics.updateMemory(memory)
	}
	c.notifier.publish(Event{Type: EventExpire, Key: key, Tags: entry.Tags, Time: now})
}

// schedulePersist arms the debounced persistence write when enabled.
func (c *Cache[V]) schedulePersist() {
	if c.persist != nil {
		c.persist.schedule()
	}
}

// persistSnapshot captures the entries eligible for persistence: at or
// above the configured priority threshold and not expired. Values that
// fail to serialize are skipped, never fatal.
func (c *Cache[V]) persistSnapshot() []persistedEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.clock()
	out := make([]persistedEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		if entry.Priority < c.cfg.PersistPriority {
			continue
		}
		if entry.expired(now, c.cfg.TTLMultipliers) {
			continue
		}
		raw, err := json.Marshal(entry.Value)
		if err != nil {
			c.logger.Warn("cache entry not persistable", "key", entry.Key, "error", err)
			continue
		}
		out = append(out, persistedEntry{
			Key:         entry.Key,
			Value:       raw,
			CreatedAt:   entry.CreatedAt,
			TTL:         entry.TTL,
			AccessCount: entry.AccessCount,
			Tags:        entry.Tags,
			Priority:    entry.Priority,
		})
	}
	return out
}

// restore repopulates the store from the durable record, skipping entries
// whose effective TTL elapsed while the process was down. Access counts
// survive the restart; last-access timestamps restart at CreatedAt since
// access metadata only moves on hits.
func (c *Cache[V]) restore() {
	entries := c.persist.restore()
	if len(entries) == 0 {
		return
	}

	now := c.clock()
	restored := 0

	c.mu.Lock()
	for _, pe := range entries {
		if restored >= c.cfg.MaxSize {
			break
		}
		entry := &Entry[V]{
			Key:            pe.Key,
			CreatedAt:      pe.CreatedAt,
			LastAccessedAt: pe.CreatedAt,
			TTL:            pe.TTL,
			AccessCount:    pe.AccessCount,
			Tags:           pe.Tags,
			Priority:       pe.Priority,
		}
		if entry.expired(now, c.cfg.TTLMultipliers) {
			continue
		}
		var value V
		if err := json.Unmarshal(pe.Value, &value); err != nil {
			c.logger.Warn("persisted cache entry not decodable", "key", pe.Key, "error", err)
			continue
		}
		entry.Value = value
		entry.size = c.sizeOf(value)

		c.entries[entry.Key] = entry
		c.memoryUsage += entry.size
		restored++
	}
	size := len(c.entries)
	memory := c.memoryUsage
	c.mu.Unlock()

	c.stats.UpdateSize(int64(size))
	c.stats.UpdateMemoryUsage(memory)
	if c.metrics != nil {
		c.metrics.updateSize(size)
		c.metrics.updateMemory(memory)
	}

	c.logger.Info("cache state restored",
		"storage_key", c.cfg.StorageKey,
		"restored", restored,
		"skipped", len(entries)-restored)
}
