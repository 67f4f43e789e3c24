package cache

import (
	"context"
	"time"
)

// run is the cache's single background goroutine: it drives the periodic
// expiry sweep and, when enabled, the statistics push stream. It exits on
// context cancellation or Close.
func (c *Cache[V]) run(ctx context.Context) {
	defer close(c.done)

	sweep := time.NewTicker(c.cfg.CleanupInterval)
	defer sweep.Stop()

	var statsC <-chan time.Time
	if c.cfg.StatsInterval > 0 {
		stats := time.NewTicker(c.cfg.StatsInterval)
		defer stats.Stop()
		statsC = stats.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case <-sweep.C:
			c.removeExpired()
		case <-statsC:
			c.notifier.publishStats(c.Stats())
		}
	}
}

// removeExpired scans all entries and removes those past their effective
// expiry. This is additive to the lazy check in Get: the sweep reclaims
// memory from entries nobody reads anymore.
func (c *Cache[V]) removeExpired() {
	now := c.clock()
	var expired []*Entry[V]

	c.mu.Lock()
	for key, entry := range c.entries {
		if entry.expired(now, c.cfg.TTLMultipliers) {
			delete(c.entries, key)
			c.memoryUsage -= entry.size
			expired = append(expired, entry)
		}
	}
	size := len(c.entries)
	memory := c.memoryUsage
	c.mu.Unlock()

	if len(expired) == 0 {
		return
	}

	// Callbacks and events run outside the lock
	for _, entry := range expired {
		c.stats.Expiration()
		c.stats.DropAccess(entry.Key)
		if c.metrics != nil {
			c.metrics.recordExpiration()
		}
		c.notifier.publish(Event{Type: EventExpire, Key: entry.Key, Tags: entry.Tags, Time: now})
	}
	c.stats.UpdateSize(int64(size))
	c.stats.UpdateMemoryUsage(memory)
	if c.metrics != nil {
		c.metrics.updateSize(size)
		c.metrics.updateMemory(memory)
	}

	if c.cfg.Debug {
		c.logger.Debug("cache sweep removed expired entries",
			"removed", len(expired),
			"remaining", size)
	}

	c.schedulePersist()
}
