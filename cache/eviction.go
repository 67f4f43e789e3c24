package cache

// Eviction victim selection. One victim is chosen per capacity violation;
// the Set path loops until size <= MaxSize again.
//
// High priority entries are shielded, not immune: they are only
// considered once every lower-priority entry is gone, so the capacity
// invariant always wins over priority.

// victimKey picks the entry to evict under the given strategy. The second
// return is false only when the store is empty.
func victimKey[V any](entries map[string]*Entry[V], strategy Strategy) (string, bool) {
	if key, ok := selectVictim(entries, strategy, false); ok {
		return key, true
	}
	// Only high priority entries remain
	return selectVictim(entries, strategy, true)
}

// selectVictim scans for the worst entry under the strategy's ordering.
// When includeHigh is false, high priority entries are skipped.
func selectVictim[V any](entries map[string]*Entry[V], strategy Strategy, includeHigh bool) (string, bool) {
	var victim *Entry[V]
	for _, e := range entries {
		if !includeHigh && e.Priority == PriorityHigh {
			continue
		}
		if victim == nil || worseThan(e, victim, strategy) {
			victim = e
		}
	}
	if victim == nil {
		return "", false
	}
	return victim.Key, true
}

// worseThan reports whether a is a better eviction victim than b. Ties
// fall through to older CreatedAt, then to the smaller key, so selection
// is deterministic regardless of map iteration order.
func worseThan[V any](a, b *Entry[V], strategy Strategy) bool {
	switch strategy {
	case StrategyLFU:
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
	case StrategyFIFO:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Key < b.Key
	default: // StrategyLRU
		if !a.LastAccessedAt.Equal(b.LastAccessedAt) {
			return a.LastAccessedAt.Before(b.LastAccessedAt)
		}
	}

	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Key < b.Key
}
