package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened to a cache entry.
type EventType string

const (
	// EventSet fires when an entry is inserted or overwritten.
	EventSet EventType = "set"

	// EventInvalidate fires on explicit removal (Invalidate,
	// InvalidateByTag).
	EventInvalidate EventType = "invalidate"

	// EventExpire fires when an entry's TTL elapses, whether discovered
	// lazily on read or by the background sweep.
	EventExpire EventType = "expire"

	// EventEvict fires when an entry is removed under capacity pressure.
	EventEvict EventType = "evict"

	// EventClear fires once when the whole cache is cleared.
	EventClear EventType = "clear"
)

// Event describes a single cache change.
type Event struct {
	Type EventType
	Key  string
	Tags []string
	Time time.Time
}

// EventFunc receives cache change events. Callbacks run synchronously on
// the mutating goroutine and must not block.
type EventFunc func(Event)

// StatsFunc receives periodic statistics snapshots when the stats stream
// is enabled via Config.StatsInterval.
type StatsFunc func(Snapshot)

// notifier fans cache events out to registered subscribers.
type notifier struct {
	mu    sync.RWMutex
	event map[string]EventFunc
	stats map[string]StatsFunc
}

func newNotifier() *notifier {
	return &notifier{
		event: make(map[string]EventFunc),
		stats: make(map[string]StatsFunc),
	}
}

// subscribe registers fn and returns its subscription id.
func (n *notifier) subscribe(fn EventFunc) string {
	id := uuid.NewString()
	n.mu.Lock()
	n.event[id] = fn
	n.mu.Unlock()
	return id
}

// subscribeStats registers a stats stream subscriber.
func (n *notifier) subscribeStats(fn StatsFunc) string {
	id := uuid.NewString()
	n.mu.Lock()
	n.stats[id] = fn
	n.mu.Unlock()
	return id
}

// unsubscribe removes a subscription of either kind. Returns true if the
// id was known.
func (n *notifier) unsubscribe(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.event[id]; ok {
		delete(n.event, id)
		return true
	}
	if _, ok := n.stats[id]; ok {
		delete(n.stats, id)
		return true
	}
	return false
}

// publish delivers an event to every subscriber. Subscribers registered
// during delivery see only later events.
func (n *notifier) publish(ev Event) {
	n.mu.RLock()
	fns := make([]EventFunc, 0, len(n.event))
	for _, fn := range n.event {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// publishStats delivers a snapshot to every stats subscriber.
func (n *notifier) publishStats(snap Snapshot) {
	n.mu.RLock()
	fns := make([]StatsFunc, 0, len(n.stats))
	for _, fn := range n.stats {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
