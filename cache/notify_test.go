package cache

import (
	"testing"
	"time"
)

func collectEvents(t *testing.T, c *Cache[string]) *[]Event {
	t.Helper()
	events := &[]Event{}
	c.Subscribe(func(e Event) { *events = append(*events, e) })
	return events
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestSubscribeReceivesLifecycleEvents(t *testing.T) {
	c, clock := newTestCache(t, DefaultConfig())
	events := collectEvents(t, c)

	_ = c.Set("k", "v", WithTTL(time.Second), WithTags("t1"))
	c.Invalidate("k")
	_ = c.Set("k2", "v", WithTTL(time.Second))
	clock.Advance(2 * time.Second)
	c.Get("k2") // lazy expiry
	c.Clear()

	want := []EventType{EventSet, EventInvalidate, EventSet, EventExpire, EventClear}
	got := eventTypes(*events)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	first := (*events)[0]
	if first.Key != "k" {
		t.Errorf("expected key 'k' on set event, got %q", first.Key)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "t1" {
		t.Errorf("expected tags on set event, got %v", first.Tags)
	}
	if first.Time.IsZero() {
		t.Error("expected event timestamp to be populated")
	}
}

func TestEvictionEventCarriesKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 1
	c, clock := newTestCache(t, cfg)
	events := collectEvents(t, c)

	_ = c.Set("old", "v")
	clock.Advance(time.Millisecond)
	_ = c.Set("new", "v")

	var evict *Event
	for i, e := range *events {
		if e.Type == EventEvict {
			evict = &(*events)[i]
		}
	}
	if evict == nil {
		t.Fatal("expected an evict event")
	}
	if evict.Key != "old" {
		t.Errorf("expected evicted key 'old', got %q", evict.Key)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	var count int
	id := c.Subscribe(func(Event) { count++ })

	_ = c.Set("a", "v")
	if count != 1 {
		t.Fatalf("expected 1 event before unsubscribe, got %d", count)
	}

	if !c.Unsubscribe(id) {
		t.Error("expected Unsubscribe to find the subscription")
	}
	_ = c.Set("b", "v")
	if count != 1 {
		t.Errorf("expected no delivery after unsubscribe, got %d", count)
	}

	if c.Unsubscribe(id) {
		t.Error("expected repeated Unsubscribe to report unknown id")
	}
	if c.Unsubscribe("bogus") {
		t.Error("expected unknown id to report false")
	}
}

func TestSubscriptionIDsAreUnique(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := c.Subscribe(func(Event) {})
		if seen[id] {
			t.Fatalf("duplicate subscription id %q", id)
		}
		seen[id] = true
	}
}

func TestMultipleSubscribersEachReceive(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	var a, b int
	c.Subscribe(func(Event) { a++ })
	c.Subscribe(func(Event) { b++ })

	_ = c.Set("k", "v")

	if a != 1 || b != 1 {
		t.Errorf("expected both subscribers notified once, got %d and %d", a, b)
	}
}

func TestStatsStreamDelivery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StatsInterval = 10 * time.Millisecond

	c, _ := newTestCache(t, cfg)

	snaps := make(chan Snapshot, 16)
	c.SubscribeStats(func(s Snapshot) { snaps <- s })

	_ = c.Set("k", "v")
	c.Get("k")

	select {
	case snap := <-snaps:
		if snap.TotalEntries != 1 {
			t.Errorf("expected snapshot with 1 entry, got %d", snap.TotalEntries)
		}
		if snap.Hits != 1 {
			t.Errorf("expected snapshot with 1 hit, got %d", snap.Hits)
		}
	case <-time.After(time.Second):
		t.Fatal("no stats snapshot delivered")
	}
}
