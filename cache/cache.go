package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority classifies an entry's importance. It scales the entry's
// effective TTL and decides persistence eligibility, and high priority
// entries are the last candidates for capacity eviction.
type Priority int

const (
	// PriorityLow marks short-lived entries (filtered views, search results).
	PriorityLow Priority = iota + 1

	// PriorityNormal is the default for list data.
	PriorityNormal

	// PriorityHigh marks entries worth keeping across restarts
	// (establishment detail, active category).
	PriorityHigh
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParsePriority converts a string into a Priority. Matching is
// case-insensitive; the empty string maps to normal.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(s) {
	case "low":
		return PriorityLow, nil
	case "normal", "":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("unknown priority: %q", s)
	}
}

// MarshalJSON encodes the priority as its string form.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts the string form ("low", "normal", "high").
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// UnmarshalYAML accepts the string form in configuration files.
func (p *Priority) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Entry is a cached record with its access and expiry metadata.
type Entry[V any] struct {
	Key            string
	Value          V
	CreatedAt      time.Time
	LastAccessedAt time.Time
	TTL            time.Duration
	AccessCount    int64
	Tags           []string
	Priority       Priority

	// size is the estimated serialized size in bytes, computed once at Set.
	size int64
}

// expiresAt computes the effective expiry: CreatedAt + TTL scaled by the
// priority multiplier.
func (e *Entry[V]) expiresAt(m TTLMultipliers) time.Time {
	return e.CreatedAt.Add(time.Duration(float64(e.TTL) * m.For(e.Priority)))
}

// expired reports whether the entry's effective TTL has elapsed at now.
func (e *Entry[V]) expired(now time.Time, m TTLMultipliers) bool {
	return now.After(e.expiresAt(m))
}

// hasTag reports whether the entry carries tag.
func (e *Entry[V]) hasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// EvictCallback is called when an entry leaves the cache under capacity
// pressure. It receives the key and value of the evicted entry.
type EvictCallback[V any] func(key string, value V)

// entrySettings holds per-Set overrides resolved against the configuration.
type entrySettings struct {
	ttl      time.Duration
	priority Priority
	tags     []string
}

// EntryOption customizes a single Set call.
type EntryOption func(*entrySettings)

// WithTTL overrides the default TTL for this entry. Non-positive values
// are ignored and the configured default applies.
func WithTTL(ttl time.Duration) EntryOption {
	return func(s *entrySettings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPriority sets the entry's priority.
func WithPriority(p Priority) EntryOption {
	return func(s *entrySettings) {
		if p >= PriorityLow && p <= PriorityHigh {
			s.priority = p
		}
	}
}

// WithTags attaches tags used for bulk invalidation.
func WithTags(tags ...string) EntryOption {
	return func(s *entrySettings) {
		s.tags = append(s.tags, tags...)
	}
}
