package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks cache performance metrics.
type Statistics struct {
	// Atomic counters for thread-safe updates
	hits        int64
	misses      int64
	sets        int64
	deletes     int64
	evictions   int64
	expirations int64

	// Protected by mutex
	mu                sync.RWMutex
	startTime         time.Time
	currentSize       int64
	peakSize          int64
	memoryUsage       int64 // Estimated memory usage in bytes
	mostAccessedKey   string
	mostAccessedCount int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Hit records a cache hit.
func (s *Statistics) Hit() {
	atomic.AddInt64(&s.hits, 1)
}

// Miss records a cache miss.
func (s *Statistics) Miss() {
	atomic.AddInt64(&s.misses, 1)
}

// Set records a cache set operation.
func (s *Statistics) Set() {
	atomic.AddInt64(&s.sets, 1)
}

// Delete records an explicit invalidation.
func (s *Statistics) Delete() {
	atomic.AddInt64(&s.deletes, 1)
}

// Eviction records a capacity eviction.
func (s *Statistics) Eviction() {
	atomic.AddInt64(&s.evictions, 1)
}

// Expiration records a TTL expiry removal.
func (s *Statistics) Expiration() {
	atomic.AddInt64(&s.expirations, 1)
}

// UpdateSize updates the current cache size.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	if size > s.peakSize {
		s.peakSize = size
	}
	s.mu.Unlock()
}

// UpdateMemoryUsage updates the estimated memory usage.
func (s *Statistics) UpdateMemoryUsage(usage int64) {
	s.mu.Lock()
	s.memoryUsage = usage
	s.mu.Unlock()
}

// RecordAccess tracks the most accessed entry. Called on hits with the
// entry's new access count.
func (s *Statistics) RecordAccess(key string, count int64) {
	s.mu.Lock()
	if count >= s.mostAccessedCount || key == s.mostAccessedKey {
		s.mostAccessedKey = key
		s.mostAccessedCount = count
	}
	s.mu.Unlock()
}

// DropAccess forgets the most accessed entry if it matches key. The next
// hit re-establishes the leader.
func (s *Statistics) DropAccess(key string) {
	s.mu.Lock()
	if s.mostAccessedKey == key {
		s.mostAccessedKey = ""
		s.mostAccessedCount = 0
	}
	s.mu.Unlock()
}

// Hits returns the total number of cache hits.
func (s *Statistics) Hits() int64 {
	return atomic.LoadInt64(&s.hits)
}

// Misses returns the total number of cache misses.
func (s *Statistics) Misses() int64 {
	return atomic.LoadInt64(&s.misses)
}

// Sets returns the total number of set operations.
func (s *Statistics) Sets() int64 {
	return atomic.LoadInt64(&s.sets)
}

// Deletes returns the total number of explicit invalidations.
func (s *Statistics) Deletes() int64 {
	return atomic.LoadInt64(&s.deletes)
}

// Evictions returns the total number of capacity evictions.
func (s *Statistics) Evictions() int64 {
	return atomic.LoadInt64(&s.evictions)
}

// Expirations returns the total number of TTL expiry removals.
func (s *Statistics) Expirations() int64 {
	return atomic.LoadInt64(&s.expirations)
}

// CurrentSize returns the current number of entries in the cache.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// PeakSize returns the maximum number of entries the cache has held.
func (s *Statistics) PeakSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peakSize
}

// MemoryUsage returns the estimated memory usage in bytes.
func (s *Statistics) MemoryUsage() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memoryUsage
}

// HitRate returns the hit ratio (0.0 to 1.0). Zero when there have been
// no accesses yet.
func (s *Statistics) HitRate() float64 {
	hits := s.Hits()
	misses := s.Misses()
	total := hits + misses

	if total == 0 {
		return 0.0
	}

	return float64(hits) / float64(total)
}

// Uptime returns how long the cache has been collecting.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.sets, 0)
	atomic.StoreInt64(&s.deletes, 0)
	atomic.StoreInt64(&s.evictions, 0)
	atomic.StoreInt64(&s.expirations, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.currentSize = 0
	s.peakSize = 0
	s.memoryUsage = 0
	s.mostAccessedKey = ""
	s.mostAccessedCount = 0
	s.mu.Unlock()
}

// Snapshot is a point-in-time view of all statistics.
type Snapshot struct {
	TotalEntries      int64         `json:"total_entries"`
	Hits              int64         `json:"hits"`
	Misses            int64         `json:"misses"`
	Sets              int64         `json:"sets"`
	Deletes           int64         `json:"deletes"`
	Evictions         int64         `json:"evictions"`
	Expirations       int64         `json:"expirations"`
	HitRate           float64       `json:"hit_rate"`
	MemoryUsage       int64         `json:"memory_usage"`
	PeakSize          int64         `json:"peak_size"`
	MostAccessedKey   string        `json:"most_accessed_key,omitempty"`
	MostAccessedCount int64         `json:"most_accessed_count,omitempty"`
	Uptime            time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() Snapshot {
	s.mu.RLock()
	mostKey := s.mostAccessedKey
	mostCount := s.mostAccessedCount
	s.mu.RUnlock()

	return Snapshot{
		TotalEntries:      s.CurrentSize(),
		Hits:              s.Hits(),
		Misses:            s.Misses(),
		Sets:              s.Sets(),
		Deletes:           s.Deletes(),
		Evictions:         s.Evictions(),
		Expirations:       s.Expirations(),
		HitRate:           s.HitRate(),
		MemoryUsage:       s.MemoryUsage(),
		PeakSize:          s.PeakSize(),
		MostAccessedKey:   mostKey,
		MostAccessedCount: mostCount,
		Uptime:            s.Uptime(),
	}
}
