package storage

import (
	"sync"

	"github.com/rapidex/rescache/errors"
)

// MemoryStore is an in-memory Store with an optional quota.
//
// It backs tests and restart simulations: two cache instances sharing one
// MemoryStore see each other's persisted records the way two page loads
// share one origin store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string

	// MaxBytes caps the size of a single value. Zero means unlimited.
	maxBytes int
}

// NewMemoryStore creates an empty in-memory store with no quota.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

// NewMemoryStoreWithQuota creates an in-memory store that rejects values
// larger than maxBytes.
func NewMemoryStoreWithQuota(maxBytes int) *MemoryStore {
	return &MemoryStore{items: make(map[string]string), maxBytes: maxBytes}
}

// GetItem returns the value for key.
func (s *MemoryStore) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	return value, ok, nil
}

// SetItem writes value under key, enforcing the quota when configured.
func (s *MemoryStore) SetItem(key, value string) error {
	if s.maxBytes > 0 && len(value) > s.maxBytes {
		return errors.WrapFatal(errors.ErrQuotaExceeded, "MemoryStore", "SetItem",
			"value exceeds quota")
	}

	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
	return nil
}

// RemoveItem deletes key.
func (s *MemoryStore) RemoveItem(key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
