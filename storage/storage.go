package storage

// Store is the durable key-value primitive the cache persists through.
//
// The contract mirrors an origin-scoped browser store: string keys, string
// values, synchronous access, a realistic size ceiling. Implementations
// must be safe for concurrent use.
type Store interface {
	// GetItem returns the value for key. The second return is false when
	// the key is absent; an error means the backend itself failed.
	GetItem(key string) (string, bool, error)

	// SetItem writes value under key, overwriting any previous value.
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(key string) error
}
