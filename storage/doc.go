// Package storage defines the durable key-value primitive the cache
// persists through, plus two implementations.
//
// The Store contract is deliberately minimal - GetItem, SetItem,
// RemoveItem over strings - matching the origin-scoped store the
// persistence adapter was designed around. The cache treats every Store
// as best effort: a failing backend degrades persistence, never
// in-memory correctness.
//
// MemoryStore keeps records in a map and is the test double of choice;
// sharing one MemoryStore between two cache instances simulates a
// restart. FileStore writes one file per key with atomic renames and
// survives process restarts. Both support a per-value quota so callers
// can simulate (or enforce) the few-MB ceiling of real origin storage.
package storage
