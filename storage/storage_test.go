package storage

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidex/rescache/errors"
)

// roundTrip exercises the Store contract shared by all implementations.
func roundTrip(t *testing.T, store Store) {
	t.Helper()

	// Absent key is a miss, not an error
	_, ok, err := store.GetItem("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// Write and read back
	require.NoError(t, store.SetItem("rescache:categories", `{"v":1}`))
	value, ok, err := store.GetItem("rescache:categories")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"v":1}`, value)

	// Overwrite
	require.NoError(t, store.SetItem("rescache:categories", `{"v":2}`))
	value, ok, err = store.GetItem("rescache:categories")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"v":2}`, value)

	// Remove, then remove again (idempotent)
	require.NoError(t, store.RemoveItem("rescache:categories"))
	require.NoError(t, store.RemoveItem("rescache:categories"))
	_, ok, err = store.GetItem("rescache:categories")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	roundTrip(t, NewMemoryStore())
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	roundTrip(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SetItem("rescache:categories", "payload"))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	value, ok, err := reopened.GetItem("rescache:categories")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "payload", value)
}

func TestFileStoreRequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestMemoryStoreQuota(t *testing.T) {
	store := NewMemoryStoreWithQuota(8)

	require.NoError(t, store.SetItem("k", "small"))

	err := store.SetItem("k", "this value is too large")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrQuotaExceeded)

	// The previous value is untouched
	value, ok, getErr := store.GetItem("k")
	require.NoError(t, getErr)
	require.True(t, ok)
	assert.Equal(t, "small", value)
}

func TestFileStoreQuota(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), WithFileQuota(8))
	require.NoError(t, err)

	require.NoError(t, store.SetItem("k", "small"))
	err = store.SetItem("k", "this value is too large")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrQuotaExceeded)
}

func TestFileStoreArbitraryKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	// Keys with separators and odd characters must not escape the directory
	keys := []string{
		"establishment-1-category-list",
		"../escape/attempt",
		"with spaces and / slashes",
		"unicode-chave-ação",
	}
	for _, key := range keys {
		require.NoError(t, store.SetItem(key, "v:"+key))
	}
	for _, key := range keys {
		value, ok, err := store.GetItem(key)
		require.NoError(t, err)
		require.True(t, ok, "key %q", key)
		assert.Equal(t, "v:"+key, value)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%10)
				_ = store.SetItem(key, "value")
				_, _, _ = store.GetItem(key)
				if j%7 == 0 {
					_ = store.RemoveItem(key)
				}
			}
		}(i)
	}
	wg.Wait()
}
