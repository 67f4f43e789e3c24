package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 5*time.Minute, cfg.DefaultTTL)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.Equal(t, StrategyLRU, cfg.EvictionStrategy)
	assert.False(t, cfg.PersistToStorage)
	assert.Equal(t, PriorityHigh, cfg.PersistPriority)
	assert.Equal(t, TTLMultipliers{Low: 0.5, Normal: 1.0, High: 2.0}, cfg.TTLMultipliers)

	result := cfg.Validate()
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}

func TestNormalizeFillsZeroFields(t *testing.T) {
	cfg, result := Config{}.Normalize()

	require.True(t, result.Valid())
	assert.Empty(t, result.Warnings, "zero fields take defaults silently")
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestNormalizeClampsWithWarnings(t *testing.T) {
	in := Config{
		MaxSize:         -5,
		DefaultTTL:      -time.Second,
		CleanupInterval: -time.Minute,
		StatsInterval:   -time.Second,
		PersistDebounce: -time.Millisecond,
		MaxMemoryUsage:  -1,
		TTLMultipliers:  TTLMultipliers{Low: -1, Normal: 1, High: 2},
	}

	cfg, result := in.Normalize()

	require.True(t, result.Valid(), "clamps are warnings, not errors")
	assert.Len(t, result.Warnings, 7)

	def := DefaultConfig()
	assert.Equal(t, def.MaxSize, cfg.MaxSize)
	assert.Equal(t, def.DefaultTTL, cfg.DefaultTTL)
	assert.Equal(t, def.CleanupInterval, cfg.CleanupInterval)
	assert.Equal(t, time.Duration(0), cfg.StatsInterval)
	assert.Equal(t, def.PersistDebounce, cfg.PersistDebounce)
	assert.Equal(t, int64(0), cfg.MaxMemoryUsage)
	assert.Equal(t, def.TTLMultipliers.Low, cfg.TTLMultipliers.Low)
}

func TestNormalizeRejectsUnknownStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EvictionStrategy = "mru"

	_, result := cfg.Normalize()
	require.False(t, result.Valid())
	assert.Contains(t, result.Errors[0], "mru")
}

func TestNormalizeRejectsUnknownPriority(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PersistPriority = Priority(42)

	_, result := cfg.Normalize()
	require.False(t, result.Valid())
}

func TestValidateDoesNotMutate(t *testing.T) {
	cfg := Config{MaxSize: -5}
	_ = cfg.Validate()
	assert.Equal(t, -5, cfg.MaxSize)
}

func TestMergeOverlaysOnlySetFields(t *testing.T) {
	base := DefaultConfig()

	maxSize := 250
	strategy := StrategyLFU
	persist := true
	merged := base.Merge(Overrides{
		MaxSize:          &maxSize,
		EvictionStrategy: &strategy,
		PersistToStorage: &persist,
	})

	assert.Equal(t, 250, merged.MaxSize)
	assert.Equal(t, StrategyLFU, merged.EvictionStrategy)
	assert.True(t, merged.PersistToStorage)

	// Untouched fields keep the base values, and the base is unchanged
	assert.Equal(t, base.DefaultTTL, merged.DefaultTTL)
	assert.Equal(t, base.StorageKey, merged.StorageKey)
	assert.Equal(t, 100, base.MaxSize)
}

func TestMergeEmptyOverridesIsIdentity(t *testing.T) {
	base := DefaultConfig()
	assert.Equal(t, base, base.Merge(Overrides{}))
}

func TestFromYAMLDurationStrings(t *testing.T) {
	doc := []byte(`
max_size: 200
default_ttl: 10m
cleanup_interval: 30s
eviction_strategy: lfu
persist_to_storage: true
storage_key: "rapidex:categories"
persist_debounce: 500ms
persist_priority: high
ttl_multipliers:
  low: 0.25
  normal: 1.0
  high: 4.0
`)

	cfg, result, err := FromYAML(doc)
	require.NoError(t, err)
	assert.True(t, result.Valid())

	assert.Equal(t, 200, cfg.MaxSize)
	assert.Equal(t, 10*time.Minute, cfg.DefaultTTL)
	assert.Equal(t, 30*time.Second, cfg.CleanupInterval)
	assert.Equal(t, StrategyLFU, cfg.EvictionStrategy)
	assert.True(t, cfg.PersistToStorage)
	assert.Equal(t, "rapidex:categories", cfg.StorageKey)
	assert.Equal(t, 500*time.Millisecond, cfg.PersistDebounce)
	assert.Equal(t, PriorityHigh, cfg.PersistPriority)
	assert.Equal(t, 4.0, cfg.TTLMultipliers.High)
}

func TestFromYAMLIntegerNanoseconds(t *testing.T) {
	doc := []byte("default_ttl: 60000000000\n")

	cfg, _, err := FromYAML(doc)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.DefaultTTL)
}

func TestFromYAMLInvalidDuration(t *testing.T) {
	_, _, err := FromYAML([]byte("default_ttl: tomorrow\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_ttl")
}

func TestFromYAMLInvalidStrategy(t *testing.T) {
	_, result, err := FromYAML([]byte("eviction_strategy: random\n"))
	require.Error(t, err)
	assert.False(t, result.Valid())
}

func TestTTLMultipliersFor(t *testing.T) {
	m := TTLMultipliers{Low: 0.5, Normal: 1.0, High: 2.0}

	assert.Equal(t, 0.5, m.For(PriorityLow))
	assert.Equal(t, 1.0, m.For(PriorityNormal))
	assert.Equal(t, 2.0, m.For(PriorityHigh))
	assert.Equal(t, 1.0, m.For(Priority(0)), "unknown priorities fall back to normal")
}

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"low":    PriorityLow,
		"normal": PriorityNormal,
		"high":   PriorityHigh,
		"HIGH":   PriorityHigh,
	}
	for in, want := range cases {
		got, err := ParsePriority(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParsePriority("urgent")
	assert.Error(t, err)
}
