package cache

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy selects the eviction policy used under capacity pressure.
type Strategy string

const (
	// StrategyLRU evicts the least recently used entry.
	StrategyLRU Strategy = "lru"

	// StrategyLFU evicts the least frequently used entry.
	StrategyLFU Strategy = "lfu"

	// StrategyFIFO evicts the oldest entry regardless of access.
	StrategyFIFO Strategy = "fifo"
)

// TTLMultipliers scale an entry's TTL by its priority.
type TTLMultipliers struct {
	Low    float64 `yaml:"low" json:"low"`
	Normal float64 `yaml:"normal" json:"normal"`
	High   float64 `yaml:"high" json:"high"`
}

// For returns the multiplier for a priority, defaulting to 1.
func (m TTLMultipliers) For(p Priority) float64 {
	switch p {
	case PriorityLow:
		return m.Low
	case PriorityHigh:
		return m.High
	default:
		return m.Normal
	}
}

// Config contains the cache configuration surface.
type Config struct {
	// MaxSize is the maximum number of entries. The capacity invariant
	// size <= MaxSize holds after every Set.
	MaxSize int `yaml:"max_size" json:"max_size"`

	// DefaultTTL applies to entries set without an explicit TTL.
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`

	// CleanupInterval is how often the background sweep removes expired
	// entries.
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`

	// StatsInterval is how often stats subscribers receive a snapshot.
	// Zero disables the push stream.
	StatsInterval time.Duration `yaml:"stats_interval" json:"stats_interval"`

	// EvictionStrategy picks the eviction policy: lru, lfu or fifo.
	EvictionStrategy Strategy `yaml:"eviction_strategy" json:"eviction_strategy"`

	// PersistToStorage enables the debounced persistence adapter. It also
	// requires a storage backend supplied via WithStore.
	PersistToStorage bool `yaml:"persist_to_storage" json:"persist_to_storage"`

	// StorageKey is the single durable record key used for persistence.
	StorageKey string `yaml:"storage_key" json:"storage_key"`

	// PersistDebounce is how long after the last mutation the persistence
	// write runs.
	PersistDebounce time.Duration `yaml:"persist_debounce" json:"persist_debounce"`

	// PersistPriority is the minimum priority an entry needs to be
	// persisted.
	PersistPriority Priority `yaml:"persist_priority" json:"persist_priority"`

	// MaxMemoryUsage is an advisory ceiling in bytes for the estimated
	// memory footprint. Crossing it logs a warning; it never rejects sets.
	MaxMemoryUsage int64 `yaml:"max_memory_usage" json:"max_memory_usage"`

	// TTLMultipliers scale TTLs per priority.
	TTLMultipliers TTLMultipliers `yaml:"ttl_multipliers" json:"ttl_multipliers"`

	// Debug enables verbose logging of cache decisions.
	Debug bool `yaml:"debug" json:"debug"`
}

// DefaultConfig returns the standard profile.
func DefaultConfig() Config {
	return Config{
		MaxSize:          100,
		DefaultTTL:       5 * time.Minute,
		CleanupInterval:  time.Minute,
		StatsInterval:    0,
		EvictionStrategy: StrategyLRU,
		PersistToStorage: false,
		StorageKey:       "rescache:state",
		PersistDebounce:  2 * time.Second,
		PersistPriority:  PriorityHigh,
		MaxMemoryUsage:   0,
		TTLMultipliers:   TTLMultipliers{Low: 0.5, Normal: 1.0, High: 2.0},
	}
}

// ValidationResult reports configuration problems as data. Errors reject
// the configuration; warnings describe values that were clamped.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the configuration can be applied.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the configuration without changing it.
func (c Config) Validate() ValidationResult {
	_, result := c.Normalize()
	return result
}

// Normalize applies defaults to zero fields and clamps out-of-range values,
// recording a warning per clamp. Only unfixable fields (an unknown eviction
// strategy or priority) produce errors.
func (c Config) Normalize() (Config, ValidationResult) {
	var result ValidationResult
	def := DefaultConfig()

	if c.MaxSize == 0 {
		c.MaxSize = def.MaxSize
	} else if c.MaxSize < 0 {
		result.warnf("max_size must be positive, got %d; using %d", c.MaxSize, def.MaxSize)
		c.MaxSize = def.MaxSize
	}

	if c.DefaultTTL == 0 {
		c.DefaultTTL = def.DefaultTTL
	} else if c.DefaultTTL < 0 {
		result.warnf("default_ttl must be positive, got %v; using %v", c.DefaultTTL, def.DefaultTTL)
		c.DefaultTTL = def.DefaultTTL
	}

	if c.CleanupInterval == 0 {
		c.CleanupInterval = def.CleanupInterval
	} else if c.CleanupInterval < 0 {
		result.warnf("cleanup_interval must be positive, got %v; using %v", c.CleanupInterval, def.CleanupInterval)
		c.CleanupInterval = def.CleanupInterval
	}

	if c.StatsInterval < 0 {
		result.warnf("stats_interval must be non-negative, got %v; stats stream disabled", c.StatsInterval)
		c.StatsInterval = 0
	}

	switch c.EvictionStrategy {
	case "":
		c.EvictionStrategy = def.EvictionStrategy
	case StrategyLRU, StrategyLFU, StrategyFIFO:
	default:
		result.errorf("unknown eviction strategy: %q", c.EvictionStrategy)
	}

	if c.StorageKey == "" {
		c.StorageKey = def.StorageKey
	}

	if c.PersistDebounce == 0 {
		c.PersistDebounce = def.PersistDebounce
	} else if c.PersistDebounce < 0 {
		result.warnf("persist_debounce must be positive, got %v; using %v", c.PersistDebounce, def.PersistDebounce)
		c.PersistDebounce = def.PersistDebounce
	}

	switch c.PersistPriority {
	case 0:
		c.PersistPriority = def.PersistPriority
	case PriorityLow, PriorityNormal, PriorityHigh:
	default:
		result.errorf("unknown persist priority: %d", c.PersistPriority)
	}

	if c.MaxMemoryUsage < 0 {
		result.warnf("max_memory_usage must be non-negative, got %d; advisory limit disabled", c.MaxMemoryUsage)
		c.MaxMemoryUsage = 0
	}

	c.TTLMultipliers = normalizeMultipliers(c.TTLMultipliers, def.TTLMultipliers, &result)

	return c, result
}

func normalizeMultipliers(m, def TTLMultipliers, result *ValidationResult) TTLMultipliers {
	fix := func(name string, v, fallback float64) float64 {
		if v == 0 {
			return fallback
		}
		if v < 0 {
			result.warnf("ttl_multipliers.%s must be positive, got %v; using %v", name, v, fallback)
			return fallback
		}
		return v
	}
	return TTLMultipliers{
		Low:    fix("low", m.Low, def.Low),
		Normal: fix("normal", m.Normal, def.Normal),
		High:   fix("high", m.High, def.High),
	}
}

// Overrides is a partial configuration. Nil fields leave the base value
// untouched, so callers state exactly what they change.
type Overrides struct {
	MaxSize          *int            `yaml:"max_size" json:"max_size,omitempty"`
	DefaultTTL       *time.Duration  `yaml:"default_ttl" json:"default_ttl,omitempty"`
	CleanupInterval  *time.Duration  `yaml:"cleanup_interval" json:"cleanup_interval,omitempty"`
	StatsInterval    *time.Duration  `yaml:"stats_interval" json:"stats_interval,omitempty"`
	EvictionStrategy *Strategy       `yaml:"eviction_strategy" json:"eviction_strategy,omitempty"`
	PersistToStorage *bool           `yaml:"persist_to_storage" json:"persist_to_storage,omitempty"`
	StorageKey       *string         `yaml:"storage_key" json:"storage_key,omitempty"`
	PersistDebounce  *time.Duration  `yaml:"persist_debounce" json:"persist_debounce,omitempty"`
	PersistPriority  *Priority       `yaml:"persist_priority" json:"persist_priority,omitempty"`
	MaxMemoryUsage   *int64          `yaml:"max_memory_usage" json:"max_memory_usage,omitempty"`
	TTLMultipliers   *TTLMultipliers `yaml:"ttl_multipliers" json:"ttl_multipliers,omitempty"`
	Debug            *bool           `yaml:"debug" json:"debug,omitempty"`
}

// Merge applies the overrides on top of c and returns the result. The
// receiver is not modified; the result still needs Normalize before use.
func (c Config) Merge(o Overrides) Config {
	if o.MaxSize != nil {
		c.MaxSize = *o.MaxSize
	}
	if o.DefaultTTL != nil {
		c.DefaultTTL = *o.DefaultTTL
	}
	if o.CleanupInterval != nil {
		c.CleanupInterval = *o.CleanupInterval
	}
	if o.StatsInterval != nil {
		c.StatsInterval = *o.StatsInterval
	}
	if o.EvictionStrategy != nil {
		c.EvictionStrategy = *o.EvictionStrategy
	}
	if o.PersistToStorage != nil {
		c.PersistToStorage = *o.PersistToStorage
	}
	if o.StorageKey != nil {
		c.StorageKey = *o.StorageKey
	}
	if o.PersistDebounce != nil {
		c.PersistDebounce = *o.PersistDebounce
	}
	if o.PersistPriority != nil {
		c.PersistPriority = *o.PersistPriority
	}
	if o.MaxMemoryUsage != nil {
		c.MaxMemoryUsage = *o.MaxMemoryUsage
	}
	if o.TTLMultipliers != nil {
		c.TTLMultipliers = *o.TTLMultipliers
	}
	if o.Debug != nil {
		c.Debug = *o.Debug
	}
	return c
}

// FromYAML parses a configuration document. The returned ValidationResult
// carries clamp warnings; a parse failure or validation error is returned
// as err.
func FromYAML(data []byte) (Config, ValidationResult, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, ValidationResult{}, fmt.Errorf("parse cache config: %w", err)
	}

	cfg, result := cfg.Normalize()
	if !result.Valid() {
		return Config{}, result, fmt.Errorf("invalid cache config: %s", strings.Join(result.Errors, "; "))
	}
	return cfg, result, nil
}

// UnmarshalYAML accepts duration fields as either duration strings
// ("5m", "30s") or integer nanoseconds.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		MaxSize          int            `yaml:"max_size"`
		DefaultTTL       yaml.Node      `yaml:"default_ttl"`
		CleanupInterval  yaml.Node      `yaml:"cleanup_interval"`
		StatsInterval    yaml.Node      `yaml:"stats_interval"`
		EvictionStrategy Strategy       `yaml:"eviction_strategy"`
		PersistToStorage bool           `yaml:"persist_to_storage"`
		StorageKey       string         `yaml:"storage_key"`
		PersistDebounce  yaml.Node      `yaml:"persist_debounce"`
		PersistPriority  Priority       `yaml:"persist_priority"`
		MaxMemoryUsage   int64          `yaml:"max_memory_usage"`
		TTLMultipliers   TTLMultipliers `yaml:"ttl_multipliers"`
		Debug            bool           `yaml:"debug"`
	}

	if err := value.Decode(&aux); err != nil {
		return err
	}

	c.MaxSize = aux.MaxSize
	c.EvictionStrategy = aux.EvictionStrategy
	c.PersistToStorage = aux.PersistToStorage
	c.StorageKey = aux.StorageKey
	c.PersistPriority = aux.PersistPriority
	c.MaxMemoryUsage = aux.MaxMemoryUsage
	c.TTLMultipliers = aux.TTLMultipliers
	c.Debug = aux.Debug

	fields := []struct {
		node *yaml.Node
		dst  *time.Duration
		name string
	}{
		{&aux.DefaultTTL, &c.DefaultTTL, "default_ttl"},
		{&aux.CleanupInterval, &c.CleanupInterval, "cleanup_interval"},
		{&aux.StatsInterval, &c.StatsInterval, "stats_interval"},
		{&aux.PersistDebounce, &c.PersistDebounce, "persist_debounce"},
	}

	for _, f := range fields {
		if f.node.IsZero() {
			continue
		}
		d, err := parseDurationNode(f.node, f.name)
		if err != nil {
			return err
		}
		*f.dst = d
	}
	return nil
}

// parseDurationNode parses a YAML duration that can be either a string
// ("1h", "5m", "30s") or an integer (nanoseconds).
func parseDurationNode(node *yaml.Node, fieldName string) (time.Duration, error) {
	var s string
	if err := node.Decode(&s); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", fieldName, err)
		}
		return d, nil
	}

	var nsec int64
	if err := node.Decode(&nsec); err != nil {
		return 0, fmt.Errorf("field %s must be a duration string (e.g. '5m') or integer nanoseconds", fieldName)
	}
	return time.Duration(nsec), nil
}
