package cache

import (
	"runtime"
	"time"
)

// Capabilities describes the machine the cache runs on. It is an
// interface so tests and embedders can supply deterministic values
// instead of reading ambient globals.
type Capabilities interface {
	// NumCPU returns the number of logical CPUs.
	NumCPU() int

	// TotalMemoryBytes returns total system memory, or 0 when unknown.
	TotalMemoryBytes() uint64
}

// systemCapabilities reads from the Go runtime. Total memory is not
// portably available, so it reports 0 and profile selection falls back
// to CPU count alone.
type systemCapabilities struct{}

func (systemCapabilities) NumCPU() int              { return runtime.NumCPU() }
func (systemCapabilities) TotalMemoryBytes() uint64 { return 0 }

// SystemCapabilities returns runtime-backed capabilities.
func SystemCapabilities() Capabilities {
	return systemCapabilities{}
}

// StaticCapabilities is a fixed Capabilities value for tests and explicit
// profile selection.
type StaticCapabilities struct {
	CPUs   int
	Memory uint64
}

func (s StaticCapabilities) NumCPU() int              { return s.CPUs }
func (s StaticCapabilities) TotalMemoryBytes() uint64 { return s.Memory }

const (
	lowMemoryBytes  = 2 << 30 // 2 GiB
	highMemoryBytes = 8 << 30 // 8 GiB
)

// ProfileFor picks a configuration profile from machine capabilities:
// conservative for small machines, performance for large ones, the
// default profile otherwise. Unknown memory (0) leaves the decision to
// CPU count.
func ProfileFor(caps Capabilities) Config {
	cpus := caps.NumCPU()
	mem := caps.TotalMemoryBytes()

	if cpus > 0 && cpus <= 2 || (mem > 0 && mem <= lowMemoryBytes) {
		return ConservativeConfig()
	}
	if cpus >= 8 && (mem == 0 || mem >= highMemoryBytes) {
		return PerformanceConfig()
	}
	return DefaultConfig()
}

// ConservativeConfig suits constrained machines: fewer entries, shorter
// TTLs, more frequent sweeps.
func ConservativeConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxSize = 50
	cfg.DefaultTTL = 2 * time.Minute
	cfg.CleanupInterval = 30 * time.Second
	cfg.MaxMemoryUsage = 5 << 20 // 5 MiB advisory
	return cfg
}

// PerformanceConfig suits large machines: more entries, longer TTLs.
func PerformanceConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxSize = 500
	cfg.DefaultTTL = 10 * time.Minute
	cfg.CleanupInterval = 2 * time.Minute
	cfg.MaxMemoryUsage = 50 << 20 // 50 MiB advisory
	return cfg
}
