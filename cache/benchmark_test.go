package cache

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"
)

func mustCreateBenchCache(strategy Strategy, maxSize int) *Cache[string] {
	cfg := DefaultConfig()
	cfg.EvictionStrategy = strategy
	cfg.MaxSize = maxSize

	c, err := New[string](context.Background(), cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// BenchmarkCacheGet benchmarks Get across the eviction strategies.
func BenchmarkCacheGet(b *testing.B) {
	for _, strategy := range []Strategy{StrategyLRU, StrategyLFU, StrategyFIFO} {
		b.Run(string(strategy), func(b *testing.B) {
			cache := mustCreateBenchCache(strategy, 1000)
			defer cache.Close()

			// Pre-populate cache
			for i := 0; i < 1000; i++ {
				_ = cache.Set(fmt.Sprintf("key%d", i), fmt.Sprintf("value%d", i))
			}

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					key := fmt.Sprintf("key%d", rand.Intn(1000))
					cache.Get(key)
				}
			})
		})
	}
}

// BenchmarkCacheSet benchmarks Set across the eviction strategies.
func BenchmarkCacheSet(b *testing.B) {
	for _, strategy := range []Strategy{StrategyLRU, StrategyLFU, StrategyFIFO} {
		b.Run(string(strategy), func(b *testing.B) {
			cache := mustCreateBenchCache(strategy, 1000)
			defer cache.Close()

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					key := fmt.Sprintf("key%d", i)
					_ = cache.Set(key, fmt.Sprintf("value%d", i))
					i++
				}
			})
		})
	}
}

// BenchmarkCacheMixed benchmarks a mixed Get/Set/Invalidate workload.
func BenchmarkCacheMixed(b *testing.B) {
	cache := mustCreateBenchCache(StrategyLRU, 1000)
	defer cache.Close()

	// Pre-populate cache
	for i := 0; i < 500; i++ {
		_ = cache.Set(fmt.Sprintf("key%d", i), fmt.Sprintf("value%d", i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 500
		for pb.Next() {
			switch rand.Intn(5) {
			case 0, 1: // 40% reads
				cache.Get(fmt.Sprintf("key%d", rand.Intn(1000)))
			case 2, 3: // 40% writes
				_ = cache.Set(fmt.Sprintf("key%d", i), fmt.Sprintf("value%d", i))
				i++
			case 4: // 20% invalidations
				cache.Invalidate(fmt.Sprintf("key%d", rand.Intn(1000)))
			}
		}
	})
}

// BenchmarkEviction measures the scan-based victim selection at different
// capacities. Every Set past capacity triggers one scan.
func BenchmarkEviction(b *testing.B) {
	sizes := []int{100, 500, 1000, 5000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Size_%d", size), func(b *testing.B) {
			cache := mustCreateBenchCache(StrategyLRU, size)
			defer cache.Close()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				key := fmt.Sprintf("key%d", i)
				_ = cache.Set(key, fmt.Sprintf("value%d", i))
			}
		})
	}
}

// BenchmarkTagInvalidation measures bulk invalidation with entries spread
// across establishments.
func BenchmarkTagInvalidation(b *testing.B) {
	cache := mustCreateBenchCache(StrategyLRU, 10000)
	defer cache.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		for j := 0; j < 100; j++ {
			tag := fmt.Sprintf("establishment-%d", j%10)
			_ = cache.Set(fmt.Sprintf("key%d", j), "value", WithTags(tag))
		}
		b.StartTimer()

		cache.InvalidateByTag("establishment-3")
	}
}

// BenchmarkExample_ReadHeavy simulates the dominant front-end pattern
// (90% reads, 10% writes).
func BenchmarkExample_ReadHeavy(b *testing.B) {
	cache := mustCreateBenchCache(StrategyLRU, 1000)
	defer cache.Close()

	for i := 0; i < 1000; i++ {
		_ = cache.Set(fmt.Sprintf("key%d", i), fmt.Sprintf("value%d", i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if rand.Intn(10) == 0 { // 10% writes
				key := fmt.Sprintf("key%d", rand.Intn(2000))
				_ = cache.Set(key, "updated_value")
			} else { // 90% reads
				cache.Get(fmt.Sprintf("key%d", rand.Intn(1000)))
			}
		}
	})
}

// BenchmarkExpiredSweep measures the batch sweep over a store full of
// expired entries.
func BenchmarkExpiredSweep(b *testing.B) {
	clock := newFakeClock()
	cfg := DefaultConfig()
	cfg.MaxSize = 10000

	cache, err := New[string](context.Background(), cfg, WithClock[string](clock.Now))
	if err != nil {
		b.Fatal(err)
	}
	defer cache.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		for j := 0; j < 1000; j++ {
			_ = cache.Set(fmt.Sprintf("key%d", j), "value", WithTTL(time.Second))
		}
		clock.Advance(time.Minute)
		b.StartTimer()

		cache.removeExpired()
	}
}
