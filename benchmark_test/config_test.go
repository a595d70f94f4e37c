package benchmark_test

import (
	"testing"

	"github.com/hupe1980/blockcache"
	"github.com/hupe1980/blockcache/blobstore"
	"github.com/hupe1980/blockcache/cache"
	"github.com/hupe1980/blockcache/recordstore"
	"github.com/hupe1980/blockcache/structure"
	"github.com/hupe1980/blockcache/testutil"
)

// ============================================================================
// Benchmark Configuration
// ============================================================================

// Standard tree shapes used across benchmarks for consistency.
const (
	widthSmall, depthSmall   = 4, 2 // 21 blocks - quick iteration
	widthMedium, depthMedium = 8, 2 // 73 blocks - typical document
	widthLarge, depthLarge   = 8, 3 // 585 blocks - large document
)

// Seed for deterministic benchmarks - enables reproducible comparisons.
const benchSeed = 42

// ============================================================================
// Benchmark Helpers
// ============================================================================

// newVolatileCache creates a cache without a durable tier. The cleanup
// janitor is disabled so background sweeps never skew timings.
func newVolatileCache(b *testing.B, optFns ...blockcache.Option) *blockcache.Cache {
	b.Helper()

	fast := cache.NewMemory(func(o *cache.Options) {
		o.CleanupInterval = 0
	})

	bc, err := blockcache.New(fast, optFns...)
	if err != nil {
		b.Fatal(err)
	}

	b.Cleanup(func() { _ = bc.Close() })

	return bc
}

// newStorageCache creates a cache backed by in-memory durable stores so
// benchmarks measure the caching layer rather than disk or network.
func newStorageCache(b *testing.B, optFns ...blockcache.Option) *blockcache.Cache {
	b.Helper()

	records := recordstore.NewMemory(blobstore.NewMemory())
	optFns = append([]blockcache.Option{blockcache.WithDurableStore(records)}, optFns...)

	return newVolatileCache(b, optFns...)
}

// genStructures builds n deterministic structures with distinct roots.
func genStructures(n, width, depth int) []*structure.BlockStructure {
	rng := testutil.NewRNG(benchSeed)
	roots := testutil.GenerateRoots("bench", n)

	out := make([]*structure.BlockStructure, n)
	for i, root := range roots {
		out[i] = testutil.GenerateStructure(rng, root, width, depth)
	}

	return out
}
