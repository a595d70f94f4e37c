package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hupe1980/blockcache"
	"github.com/hupe1980/blockcache/blobstore"
	"github.com/hupe1980/blockcache/cache"
	"github.com/hupe1980/blockcache/recordstore"
	"github.com/hupe1980/blockcache/testutil"
)

func main() {
	seed := int64(4711)
	width := 8
	depth := 2
	size := 10000

	ctx := context.Background()

	fast := cache.NewMemory()
	records := recordstore.NewMemory(blobstore.NewMemory())
	metrics := &blockcache.BasicMetricsCollector{}

	bc, err := blockcache.New(fast,
		blockcache.WithDurableStore(records),
		blockcache.WithMetricsCollector(metrics),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer bc.Close()

	rng := testutil.NewRNG(seed)
	roots := testutil.GenerateRoots("doc", size)

	fmt.Println("--- Add ---")
	fmt.Println("Blocks per structure:", testutil.NumBlocks(width, depth))
	fmt.Println("Structures:", size)

	start := time.Now()

	for _, root := range roots {
		if err := bc.Add(ctx, testutil.GenerateStructure(rng, root, width, depth)); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("Seconds: %.2f\n\n", time.Since(start).Seconds())

	fmt.Println("--- Get (fast tier) ---")

	start = time.Now()

	for _, root := range roots {
		if _, err := bc.Get(ctx, root); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("Seconds: %.2f\n\n", time.Since(start).Seconds())

	fmt.Println("--- Get (durable fallback) ---")

	for _, root := range roots {
		if err := bc.Delete(ctx, root); err != nil {
			log.Fatal(err)
		}
	}

	start = time.Now()

	for _, root := range roots {
		if _, err := bc.Get(ctx, root); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("Seconds: %.2f\n\n", time.Since(start).Seconds())

	stats := metrics.GetStats()
	fmt.Println("--- Stats ---")
	fmt.Println("Adds:", stats.AddCount)
	fmt.Println("Gets:", stats.GetCount)
	fmt.Println("Fast hits:", stats.GetFastHits)
	fmt.Println("Durable fallbacks:", stats.GetDurable)
	fmt.Println("Avg get latency:", time.Duration(stats.GetAvgNanos))
}
