// Package parallel provides the work-partitioning strategy for the
// resampler's batch dimension.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool  // Whether parallel execution is enabled.
	NumWorkers   int   // Number of worker goroutines to use.
	MinShardCost int64 // Minimum estimated cost per shard, in cost units (~1ns each).
}

// DefaultConfig returns sensible defaults based on CPU count.
// The shard-cost floor keeps goroutine dispatch overhead below the work it
// covers: with cost units read as nanoseconds, a shard carries at least
// ~10us of estimated work.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinShardCost: 10_000,
	}
}

// ForRange partitions [0, n) into disjoint contiguous ranges and invokes
// work(start, limit) for each, possibly concurrently. costPerElement is an
// estimate of the work per index, used only to pick shard granularity;
// every index is covered exactly once regardless.
//
// Falls back to a single sequential call when parallelism is disabled or
// the total estimated cost does not justify sharding.
func ForRange(n int, costPerElement int64, work func(start, limit int), cfg Config) {
	if n <= 0 {
		return
	}
	if costPerElement < 1 {
		costPerElement = 1
	}

	shardSize := shardSizeFor(n, costPerElement, cfg)
	if !cfg.Enabled || shardSize >= n {
		work(0, n)
		return
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += shardSize {
		limit := min(start+shardSize, n)
		wg.Add(1)
		go func(s, l int) {
			defer wg.Done()
			work(s, l)
		}(start, limit)
	}
	wg.Wait()
}

// shardSizeFor picks the number of indices per shard: large enough that a
// shard meets the cost floor, small enough to keep every worker busy.
func shardSizeFor(n int, costPerElement int64, cfg Config) int {
	minSize := int((cfg.MinShardCost + costPerElement - 1) / costPerElement)
	if minSize < 1 {
		minSize = 1
	}

	workers := cfg.NumWorkers
	if workers < 1 {
		workers = 1
	}
	perWorker := (n + workers - 1) / workers

	return max(minSize, perWorker)
}
