// Package shardwork partitions an index range into contiguous shards
// and runs one worker per shard concurrently, the same work-stealing
// pool role errgroup plays in other parts of the corpus, applied here
// to the Resolver's per-agent kernel.
package shardwork

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Range is a contiguous half-open index range [Start, End).
type Range struct {
	Start int
	End   int
}

// Shards splits [0, n) into at most numShards contiguous ranges of
// roughly equal size. It never returns more shards than n, and never
// an empty range.
func Shards(n, numShards int) []Range {
	if n <= 0 {
		return nil
	}
	if numShards < 1 {
		numShards = 1
	}
	if numShards > n {
		numShards = n
	}
	base := n / numShards
	rem := n % numShards
	ranges := make([]Range, 0, numShards)
	start := 0
	for i := 0; i < numShards; i++ {
		size := base
		if i < rem {
			size++
		}
		ranges = append(ranges, Range{Start: start, End: start + size})
		start += size
	}
	return ranges
}

// Run executes fn once per shard of [0, n), fanned out across an
// errgroup with up to numShards goroutines, and returns the first
// error any shard returns (after all shards have finished, per
// errgroup.Group's semantics). Serial execution (numShards==1) takes
// the same code path. With more than one shard the workers run
// concurrently, so a result that depends on the order in which
// shards touch shared state is not reproducible from run to run.
func Run(ctx context.Context, n, numShards int, fn func(ctx context.Context, shardIdx int, r Range) error) error {
	shards := Shards(n, numShards)
	g, ctx := errgroup.WithContext(ctx)
	for i, r := range shards {
		i, r := i, r
		g.Go(func() error {
			return fn(ctx, i, r)
		})
	}
	return g.Wait()
}
