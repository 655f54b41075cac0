// Package pipeline provides a typed algebra of composable data stages.
//
// Every stage implements Stage[I, O]: Process transforms one unit of work,
// Reset prepares the stage for a new epoch and DataRemaining reports how many
// items the stage can still yield given what its upstream has ready.
// Combinators nest stages into one composite stage whose seams are checked at
// compile time; the composite forwards Reset to every child in a fixed order.
//
// A source stage takes a []Unit whose length is the number of items
// requested and returns at most that many items.
//
// # Combinators
//
//   - Chain, Chain3, Chain4: run stages in sequence
//   - Duplicator: emit (clone(x), x)
//   - Pair: run two stages on the halves of a Tuple
//   - Split: Chain(upstream, Duplicator) followed by Pair
//   - Map, MapFunc: lift a per-element stage over a slice
//   - Batch, ArrayBatch: chunk a flat slice
//   - Sort, SortByKey, Shuffle: reorder a materialized batch
//   - GroupReduce: map to key/value pairs, group by key, reduce per group
//   - Selector: draw from sub-stages in proportion to their remaining data
//   - Stateless, Func, Stateful: adapt plain functions
//
// # Sources
//
//   - FromSlice, Range: in-memory items
//   - Lines, LinesFromDir: delimited segments of files on an afero.Fs
//
// # Decorators
//
// WithTracing, WithMetrics and WithLogging observe a stage; WithRetry re-runs
// it after retryable failures. All of them forward Reset and DataRemaining.
//
// # Usage
//
//	src := pipeline.Range(10000, pipeline.WithShuffle())
//	p := pipeline.Chain3(
//	    src,
//	    pipeline.MapFunc(func(n int) int { return n * 10 }),
//	    pipeline.Batch[int](10),
//	)
//	batches, err := pipeline.Pull(ctx, p, 1000)
//
// Stages are not safe for concurrent use. The dataloader package drives a
// composite stage from one background worker at a time.
package pipeline
