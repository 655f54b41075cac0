package batching

import (
	"slices"

	"github.com/kbukum/dataflow/pipeline"
)

// Pad is PadBatch as a stage. Wrap it in pipeline.Map to pad every batch
// emitted by pipeline.Batch.
func Pad[E any](pad E) pipeline.Stage[[][]E, [][]E] {
	return pipeline.Func(func(batch [][]E) [][]E {
		return PadBatch(batch, pad)
	})
}

// Mask pairs each padded batch with its PadMask.
func Mask[E comparable](pad E) pipeline.Stage[[][]E, pipeline.Tuple[[][]E, [][]bool]] {
	return pipeline.Func(func(batch [][]E) pipeline.Tuple[[][]E, [][]bool] {
		return pipeline.MakeTuple(batch, PadMask(batch, pad))
	})
}

// DropLongerThan removes sequences longer than maxLen from a flat slice of
// sequences. The stage changes cardinality only by filtering, so it keeps the
// identity DataRemaining and over-reports by the number of dropped items.
func DropLongerThan[S ~[]E, E any](maxLen int) pipeline.Stage[[]S, []S] {
	return pipeline.Func(func(in []S) []S {
		return slices.DeleteFunc(in, func(s S) bool { return len(s) > maxLen })
	})
}
