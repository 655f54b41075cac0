package pipeline

import (
	"context"
	"slices"
)

// Batch groups a flat slice into chunks of at most size items. The last
// chunk is shorter when len(in) is not a multiple of size.
//
// DataRemaining reports before/size: a short trailing chunk is not counted
// until enough raw items exist to fill it. size <= 0 defaults to 1.
func Batch[T any](size int) Stage[[]T, [][]T] {
	if size <= 0 {
		size = 1
	}
	return &batchStage[T]{size: size}
}

// ArrayBatch groups a flat slice into chunks of exactly size items and drops
// any incomplete remainder.
func ArrayBatch[T any](size int) Stage[[]T, [][]T] {
	if size <= 0 {
		size = 1
	}
	return &batchStage[T]{size: size, exact: true}
}

type batchStage[T any] struct {
	size  int
	exact bool
}

func (s *batchStage[T]) Process(_ context.Context, in []T) ([][]T, error) {
	if s.exact {
		in = in[:len(in)/s.size*s.size]
	}
	batches := make([][]T, 0, (len(in)+s.size-1)/s.size)
	for chunk := range slices.Chunk(in, s.size) {
		batches = append(batches, chunk)
	}
	return batches, nil
}

func (s *batchStage[T]) Reset() error { return nil }

func (s *batchStage[T]) DataRemaining(before int) int {
	return before / s.size
}

// Flatten concatenates a slice of batches back into one slice.
func Flatten[T any]() Stage[[][]T, []T] {
	return Func(func(in [][]T) []T {
		return slices.Concat(in...)
	})
}
