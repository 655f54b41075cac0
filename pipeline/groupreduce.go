package pipeline

import (
	"cmp"
	"context"
	"slices"
)

// KeyValue is one pair emitted by a GroupReduce map function.
type KeyValue[K, V any] struct {
	Key   K
	Value V
}

// KV builds a KeyValue.
func KV[K, V any](k K, v V) KeyValue[K, V] {
	return KeyValue[K, V]{Key: k, Value: v}
}

// GroupReduce maps every input element to zero or more key/value pairs,
// groups the values by key and reduces each group to zero or more outputs.
// Groups are emitted in ascending key order, so the output does not depend
// on the arrival order of the input. Values inside a group keep arrival order.
func GroupReduce[I any, K cmp.Ordered, V, O any](mapFn func(I) []KeyValue[K, V], reduceFn func(K, []V) []O) Stage[[]I, []O] {
	return GroupReduceFunc(mapFn, reduceFn, cmp.Compare[K])
}

// GroupReduceFunc is GroupReduce under a caller supplied total order on keys.
// Keys are only ever compared, never hashed.
func GroupReduceFunc[I, K, V, O any](mapFn func(I) []KeyValue[K, V], reduceFn func(K, []V) []O, compare func(a, b K) int) Stage[[]I, []O] {
	return &groupReduceStage[I, K, V, O]{mapFn: mapFn, reduceFn: reduceFn, compare: compare}
}

type groupReduceStage[I, K, V, O any] struct {
	Defaults
	mapFn    func(I) []KeyValue[K, V]
	reduceFn func(K, []V) []O
	compare  func(a, b K) int
}

func (s *groupReduceStage[I, K, V, O]) Process(_ context.Context, in []I) ([]O, error) {
	var pairs []KeyValue[K, V]
	for _, v := range in {
		pairs = append(pairs, s.mapFn(v)...)
	}
	slices.SortStableFunc(pairs, func(a, b KeyValue[K, V]) int {
		return s.compare(a.Key, b.Key)
	})

	out := []O{}
	for start := 0; start < len(pairs); {
		end := start + 1
		for end < len(pairs) && s.compare(pairs[start].Key, pairs[end].Key) == 0 {
			end++
		}
		values := make([]V, 0, end-start)
		for _, p := range pairs[start:end] {
			values = append(values, p.Value)
		}
		out = append(out, s.reduceFn(pairs[start].Key, values)...)
		start = end
	}
	return out, nil
}
