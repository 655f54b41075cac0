package pipeline

import (
	"context"
	"errors"
)

// Stateless lifts fn into a stage with default Reset and DataRemaining.
func Stateless[I, O any](fn func(context.Context, I) (O, error)) Stage[I, O] {
	return &statelessStage[I, O]{fn: fn}
}

// Func lifts a pure function into a stage.
func Func[I, O any](fn func(I) O) Stage[I, O] {
	return Stateless(func(_ context.Context, in I) (O, error) {
		return fn(in), nil
	})
}

// Stateful lifts fn into a stage that owns state. fn receives a pointer to
// the state on every call; the state lives as long as the stage.
func Stateful[I, O, S any](state S, fn func(context.Context, I, *S) (O, error)) Stage[I, O] {
	return &statefulStage[I, O, S]{state: state, fn: fn}
}

// Chain runs a, then feeds its output to b.
func Chain[I, M, O any](a Stage[I, M], b Stage[M, O]) Stage[I, O] {
	return &chainStage[I, M, O]{first: a, second: b}
}

// Chain3 is Chain(Chain(a, b), c).
func Chain3[I, M1, M2, O any](a Stage[I, M1], b Stage[M1, M2], c Stage[M2, O]) Stage[I, O] {
	return Chain(Chain(a, b), c)
}

// Chain4 is Chain(Chain3(a, b, c), d).
func Chain4[I, M1, M2, M3, O any](a Stage[I, M1], b Stage[M1, M2], c Stage[M2, M3], d Stage[M3, O]) Stage[I, O] {
	return Chain(Chain3(a, b, c), d)
}

// Duplicator emits (clone(x), x). A nil clone copies the value as is, which
// shares backing arrays for slices and maps.
func Duplicator[T any](clone func(T) T) Stage[T, Tuple[T, T]] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &duplicatorStage[T]{clone: clone}
}

// Pair runs first on the tuple's first half and second on its second half.
// Both run sequentially on the calling goroutine.
func Pair[I1, O1, I2, O2 any](first Stage[I1, O1], second Stage[I2, O2]) Stage[Tuple[I1, I2], Tuple[O1, O2]] {
	return &pairStage[I1, O1, I2, O2]{first: first, second: second}
}

// Split branches upstream into two continuations over a shared value and
// rejoins them as a Tuple. With a nil clone both branches see the same slice
// or map, so an in-place stage such as Sort on one branch reorders the other
// branch's input too; pass slices.Clone (or a deeper copy) when either branch
// mutates.
func Split[I, M, O1, O2 any](upstream Stage[I, M], clone func(M) M, left Stage[M, O1], right Stage[M, O2]) Stage[I, Tuple[O1, O2]] {
	return Chain(Chain(upstream, Duplicator(clone)), Pair(left, right))
}

// Zip turns a tuple of parallel slices into a slice of tuples, truncated to
// the shorter half.
func Zip[A, B any]() Stage[Tuple[[]A, []B], []Tuple[A, B]] {
	return Func(func(t Tuple[[]A, []B]) []Tuple[A, B] {
		n := min(len(t.First), len(t.Second))
		out := make([]Tuple[A, B], n)
		for i := range n {
			out[i] = Tuple[A, B]{First: t.First[i], Second: t.Second[i]}
		}
		return out
	})
}

// Map lifts a per-element stage to run over every element of a slice,
// preserving order and length.
func Map[I, O any](inner Stage[I, O]) Stage[[]I, []O] {
	return &mapStage[I, O]{inner: inner}
}

// MapFunc is Map(Func(fn)).
func MapFunc[I, O any](fn func(I) O) Stage[[]I, []O] {
	return Map(Func(fn))
}

// --- Stage implementations ---

type statelessStage[I, O any] struct {
	Defaults
	fn func(context.Context, I) (O, error)
}

func (s *statelessStage[I, O]) Process(ctx context.Context, in I) (O, error) {
	return s.fn(ctx, in)
}

type statefulStage[I, O, S any] struct {
	Defaults
	state S
	fn    func(context.Context, I, *S) (O, error)
}

func (s *statefulStage[I, O, S]) Process(ctx context.Context, in I) (O, error) {
	return s.fn(ctx, in, &s.state)
}

type chainStage[I, M, O any] struct {
	first  Stage[I, M]
	second Stage[M, O]
}

func (s *chainStage[I, M, O]) Process(ctx context.Context, in I) (O, error) {
	mid, err := s.first.Process(ctx, in)
	if err != nil {
		var zero O
		return zero, err
	}
	return s.second.Process(ctx, mid)
}

func (s *chainStage[I, M, O]) Reset() error {
	return errors.Join(s.first.Reset(), s.second.Reset())
}

func (s *chainStage[I, M, O]) DataRemaining(before int) int {
	return s.second.DataRemaining(s.first.DataRemaining(before))
}

type duplicatorStage[T any] struct {
	Defaults
	clone func(T) T
}

func (s *duplicatorStage[T]) Process(_ context.Context, in T) (Tuple[T, T], error) {
	return Tuple[T, T]{First: s.clone(in), Second: in}, nil
}

type pairStage[I1, O1, I2, O2 any] struct {
	first  Stage[I1, O1]
	second Stage[I2, O2]
}

func (s *pairStage[I1, O1, I2, O2]) Process(ctx context.Context, in Tuple[I1, I2]) (Tuple[O1, O2], error) {
	var out Tuple[O1, O2]
	a, err := s.first.Process(ctx, in.First)
	if err != nil {
		return out, err
	}
	b, err := s.second.Process(ctx, in.Second)
	if err != nil {
		return out, err
	}
	out.First, out.Second = a, b
	return out, nil
}

func (s *pairStage[I1, O1, I2, O2]) Reset() error {
	return errors.Join(s.first.Reset(), s.second.Reset())
}

// DataRemaining is capped by the weaker branch so a tuple is never half full.
func (s *pairStage[I1, O1, I2, O2]) DataRemaining(before int) int {
	return min(s.first.DataRemaining(before), s.second.DataRemaining(before))
}

type mapStage[I, O any] struct {
	inner Stage[I, O]
}

func (s *mapStage[I, O]) Process(ctx context.Context, in []I) ([]O, error) {
	out := make([]O, len(in))
	for i, v := range in {
		o, err := s.inner.Process(ctx, v)
		if err != nil {
			return nil, err
		}
		out[i] = o
	}
	return out, nil
}

func (s *mapStage[I, O]) Reset() error { return s.inner.Reset() }

func (s *mapStage[I, O]) DataRemaining(before int) int { return before }
