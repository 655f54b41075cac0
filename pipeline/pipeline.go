package pipeline

import (
	"context"
	"fmt"
)

// Unit is the placeholder element a source receives. The length of a
// []Unit, not its contents, is the number of items requested.
type Unit = struct{}

// Stage is the unit of computation every pipeline is built from.
//
// Process transforms one unit of work. Reset is called at every epoch
// boundary; composite stages forward it to each child in a fixed order.
// DataRemaining receives the number of items the upstream stage still has
// ready and returns how many this stage can still yield.
type Stage[I, O any] interface {
	Process(ctx context.Context, in I) (O, error)
	Reset() error
	DataRemaining(before int) int
}

// Named is implemented by stages that report a name for logs and metrics.
type Named interface {
	Name() string
}

// NameOf returns the stage's name, falling back to its Go type.
func NameOf(s any) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// Defaults provides the default Reset (no-op) and DataRemaining (identity).
// Embed it in stages that do not change cardinality and hold no cursor.
type Defaults struct{}

// Reset does nothing.
func (Defaults) Reset() error { return nil }

// DataRemaining returns before unchanged.
func (Defaults) DataRemaining(before int) int { return before }

// Tuple carries the two halves handled by Duplicator, Pair and Split.
type Tuple[A, B any] struct {
	First  A
	Second B
}

// MakeTuple builds a Tuple.
func MakeTuple[A, B any](a A, b B) Tuple[A, B] {
	return Tuple[A, B]{First: a, Second: b}
}

// Units returns a request for n items.
func Units(n int) []Unit {
	if n < 0 {
		n = 0
	}
	return make([]Unit, n)
}

// Pull requests n items from a source-rooted stage.
func Pull[T any](ctx context.Context, s Stage[[]Unit, T], n int) (T, error) {
	return s.Process(ctx, Units(n))
}

// Remaining reports how many items a source-rooted stage can still yield.
func Remaining[I, O any](s Stage[I, O]) int {
	return s.DataRemaining(0)
}
