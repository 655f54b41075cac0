package pipeline

import (
	"context"
	"errors"
	"math"
	"math/bits"
)

// Selector draws from several sub-stages in proportion to how much data each
// has left, so small corpora exhaust at the same relative rate as large ones.
//
// A request of M items is split into floor(M * remaining_i / total) items per
// sub-stage. Rounding leftovers are dropped, not redistributed.
type Selector[I, O any] struct {
	stages []Stage[[]I, []O]
}

// NewSelector creates a Selector over stages.
func NewSelector[I, O any](stages ...Stage[[]I, []O]) *Selector[I, O] {
	return &Selector[I, O]{stages: stages}
}

// Add appends a sub-stage and returns the selector.
func (s *Selector[I, O]) Add(stage Stage[[]I, []O]) *Selector[I, O] {
	s.stages = append(s.stages, stage)
	return s
}

// Len returns the number of sub-stages.
func (s *Selector[I, O]) Len() int { return len(s.stages) }

// Shares returns how many of m items each sub-stage would receive right now.
// Shares never sum past m: when the total saturates, as with transform
// sub-stages reporting identity remaining, later sub-stages get what is left.
func (s *Selector[I, O]) Shares(m int) []int {
	remaining := make([]int, len(s.stages))
	total := 0
	for i, st := range s.stages {
		remaining[i] = max(st.DataRemaining(math.MaxInt), 0)
		total = saturatingAdd(total, remaining[i])
	}
	shares := make([]int, len(s.stages))
	if total == 0 || m <= 0 {
		return shares
	}
	left := m
	for i, r := range remaining {
		shares[i] = min(proportion(m, r, total), left)
		left -= shares[i]
	}
	return shares
}

// Process partitions in across the sub-stages and concatenates their outputs
// in sub-stage order.
func (s *Selector[I, O]) Process(ctx context.Context, in []I) ([]O, error) {
	out := []O{}
	offset := 0
	for i, n := range s.Shares(len(in)) {
		if n == 0 {
			continue
		}
		res, err := s.stages[i].Process(ctx, in[offset:offset+n])
		if err != nil {
			return nil, err
		}
		offset += n
		out = append(out, res...)
	}
	return out, nil
}

// Reset resets every sub-stage in index order.
func (s *Selector[I, O]) Reset() error {
	errs := make([]error, 0, len(s.stages))
	for _, st := range s.stages {
		errs = append(errs, st.Reset())
	}
	return errors.Join(errs...)
}

// DataRemaining is the sum over all sub-stages.
func (s *Selector[I, O]) DataRemaining(before int) int {
	total := 0
	for _, st := range s.stages {
		total = saturatingAdd(total, max(st.DataRemaining(before), 0))
	}
	return total
}

// Name implements Named.
func (s *Selector[I, O]) Name() string { return "selector" }

// proportion computes floor(m * part / total) without overflow. part <= total.
func proportion(m, part, total int) int {
	hi, lo := bits.Mul64(uint64(m), uint64(part))
	q, _ := bits.Div64(hi, lo, uint64(total))
	return int(q)
}

func saturatingAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
