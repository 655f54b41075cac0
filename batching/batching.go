// Package batching holds helpers that operate on parallel lists: several
// equal-length slices whose i-th elements describe the same example, such as
// token ids and target ids. Every helper applies one reordering or filter to
// all lists at once so the correspondence between fields is kept.
package batching

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/kbukum/dataflow/errors"
)

// Bound returns a pointer to n for the optional FilterByLength bounds.
func Bound(n int) *int { return &n }

// ShuffleLists applies one random permutation to every list. A nil rng uses
// a generator seeded from system entropy.
func ShuffleLists[T any](lists [][]T, rng *rand.Rand) error {
	n, err := rows(lists)
	if err != nil {
		return err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	permute(lists, rng.Perm(n))
	return nil
}

// SortListsBy stably sorts every list by key applied to the elements of the
// first list. With longestFirst the order is descending; ties keep their
// relative order either way.
func SortListsBy[T any](lists [][]T, key func(T) int, longestFirst bool) error {
	n, err := rows(lists)
	if err != nil || n == 0 {
		return err
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	first := lists[0]
	slices.SortStableFunc(order, func(a, b int) int {
		if longestFirst {
			return cmp.Compare(key(first[b]), key(first[a]))
		}
		return cmp.Compare(key(first[a]), key(first[b]))
	})
	permute(lists, order)
	return nil
}

// SortListsByLength is SortListsBy keyed on element length.
func SortListsByLength[S ~[]E, E any](lists [][]S, longestFirst bool) error {
	return SortListsBy(lists, func(s S) int { return len(s) }, longestFirst)
}

// FilterBy drops, from every list, each row where any list's element has a
// length outside [minLen, maxLen]. A nil bound is unbounded on that side.
// The input lists are not modified.
func FilterBy[T any](lists [][]T, length func(T) int, minLen, maxLen *int) ([][]T, error) {
	n, err := rows(lists)
	if err != nil {
		return nil, err
	}
	keep := make([]bool, n)
	for i := range n {
		keep[i] = true
		for _, list := range lists {
			l := length(list[i])
			if (minLen != nil && l < *minLen) || (maxLen != nil && l > *maxLen) {
				keep[i] = false
				break
			}
		}
	}

	out := make([][]T, len(lists))
	for x, list := range lists {
		out[x] = make([]T, 0, n)
		for i, v := range list {
			if keep[i] {
				out[x] = append(out[x], v)
			}
		}
	}
	return out, nil
}

// FilterByLength is FilterBy keyed on element length.
func FilterByLength[S ~[]E, E any](lists [][]S, minLen, maxLen *int) ([][]S, error) {
	return FilterBy(lists, func(s S) int { return len(s) }, minLen, maxLen)
}

// PadBatch appends pad to every sequence until all are as long as the
// longest one. Sequences are extended in place when capacity allows.
func PadBatch[E any](batch [][]E, pad E) [][]E {
	longest := 0
	for _, seq := range batch {
		longest = max(longest, len(seq))
	}
	for i, seq := range batch {
		for len(seq) < longest {
			seq = append(seq, pad)
		}
		batch[i] = seq
	}
	return batch
}

// PadMask returns a mask shaped like batch that is true exactly where an
// element equals pad.
func PadMask[E comparable](batch [][]E, pad E) [][]bool {
	mask := make([][]bool, len(batch))
	for i, seq := range batch {
		mask[i] = make([]bool, len(seq))
		for j, v := range seq {
			mask[i][j] = v == pad
		}
	}
	return mask
}

// rows returns the common length of lists.
func rows[T any](lists [][]T) (int, error) {
	if len(lists) == 0 {
		return 0, nil
	}
	n := len(lists[0])
	for x, list := range lists[1:] {
		if len(list) != n {
			return 0, errors.InvalidInput("lists",
				fmt.Sprintf("list %d has %d elements, list 0 has %d", x+1, len(list), n))
		}
	}
	return n, nil
}

// permute reorders every list so that row i becomes row order[i].
func permute[T any](lists [][]T, order []int) {
	tmp := make([]T, len(order))
	for _, list := range lists {
		for i, src := range order {
			tmp[i] = list[src]
		}
		copy(list, tmp)
	}
}
