package pipeline

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
)

// Sort orders a batch in place with a stable sort under compare, which must be a
// total order returning a negative, zero or positive number.
func Sort[T any](compare func(a, b T) int) Stage[[]T, []T] {
	return Stateless(func(_ context.Context, in []T) ([]T, error) {
		slices.SortStableFunc(in, compare)
		return in, nil
	})
}

// SortByKey sorts a batch by an ordered key derived from each element,
// such as its length.
func SortByKey[T any, K cmp.Ordered](key func(T) K) Stage[[]T, []T] {
	return Sort(func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}

// ShuffleOption configures Shuffle.
type ShuffleOption func(*shuffleConfig)

type shuffleConfig struct {
	seed *uint64
}

// WithSeed makes the shuffle deterministic.
func WithSeed(seed uint64) ShuffleOption {
	return func(c *shuffleConfig) { c.seed = &seed }
}

// Shuffle permutes a fully materialized batch uniformly at random, in place.
// The generator is seeded once, at construction, from system entropy unless
// WithSeed is given.
func Shuffle[T any](opts ...ShuffleOption) Stage[[]T, []T] {
	var cfg shuffleConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &shuffleStage[T]{rng: newRand(cfg.seed)}
}

type shuffleStage[T any] struct {
	Defaults
	rng *rand.Rand
}

func (s *shuffleStage[T]) Process(_ context.Context, in []T) ([]T, error) {
	s.rng.Shuffle(len(in), func(i, j int) { in[i], in[j] = in[j], in[i] })
	return in, nil
}

// newRand returns a PCG generator seeded from seed, or from entropy when
// seed is nil.
func newRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
}
