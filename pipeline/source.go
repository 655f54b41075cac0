package pipeline

import (
	"context"
	"math/rand/v2"
	"slices"
)

// SourceOption configures the built-in sources.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	shuffle   bool
	seed      *uint64
	delimiter string
	minIndex  int
	maxIndex  int
	name      string
}

func newSourceConfig(opts []SourceOption) sourceConfig {
	cfg := sourceConfig{delimiter: "\n", maxIndex: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithShuffle randomizes the visitation order on every reset.
func WithShuffle() SourceOption {
	return func(c *sourceConfig) { c.shuffle = true }
}

// WithShuffleSeed randomizes the visitation order with a deterministic seed.
func WithShuffleSeed(seed uint64) SourceOption {
	return func(c *sourceConfig) {
		c.shuffle = true
		c.seed = &seed
	}
}

// WithSourceName sets the name reported through Named.
func WithSourceName(name string) SourceOption {
	return func(c *sourceConfig) { c.name = name }
}

// SliceSource yields the elements of an in-memory slice.
type SliceSource[T any] struct {
	items []T
	index int
	cfg   sourceConfig
	rng   *rand.Rand
}

// FromSlice creates a source over a copy of items. The source starts
// rewound; with WithShuffle the order is reshuffled on every Reset.
func FromSlice[T any](items []T, opts ...SourceOption) *SliceSource[T] {
	cfg := newSourceConfig(opts)
	s := &SliceSource[T]{items: slices.Clone(items), cfg: cfg}
	if cfg.shuffle {
		s.rng = newRand(cfg.seed)
	}
	return s
}

// Process returns up to len(in) items from the cursor.
func (s *SliceSource[T]) Process(_ context.Context, in []Unit) ([]T, error) {
	end := min(s.index+len(in), len(s.items))
	out := slices.Clone(s.items[s.index:end])
	s.index = end
	return out, nil
}

// Reset rewinds the cursor and reshuffles when configured to.
func (s *SliceSource[T]) Reset() error {
	if s.rng != nil {
		s.rng.Shuffle(len(s.items), func(i, j int) {
			s.items[i], s.items[j] = s.items[j], s.items[i]
		})
	}
	s.index = 0
	return nil
}

// DataRemaining ignores before and reports the items left this epoch.
func (s *SliceSource[T]) DataRemaining(int) int {
	return len(s.items) - s.index
}

// Name implements Named.
func (s *SliceSource[T]) Name() string {
	if s.cfg.name != "" {
		return s.cfg.name
	}
	return "slice"
}

// Range creates a source over the integers [0, n).
func Range(n int, opts ...SourceOption) *SliceSource[int] {
	items := make([]int, max(n, 0))
	for i := range items {
		items[i] = i
	}
	return FromSlice(items, opts...)
}
