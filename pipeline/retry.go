package pipeline

import (
	"context"

	"github.com/kbukum/dataflow/resilience"
)

// WithRetry re-runs Process and Reset of stage while they fail with an error
// cfg.RetryIf accepts; by default only retryable errors such as IO_ERROR.
// The wrapped stage must leave its state unchanged when it fails.
func WithRetry[I, O any](stage Stage[I, O], cfg resilience.RetryConfig) Stage[I, O] {
	cfg.ApplyDefaults()
	return &retryStage[I, O]{inner: stage, cfg: cfg}
}

type retryStage[I, O any] struct {
	inner Stage[I, O]
	cfg   resilience.RetryConfig
}

func (s *retryStage[I, O]) Name() string                { return NameOf(s.inner) }
func (s *retryStage[I, O]) DataRemaining(before int) int { return s.inner.DataRemaining(before) }

func (s *retryStage[I, O]) Process(ctx context.Context, in I) (O, error) {
	return resilience.Retry(ctx, s.cfg, func() (O, error) {
		return s.inner.Process(ctx, in)
	})
}

func (s *retryStage[I, O]) Reset() error {
	return resilience.RetryFunc(context.Background(), s.cfg, s.inner.Reset)
}
