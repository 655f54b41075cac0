package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
)

// WithTracing wraps a stage with OpenTelemetry span creation.
// Each Process call creates a span named "stage.process.{name}".
func WithTracing[I, O any](stage Stage[I, O], name string) Stage[I, O] {
	return &tracingStage[I, O]{inner: stage, name: name}
}

type tracingStage[I, O any] struct {
	inner Stage[I, O]
	name  string
}

func (s *tracingStage[I, O]) Name() string                { return s.name }
func (s *tracingStage[I, O]) Reset() error                { return s.inner.Reset() }
func (s *tracingStage[I, O]) DataRemaining(before int) int { return s.inner.DataRemaining(before) }

func (s *tracingStage[I, O]) Process(ctx context.Context, in I) (O, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanStageProcess+"."+s.name)
	span.SetAttributes(attribute.String(observability.AttrStage, s.name))

	out, err := s.inner.Process(ctx, in)
	observability.EndSpan(span, err)
	return out, err
}

// WithMetrics wraps a stage with metric recording.
// Records call count, duration, and errors.
func WithMetrics[I, O any](stage Stage[I, O], name string, metrics *observability.Metrics) Stage[I, O] {
	return &metricsStage[I, O]{inner: stage, name: name, metrics: metrics}
}

type metricsStage[I, O any] struct {
	inner   Stage[I, O]
	name    string
	metrics *observability.Metrics
}

func (s *metricsStage[I, O]) Name() string                { return s.name }
func (s *metricsStage[I, O]) Reset() error                { return s.inner.Reset() }
func (s *metricsStage[I, O]) DataRemaining(before int) int { return s.inner.DataRemaining(before) }

func (s *metricsStage[I, O]) Process(ctx context.Context, in I) (O, error) {
	start := time.Now()
	out, err := s.inner.Process(ctx, in)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		s.metrics.RecordError(ctx, "process", s.name)
	}
	s.metrics.RecordStage(ctx, s.name, status, duration)

	return out, err
}

// WithLogging wraps a stage with execution logging.
// Logs: stage name, duration, and success/error status.
func WithLogging[I, O any](stage Stage[I, O], name string, log *logger.Logger) Stage[I, O] {
	return &loggingStage[I, O]{inner: stage, name: name, log: log}
}

type loggingStage[I, O any] struct {
	inner Stage[I, O]
	name  string
	log   *logger.Logger
}

func (s *loggingStage[I, O]) Name() string { return s.name }

func (s *loggingStage[I, O]) Reset() error {
	err := s.inner.Reset()
	if err != nil {
		fields := logger.ErrorFields("reset", err)
		fields[logger.FieldStage] = s.name
		s.log.Error("stage reset failed", fields)
	} else {
		s.log.Debug("stage reset", logger.Fields(logger.FieldStage, s.name))
	}
	return err
}

func (s *loggingStage[I, O]) DataRemaining(before int) int { return s.inner.DataRemaining(before) }

func (s *loggingStage[I, O]) Process(ctx context.Context, in I) (O, error) {
	start := time.Now()
	out, err := s.inner.Process(ctx, in)
	duration := time.Since(start)

	fields := map[string]interface{}{
		logger.FieldStage:    s.name,
		logger.FieldDuration: duration.Milliseconds(),
	}

	if err != nil {
		fields[logger.FieldError] = err.Error()
		s.log.Error("stage failed", fields)
	} else {
		s.log.Debug("stage completed", fields)
	}

	return out, err
}
