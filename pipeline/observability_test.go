package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
)

func TestWithTracing_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	}()

	boom := errors.New("boom")
	traced := WithTracing(Stateless(func(_ context.Context, n int) (int, error) {
		if n < 0 {
			return 0, boom
		}
		return n, nil
	}), "abs")

	if _, err := traced.Process(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := traced.Process(ctx, -1); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "stage.process.abs" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[1].Status())
	}
	if NameOf(traced) != "abs" {
		t.Errorf("expected decorated name, got %q", NameOf(traced))
	}
}

func TestWithMetrics_ForwardsStageContract(t *testing.T) {
	metrics, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	src := Range(10)
	wrapped := WithMetrics[[]Unit, []int](src, "ids", metrics)

	got, err := Pull(ctx, wrapped, 4)
	if err != nil || len(got) != 4 {
		t.Fatalf("got %v, %v", got, err)
	}
	if Remaining(wrapped) != 6 {
		t.Errorf("expected 6 remaining through the decorator, got %d", Remaining(wrapped))
	}
	if err := wrapped.Reset(); err != nil {
		t.Fatal(err)
	}
	if Remaining(src) != 10 {
		t.Errorf("expected reset to reach the source, got %d", Remaining(src))
	}
}

func TestWithLogging_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	boom := errors.New("boom")
	logged := WithLogging(Stateless(func(context.Context, int) (int, error) {
		return 0, boom
	}), "fail", log)

	if _, err := logged.Process(ctx, 1); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"stage":"fail"`) || !strings.Contains(out, "stage failed") {
		t.Errorf("unexpected log output %s", out)
	}
}
