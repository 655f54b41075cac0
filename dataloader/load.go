package dataloader

import (
	"context"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/pipeline"
)

// loadResult is what a background load hands back through the mailbox.
// stage is always set, even when the load failed.
type loadResult[T any] struct {
	stage     pipeline.Stage[[]pipeline.Unit, []T]
	items     []T
	err       error
	requested int
	// remaining is the stage's DataRemaining(0) when the load started.
	remaining int
	duration  time.Duration
}

// startLoad moves the stage into a background load of LoadBlockSize units.
// Sources clamp the request to what they have left.
func (l *Loader[T]) startLoad(ctx context.Context) {
	stage := l.stage
	l.stage = nil
	remaining := stage.DataRemaining(0)

	mailbox := make(chan loadResult[T], 1)
	l.inflight = mailbox

	var rng *rand.Rand
	if l.cfg.shuffle() {
		rng = rand.New(rand.NewPCG(l.rng.Uint64(), l.rng.Uint64()))
	}
	n := l.cfg.LoadBlockSize

	l.log.Debug("load started", logger.Fields(
		logger.FieldRequested, n,
		logger.FieldQueueLen, len(l.queue),
	))
	l.publish()

	go runLoad(context.WithoutCancel(ctx), l.id, stage, n, remaining, rng, mailbox)
}

// runLoad processes one block and always sends exactly one result.
func runLoad[T any](ctx context.Context, loaderID string, stage pipeline.Stage[[]pipeline.Unit, []T], n, remaining int, rng *rand.Rand, mailbox chan<- loadResult[T]) {
	start := time.Now()
	res := loadResult[T]{stage: stage, requested: n, remaining: remaining}

	ctx, span := observability.StartSpan(ctx, observability.SpanLoaderLoad, trace.WithAttributes(
		attribute.String(observability.AttrLoaderID, loaderID),
		attribute.String(observability.AttrStage, pipeline.NameOf(stage)),
		attribute.Int(observability.AttrRequested, n),
	))

	defer func() {
		if r := recover(); r != nil {
			res.items = nil
			res.err = errors.Panicked(pipeline.NameOf(stage), r)
		}
		res.duration = time.Since(start)
		span.SetAttributes(attribute.Int(observability.AttrItems, len(res.items)))
		observability.EndSpan(span, res.err)
		mailbox <- res
	}()

	items, err := stage.Process(ctx, pipeline.Units(n))
	if err != nil {
		res.err = errors.StageFailed(pipeline.NameOf(stage), err)
		return
	}
	if rng != nil {
		rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	}
	res.items = items
}
