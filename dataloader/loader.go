package dataloader

import (
	"context"
	"iter"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/pipeline"
)

// Loader prefetches the output of a source-rooted stage.
//
// Every background load requests exactly Config.LoadBlockSize units, not
// min(LoadBlockSize, DataRemaining): sources clamp the request themselves,
// and clamping against a batched pipeline's remaining count would strand
// items that do not fill a whole batch.
//
// A Loader is driven by one consumer goroutine: Next, Len, Epoch and Close
// must not be called concurrently. Health may be called from any goroutine.
type Loader[T any] struct {
	id      string
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
	rng     *rand.Rand

	// stage is nil exactly while inflight holds a load.
	stage    pipeline.Stage[[]pipeline.Unit, []T]
	inflight chan loadResult[T]
	queue    []T
	stalled  bool

	epoch     int
	delivered int
	poisoned  error
	closed    bool

	mu     sync.Mutex
	health observability.Health
}

// New creates a Loader over stage and resets the stage once so the first
// epoch starts fresh.
func New[T any](stage pipeline.Stage[[]pipeline.Unit, []T], opts ...Option) (*Loader[T], error) {
	if stage == nil {
		return nil, errors.MissingField("stage")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	o.cfg.ApplyDefaults()
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}

	seed := o.cfg.Seed
	if o.seed != nil {
		seed = *o.seed
	} else if seed == 0 {
		seed = rand.Uint64()
	}

	id := uuid.NewString()
	l := &Loader[T]{
		id:      id,
		cfg:     o.cfg,
		log:     o.log.WithComponent("dataloader").WithFields(logger.Fields(logger.FieldLoaderID, id, "loader", o.cfg.Name)),
		metrics: o.metrics,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		stage:   stage,
	}
	if err := stage.Reset(); err != nil {
		return nil, errors.StageFailed(pipeline.NameOf(stage), err)
	}
	l.publish()

	l.log.Debug("loader created", logger.Fields(
		logger.FieldStage, pipeline.NameOf(stage),
		"load_block_size", l.cfg.LoadBlockSize,
		"buffer_size", l.cfg.BufferSize,
		logger.FieldRemaining, stage.DataRemaining(0),
	))
	return l, nil
}

// ID returns the loader's unique id.
func (l *Loader[T]) ID() string { return l.id }

// Next returns the next item of the current epoch. ok is false, with a nil
// error, when the epoch is exhausted; the stage has then been reset and the
// next call starts a new epoch. If ctx is cancelled while waiting for a load,
// Next returns ctx.Err() and the load keeps running.
func (l *Loader[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := l.usable(); err != nil {
		return zero, false, err
	}

	for {
		// Reclaim a finished load without blocking.
		if l.inflight != nil {
			select {
			case res := <-l.inflight:
				if err := l.reclaim(ctx, res); err != nil {
					return zero, false, err
				}
			default:
			}
		}

		if l.stage != nil && !l.stalled && len(l.queue) < l.cfg.BufferSize && l.stage.DataRemaining(0) > 0 {
			l.startLoad(ctx)
		}

		if len(l.queue) > 0 {
			item := l.queue[0]
			l.queue[0] = zero
			l.queue = l.queue[1:]
			l.delivered++
			if l.metrics != nil {
				l.metrics.RecordDelivered(ctx, l.cfg.Name, 1)
			}
			return item, true, nil
		}

		if l.inflight != nil {
			res, err := l.await(ctx)
			if err != nil {
				return zero, false, err
			}
			if err := l.reclaim(ctx, res); err != nil {
				return zero, false, err
			}
			continue
		}

		if err := l.endEpoch(ctx); err != nil {
			return zero, false, err
		}
		return zero, false, nil
	}
}

// Len reports the items left in the current epoch: those already queued
// plus those the stage can still produce. It waits for an in-flight load so
// the count never misses work in progress.
func (l *Loader[T]) Len(ctx context.Context) (int, error) {
	if err := l.usable(); err != nil {
		return 0, err
	}
	if l.inflight != nil {
		res, err := l.await(ctx)
		if err != nil {
			return 0, err
		}
		if err := l.reclaim(ctx, res); err != nil {
			return 0, err
		}
	}
	return l.stage.DataRemaining(0) + len(l.queue), nil
}

// Epoch iterates over the rest of the current epoch. Iteration stops at the
// epoch boundary or after yielding the first error.
func (l *Loader[T]) Epoch(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			item, ok, err := l.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok || !yield(item, nil) {
				return
			}
		}
	}
}

// Close waits for any in-flight load and releases the loader. Later calls
// to Next and Len return LOADER_CLOSED. Close returns the error of a load
// that failed after the last reclaim.
func (l *Loader[T]) Close() error {
	if l.closed {
		return nil
	}
	var err error
	if l.inflight != nil {
		res := <-l.inflight
		l.inflight = nil
		l.stage = res.stage
		err = res.err
	}
	l.closed = true
	l.queue = nil
	l.publish()
	l.log.Debug("loader closed")
	return err
}

// Health reports the loader's state. A poisoned loader is down, a closed
// one is degraded.
func (l *Loader[T]) Health(context.Context) observability.Health {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.health.Clone()
}

func (l *Loader[T]) usable() error {
	if l.closed {
		return errors.LoaderClosed()
	}
	if l.poisoned != nil {
		return errors.LoaderPoisoned(l.poisoned)
	}
	return nil
}

// await blocks until the in-flight load hands the stage back or ctx ends.
func (l *Loader[T]) await(ctx context.Context) (loadResult[T], error) {
	select {
	case res := <-l.inflight:
		return res, nil
	case <-ctx.Done():
		return loadResult[T]{}, ctx.Err()
	}
}

// reclaim takes the stage back from a finished load and queues its items.
func (l *Loader[T]) reclaim(ctx context.Context, res loadResult[T]) error {
	l.inflight = nil
	l.stage = res.stage

	status := "ok"
	if res.err != nil {
		status = "error"
	}
	if l.metrics != nil {
		l.metrics.RecordLoad(ctx, l.cfg.Name, status, len(res.items), res.duration)
	}

	if res.err != nil {
		l.poisoned = res.err
		l.publish()
		l.log.Error("load failed, loader poisoned", logger.Fields(
			logger.FieldEpoch, l.epoch,
			logger.FieldError, res.err.Error(),
		))
		if l.metrics != nil {
			l.metrics.RecordError(ctx, string(errors.CodeOf(res.err)), "dataloader")
		}
		return errors.LoaderPoisoned(res.err)
	}

	l.queue = append(l.queue, res.items...)
	// A filter may empty a whole block while still consuming input; only a
	// load that moved nothing stalls.
	if len(res.items) == 0 && l.stage.DataRemaining(0) >= res.remaining {
		l.stalled = true
	}
	l.publish()

	if l.metrics != nil {
		l.metrics.RecordQueueDepth(ctx, l.cfg.Name, len(l.queue))
	}
	l.log.Debug("load reclaimed", logger.Fields(
		logger.FieldRequested, res.requested,
		logger.FieldItems, len(res.items),
		logger.FieldQueueLen, len(l.queue),
		logger.FieldDuration, res.duration.Milliseconds(),
	))
	return nil
}

// endEpoch resets the stage at an epoch boundary.
func (l *Loader[T]) endEpoch(ctx context.Context) error {
	if l.stalled && l.stage.DataRemaining(0) > 0 {
		l.log.Warn("load produced no items, ending epoch early", logger.Fields(
			logger.FieldEpoch, l.epoch,
			logger.FieldRemaining, l.stage.DataRemaining(0),
		))
	}

	l.log.Info("epoch complete", logger.Fields(
		logger.FieldEpoch, l.epoch,
		logger.FieldItems, l.delivered,
	))
	if l.metrics != nil {
		l.metrics.RecordEpoch(ctx, l.cfg.Name)
	}

	l.epoch++
	l.delivered = 0
	l.stalled = false
	if err := l.stage.Reset(); err != nil {
		l.poisoned = errors.StageFailed(pipeline.NameOf(l.stage), err)
		l.publish()
		l.log.Error("stage reset failed, loader poisoned", logger.ErrorFields("reset", err))
		return errors.LoaderPoisoned(l.poisoned)
	}
	l.publish()
	return nil
}

// publish snapshots the consumer-side state for Health.
func (l *Loader[T]) publish() {
	h := observability.NewHealth(l.cfg.Name, map[string]string{
		logger.FieldLoaderID: l.id,
		logger.FieldEpoch:    strconv.Itoa(l.epoch),
		logger.FieldQueueLen: strconv.Itoa(len(l.queue)),
		"loading":            strconv.FormatBool(l.inflight != nil),
	})
	h.Fail(l.poisoned)
	if l.closed {
		h.Degrade("closed")
	}

	l.mu.Lock()
	l.health = h
	l.mu.Unlock()
}
