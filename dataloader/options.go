package dataloader

import (
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
)

// Option configures a Loader.
type Option func(*options)

type options struct {
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
	seed    *uint64
}

// WithConfig sets the loader tunables.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records load, delivery and epoch metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithSeed fixes the block shuffle order, including seed 0.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}
