package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/dataflow/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OTLP meter provider and installs it globally.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by stages and loaders.
type Metrics struct {
	stageTotal     metric.Int64Counter
	stageDuration  metric.Float64Histogram
	loadTotal      metric.Int64Counter
	loadDuration   metric.Float64Histogram
	loadItems      metric.Int64Histogram
	itemsDelivered metric.Int64Counter
	epochTotal     metric.Int64Counter
	queueDepth     metric.Int64Gauge
	errorTotal     metric.Int64Counter
}

// NewMetrics creates the dataflow instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.stageTotal, err = meter.Int64Counter("stage.process.total",
		metric.WithDescription("Total stage Process calls"),
	); err != nil {
		return nil, fmt.Errorf("creating stage.process.total counter: %w", err)
	}
	if m.stageDuration, err = meter.Float64Histogram("stage.process.duration",
		metric.WithDescription("Duration of stage Process calls in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating stage.process.duration histogram: %w", err)
	}
	if m.loadTotal, err = meter.Int64Counter("loader.load.total",
		metric.WithDescription("Total background loads"),
	); err != nil {
		return nil, fmt.Errorf("creating loader.load.total counter: %w", err)
	}
	if m.loadDuration, err = meter.Float64Histogram("loader.load.duration",
		metric.WithDescription("Duration of background loads in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating loader.load.duration histogram: %w", err)
	}
	if m.loadItems, err = meter.Int64Histogram("loader.load.items",
		metric.WithDescription("Items produced per background load"),
	); err != nil {
		return nil, fmt.Errorf("creating loader.load.items histogram: %w", err)
	}
	if m.itemsDelivered, err = meter.Int64Counter("loader.items.delivered",
		metric.WithDescription("Items handed to the consumer"),
	); err != nil {
		return nil, fmt.Errorf("creating loader.items.delivered counter: %w", err)
	}
	if m.epochTotal, err = meter.Int64Counter("loader.epoch.total",
		metric.WithDescription("Completed epochs"),
	); err != nil {
		return nil, fmt.Errorf("creating loader.epoch.total counter: %w", err)
	}
	if m.queueDepth, err = meter.Int64Gauge("loader.queue.depth",
		metric.WithDescription("Ready-queue depth after a reclaim"),
	); err != nil {
		return nil, fmt.Errorf("creating loader.queue.depth gauge: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	); err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &m, nil
}

// RecordStage records one Process call of a stage.
func (m *Metrics) RecordStage(ctx context.Context, stage, status string, duration time.Duration) {
	m.stageTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

// RecordLoad records a finished background load.
func (m *Metrics) RecordLoad(ctx context.Context, loader, status string, items int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("loader", loader))
	m.loadTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("loader", loader),
		attribute.String("status", status),
	))
	m.loadDuration.Record(ctx, duration.Seconds(), attrs)
	m.loadItems.Record(ctx, int64(items), attrs)
}

// RecordDelivered counts items handed to the consumer.
func (m *Metrics) RecordDelivered(ctx context.Context, loader string, n int) {
	m.itemsDelivered.Add(ctx, int64(n), metric.WithAttributes(attribute.String("loader", loader)))
}

// RecordEpoch counts a completed epoch.
func (m *Metrics) RecordEpoch(ctx context.Context, loader string) {
	m.epochTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("loader", loader)))
}

// RecordQueueDepth records the current ready-queue depth.
func (m *Metrics) RecordQueueDepth(ctx context.Context, loader string, depth int) {
	m.queueDepth.Record(ctx, int64(depth), metric.WithAttributes(attribute.String("loader", loader)))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
