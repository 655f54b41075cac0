// Package observability wires OpenTelemetry tracing and metrics into
// pipelines and loaders.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("dataflow"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanLoaderLoad)
//	defer observability.EndSpan(span, err)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("dataflow"))
//	metrics.RecordStage(ctx, "batch", "ok", elapsed)
//
// Health:
//
//	health := observability.NewServiceHealth("dataflow", version.Version).Check(ctx, loader)
package observability
