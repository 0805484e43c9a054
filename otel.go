package accounts

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/mailkit/accounts"
)

// otelInstrumentation holds OpenTelemetry instrumentation for the manager.
type otelInstrumentation struct {
	enabled bool

	// Tracing
	tracingEnabled bool
	tracer         trace.Tracer

	// Metrics
	metricsEnabled bool

	loadLatency metric.Float64Histogram
	loadCount   metric.Int64Counter
	loadErrors  metric.Int64Counter

	saveLatency metric.Float64Histogram
	saveCount   metric.Int64Counter
	saveErrors  metric.Int64Counter

	deleteLatency metric.Float64Histogram
	deleteCount   metric.Int64Counter
	deleteErrors  metric.Int64Counter

	listLatency metric.Float64Histogram
	listCount   metric.Int64Counter
	listErrors  metric.Int64Counter
}

// newOtelInstrumentation creates new OTel instrumentation from options.
func newOtelInstrumentation(opts *options) (*otelInstrumentation, error) {
	o := &otelInstrumentation{
		enabled:        opts.tracingEnabled || opts.metricsEnabled,
		tracingEnabled: opts.tracingEnabled,
		metricsEnabled: opts.metricsEnabled,
	}

	if !o.enabled {
		return o, nil
	}

	// Initialize tracer
	if opts.tracingEnabled {
		tp := opts.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		o.tracer = tp.Tracer(instrumentationName)
	}

	// Initialize metrics
	if opts.metricsEnabled {
		mp := opts.meterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
		if err := o.initMetrics(mp); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// initMetrics initializes all metric instruments.
func (o *otelInstrumentation) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(instrumentationName)

	var err error

	o.loadLatency, err = meter.Float64Histogram(
		"accounts.load.duration",
		metric.WithDescription("Duration of account load operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.loadCount, err = meter.Int64Counter(
		"accounts.load.count",
		metric.WithDescription("Number of account load operations"),
	)
	if err != nil {
		return err
	}

	o.loadErrors, err = meter.Int64Counter(
		"accounts.load.errors",
		metric.WithDescription("Number of account load errors"),
	)
	if err != nil {
		return err
	}

	o.saveLatency, err = meter.Float64Histogram(
		"accounts.save.duration",
		metric.WithDescription("Duration of account save operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.saveCount, err = meter.Int64Counter(
		"accounts.save.count",
		metric.WithDescription("Number of account save operations"),
	)
	if err != nil {
		return err
	}

	o.saveErrors, err = meter.Int64Counter(
		"accounts.save.errors",
		metric.WithDescription("Number of account save errors"),
	)
	if err != nil {
		return err
	}

	o.deleteLatency, err = meter.Float64Histogram(
		"accounts.delete.duration",
		metric.WithDescription("Duration of account delete operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.deleteCount, err = meter.Int64Counter(
		"accounts.delete.count",
		metric.WithDescription("Number of account delete operations"),
	)
	if err != nil {
		return err
	}

	o.deleteErrors, err = meter.Int64Counter(
		"accounts.delete.errors",
		metric.WithDescription("Number of account delete errors"),
	)
	if err != nil {
		return err
	}

	o.listLatency, err = meter.Float64Histogram(
		"accounts.list.duration",
		metric.WithDescription("Duration of account list operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.listCount, err = meter.Int64Counter(
		"accounts.list.count",
		metric.WithDescription("Number of account list operations"),
	)
	if err != nil {
		return err
	}

	o.listErrors, err = meter.Int64Counter(
		"accounts.list.errors",
		metric.WithDescription("Number of account list errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// startSpan starts a new span if tracing is enabled.
// Caller should invoke the returned func with the operation's error.
func (o *otelInstrumentation) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if !o.tracingEnabled || o.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := o.tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// recordLoad records load operation metrics.
func (o *otelInstrumentation) recordLoad(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}

	o.loadLatency.Record(ctx, duration.Seconds())
	o.loadCount.Add(ctx, 1)
	if err != nil {
		o.loadErrors.Add(ctx, 1)
	}
}

// recordSave records save operation metrics.
func (o *otelInstrumentation) recordSave(ctx context.Context, duration time.Duration, created bool, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("created", created),
	)

	o.saveLatency.Record(ctx, duration.Seconds(), attrs)
	o.saveCount.Add(ctx, 1, attrs)
	if err != nil {
		o.saveErrors.Add(ctx, 1, attrs)
	}
}

// recordDelete records delete operation metrics.
func (o *otelInstrumentation) recordDelete(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}

	o.deleteLatency.Record(ctx, duration.Seconds())
	o.deleteCount.Add(ctx, 1)
	if err != nil {
		o.deleteErrors.Add(ctx, 1)
	}
}

// recordList records list/load-all operation metrics.
func (o *otelInstrumentation) recordList(ctx context.Context, duration time.Duration, resultCount int, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Int("result_count", resultCount),
	)

	o.listLatency.Record(ctx, duration.Seconds(), attrs)
	o.listCount.Add(ctx, 1, attrs)
	if err != nil {
		o.listErrors.Add(ctx, 1, attrs)
	}
}
