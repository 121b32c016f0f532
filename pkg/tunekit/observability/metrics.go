package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records dispatch metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records a completed dispatch with its duration and
	// whether it was cancelled by a Before handler.
	RecordDispatch(ctx context.Context, eventName string, duration time.Duration, cancelled bool, err error)

	// RecordHandlerExecution records one handler invocation.
	RecordHandlerExecution(ctx context.Context, connector, eventContext string, duration time.Duration, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches        metric.Int64Counter
	dispatchLatency   metric.Float64Histogram
	cancellations     metric.Int64Counter
	handlerExecutions metric.Int64Counter
	handlerErrors     metric.Int64Counter
	handlerLatency    metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("tunekit")

	dispatches, err := meter.Int64Counter("tunekit.dispatch.count",
		metric.WithDescription("Number of event dispatches"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("tunekit.dispatch.latency_ms",
		metric.WithDescription("Dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cancellations, err := meter.Int64Counter("tunekit.dispatch.cancellations",
		metric.WithDescription("Number of dispatches cancelled by a before handler"),
	)
	if err != nil {
		return nil, err
	}

	handlerExecutions, err := meter.Int64Counter("tunekit.handler.executions",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter("tunekit.handler.errors",
		metric.WithDescription("Number of captured handler errors"),
	)
	if err != nil {
		return nil, err
	}

	handlerLatency, err := meter.Float64Histogram("tunekit.handler.latency_ms",
		metric.WithDescription("Handler invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:        dispatches,
		dispatchLatency:   dispatchLatency,
		cancellations:     cancellations,
		handlerExecutions: handlerExecutions,
		handlerErrors:     handlerErrors,
		handlerLatency:    handlerLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDispatch records a completed dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, eventName string, duration time.Duration, cancelled bool, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("event", eventName),
		attribute.Bool("success", err == nil),
	}

	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if cancelled {
		m.cancellations.Add(ctx, 1, metric.WithAttributes(attribute.String("event", eventName)))
	}
}

// RecordHandlerExecution records one handler invocation.
func (m *otelMetrics) RecordHandlerExecution(ctx context.Context, connector, eventContext string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("connector", connector),
		attribute.String("context", eventContext),
	}

	m.handlerExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.handlerLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.handlerErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
