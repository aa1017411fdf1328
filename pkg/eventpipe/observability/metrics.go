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

// MetricsRecorder records pipeline metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordSubmit records an accepted submission with its type and priority.
	RecordSubmit(ctx context.Context, eventType, priority string)

	// RecordDispatch records one dispatch pass with its duration.
	RecordDispatch(ctx context.Context, consumer string, duration time.Duration)

	// RecordBatch records a batch dispatch cycle and its size.
	RecordBatch(ctx context.Context, size int)

	// RecordDeadLetter records an event entering the dead-letter queue.
	RecordDeadLetter(ctx context.Context, reason string)

	// RecordRetry records a dead-letter resubmission.
	RecordRetry(ctx context.Context, attempt int)

	// RecordDiscard records a permanently failed event.
	RecordDiscard(ctx context.Context)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	submissions     metric.Int64Counter
	dispatches      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	batchSize       metric.Int64Histogram
	deadLetters     metric.Int64Counter
	retries         metric.Int64Counter
	discards        metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventpipe")

	submissions, err := meter.Int64Counter("eventpipe.events.submitted",
		metric.WithDescription("Number of events accepted by Submit"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("eventpipe.events.dispatched",
		metric.WithDescription("Number of completed dispatch passes"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("eventpipe.dispatch.latency_ms",
		metric.WithDescription("Dispatch fan-out latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram("eventpipe.batch.size",
		metric.WithDescription("Events per batch dispatch cycle"),
	)
	if err != nil {
		return nil, err
	}

	deadLetters, err := meter.Int64Counter("eventpipe.events.dead_lettered",
		metric.WithDescription("Number of events routed to the dead-letter queue"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter("eventpipe.events.retried",
		metric.WithDescription("Number of dead-letter resubmissions"),
	)
	if err != nil {
		return nil, err
	}

	discards, err := meter.Int64Counter("eventpipe.events.discarded",
		metric.WithDescription("Number of events discarded after exhausting retries"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		submissions:     submissions,
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		batchSize:       batchSize,
		deadLetters:     deadLetters,
		retries:         retries,
		discards:        discards,
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

// RecordSubmit records an accepted submission.
func (m *otelMetrics) RecordSubmit(ctx context.Context, eventType, priority string) {
	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("priority", priority),
	))
}

// RecordDispatch records a dispatch pass.
func (m *otelMetrics) RecordDispatch(ctx context.Context, consumer string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("consumer", consumer),
	}
	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordBatch records a batch cycle.
func (m *otelMetrics) RecordBatch(ctx context.Context, size int) {
	m.batchSize.Record(ctx, int64(size))
}

// RecordDeadLetter records a dead-letter entry.
func (m *otelMetrics) RecordDeadLetter(ctx context.Context, reason string) {
	m.deadLetters.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordRetry records a resubmission.
func (m *otelMetrics) RecordRetry(ctx context.Context, attempt int) {
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("attempt", attempt),
	))
}

// RecordDiscard records a permanent failure.
func (m *otelMetrics) RecordDiscard(ctx context.Context) {
	m.discards.Add(ctx, 1)
}
