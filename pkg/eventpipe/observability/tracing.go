package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the pipeline tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("eventpipe")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartDispatchSpan starts a span for one event's observer fan-out.
	StartDispatchSpan(ctx context.Context, eventID, eventType string) (context.Context, trace.Span)

	// StartBatchSpan starts a span for a batch dispatch cycle.
	StartBatchSpan(ctx context.Context, size int) (context.Context, trace.Span)

	// StartRetrySpan starts a span for a dead-letter retry attempt.
	StartRetrySpan(ctx context.Context, eventID string, attempt int) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartDispatchSpan starts a span for one event's observer fan-out.
func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, eventID, eventType string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventpipe.dispatch",
		trace.WithAttributes(
			attribute.String("event.id", eventID),
			attribute.String("event.type", eventType),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartBatchSpan starts a span for a batch dispatch cycle.
func (m *otelSpanManager) StartBatchSpan(ctx context.Context, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventpipe.batch",
		trace.WithAttributes(
			attribute.Int("batch.size", size),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartRetrySpan starts a span for a dead-letter retry attempt.
func (m *otelSpanManager) StartRetrySpan(ctx context.Context, eventID string, attempt int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventpipe.retry",
		trace.WithAttributes(
			attribute.String("event.id", eventID),
			attribute.Int("retry.attempt", attempt),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
