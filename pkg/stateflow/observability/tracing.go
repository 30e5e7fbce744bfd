package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName names the tracer that stateflow spans come from.
const instrumentationName = "github.com/randalmurphal/stateflow"

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartDispatchSpan starts a span covering one dispatch from fan-out
	// until the completion barrier fires.
	StartDispatchSpan(ctx context.Context, category, event string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager on the global tracer provider.
// Configure the provider first with otel.SetTracerProvider.
func NewSpanManager() SpanManager {
	return NewSpanManagerFrom(otel.GetTracerProvider())
}

// NewSpanManagerFrom returns a SpanManager whose spans come from tp.
func NewSpanManagerFrom(tp trace.TracerProvider) SpanManager {
	return &otelSpanManager{tracer: tp.Tracer(instrumentationName)}
}

// StartDispatchSpan starts a span named after the dispatch category.
func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, category, event string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "stateflow.dispatch."+category,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("dispatch.category", category),
			attribute.String("event.id", event),
		),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// EndSpanWithError sets the span status from err and ends it. A nil span
// is ignored.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err == nil {
		span.SetStatus(codes.Ok, "")
		span.End()
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
}

// AddSpanEvent records an event on the recording span in ctx, if any.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
