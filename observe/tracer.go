package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// RequestMeta carries the request attributes attached to telemetry.
// Identity fields only; bodies, parameters, and headers never travel
// through telemetry.
type RequestMeta struct {
	Kind     string // "query" or "mutation"
	Identity string // deduplication key of the request
	Method   string // HTTP verb
	Path     string // request path, without query string
	Policy   string // effective fetch policy name
}

// SpanName returns the deterministic span name for this request.
// Format: <kind> <METHOD> <path>, e.g. "query GET /users".
func (m RequestMeta) SpanName() string {
	kind := m.Kind
	if kind == "" {
		kind = "request"
	}
	if m.Method == "" {
		return kind + " " + m.Path
	}
	return kind + " " + m.Method + " " + m.Path
}

// Tracer wraps OpenTelemetry tracing with request-scoped span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartFetch must propagate the incoming context into the span.
// - Errors: EndFetch must be best-effort and must not panic.
type Tracer interface {
	// StartFetch starts a span covering one network fetch.
	StartFetch(ctx context.Context, meta RequestMeta) (context.Context, trace.Span)

	// EndFetch ends the span, recording any error.
	EndFetch(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartFetch starts a span with request metadata as attributes.
func (t *tracerImpl) StartFetch(ctx context.Context, meta RequestMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("request.kind", meta.Kind),
		attribute.String("request.identity", meta.Identity),
		attribute.String("http.request.method", meta.Method),
		attribute.String("url.path", meta.Path),
	}
	if meta.Policy != "" {
		attrs = append(attrs, attribute.String("request.policy", meta.Policy))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	return ctx, span
}

// EndFetch ends the span and records the error status if present.
func (t *tracerImpl) EndFetch(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartFetch(ctx context.Context, meta RequestMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndFetch(span trace.Span, err error) {
	span.End()
}
