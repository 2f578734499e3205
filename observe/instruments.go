package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Instruments bundles the tracer, metrics, and logger the query client
// records through. Every method is safe on a bundle built by
// NoopInstruments, so callers never nil-check telemetry.
type Instruments struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewInstruments builds the bundle from an Observer.
func NewInstruments(obs Observer) (*Instruments, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return &Instruments{
		tracer:  newTracer(obs.Tracer()),
		metrics: metrics,
		logger:  obs.Logger(),
	}, nil
}

// NoopInstruments builds a bundle that records nothing.
func NoopInstruments() *Instruments {
	return &Instruments{
		tracer:  newNoopTracer(),
		metrics: noopMetrics{},
		logger:  &noopLogger{},
	}
}

// Logger returns the underlying logger.
func (i *Instruments) Logger() Logger {
	return i.logger
}

// StartFetch opens a span for one network attempt.
func (i *Instruments) StartFetch(ctx context.Context, meta RequestMeta) (context.Context, trace.Span) {
	return i.tracer.StartFetch(ctx, meta)
}

// EndFetch closes the span and records the attempt's metrics in one step.
func (i *Instruments) EndFetch(ctx context.Context, span trace.Span, meta RequestMeta, start time.Time, err error) {
	i.tracer.EndFetch(span, err)
	i.metrics.RecordFetch(ctx, meta, time.Since(start), err)
}

// CacheRead records a cache hit or miss during policy evaluation.
func (i *Instruments) CacheRead(ctx context.Context, meta RequestMeta, hit bool) {
	i.metrics.RecordCacheRead(ctx, meta, hit)
}

// Dedup records a caller joining a pending fetch.
func (i *Instruments) Dedup(ctx context.Context, meta RequestMeta) {
	i.metrics.RecordDedup(ctx, meta)
}

// Rerun records an in-place restart of a pending fetch.
func (i *Instruments) Rerun(ctx context.Context, meta RequestMeta) {
	i.metrics.RecordRerun(ctx, meta)
}

// Revert records an optimistic rollback.
func (i *Instruments) Revert(ctx context.Context, meta RequestMeta) {
	i.metrics.RecordRevert(ctx, meta)
}
