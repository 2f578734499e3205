package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records engine activity: fetches, cache reads, deduplication,
// reruns, and optimistic rollbacks.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must return quickly; recording is fire-and-forget.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records one settled network attempt with its duration
	// and error status.
	RecordFetch(ctx context.Context, meta RequestMeta, duration time.Duration, err error)

	// RecordCacheRead records a policy evaluation that consulted cached
	// state, as a hit or a miss.
	RecordCacheRead(ctx context.Context, meta RequestMeta, hit bool)

	// RecordDedup records a caller joining an already pending fetch.
	RecordDedup(ctx context.Context, meta RequestMeta)

	// RecordRerun records an in-place restart of a pending fetch.
	RecordRerun(ctx context.Context, meta RequestMeta)

	// RecordRevert records an optimistic update being rolled back.
	RecordRevert(ctx context.Context, meta RequestMeta)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	fetchTotal   metric.Int64Counter
	fetchErrors  metric.Int64Counter
	fetchLatency metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	dedupJoined  metric.Int64Counter
	rerunTotal   metric.Int64Counter
	revertTotal  metric.Int64Counter
}

// newMetrics creates a Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	fetchTotal, err := meter.Int64Counter(
		"query.fetch.total",
		metric.WithDescription("Total number of network fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := meter.Int64Counter(
		"query.fetch.errors",
		metric.WithDescription("Total number of failed network fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	fetchLatency, err := meter.Float64Histogram(
		"query.fetch.duration_ms",
		metric.WithDescription("Network fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"query.cache.hits",
		metric.WithDescription("Policy evaluations satisfied from cached state"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"query.cache.misses",
		metric.WithDescription("Policy evaluations that found no usable cached state"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, err
	}

	dedupJoined, err := meter.Int64Counter(
		"query.dedup.joined",
		metric.WithDescription("Callers that joined an already pending fetch"),
		metric.WithUnit("{join}"),
	)
	if err != nil {
		return nil, err
	}

	rerunTotal, err := meter.Int64Counter(
		"query.rerun.total",
		metric.WithDescription("In-place restarts of pending fetches"),
		metric.WithUnit("{rerun}"),
	)
	if err != nil {
		return nil, err
	}

	revertTotal, err := meter.Int64Counter(
		"query.optimistic.reverts",
		metric.WithDescription("Optimistic updates rolled back after a failure"),
		metric.WithUnit("{revert}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		fetchTotal:   fetchTotal,
		fetchErrors:  fetchErrors,
		fetchLatency: fetchLatency,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
		dedupJoined:  dedupJoined,
		rerunTotal:   rerunTotal,
		revertTotal:  revertTotal,
	}, nil
}

func (m *metricsImpl) attrs(meta RequestMeta) metric.MeasurementOption {
	kvs := []attribute.KeyValue{
		attribute.String("request.kind", meta.Kind),
		attribute.String("http.request.method", meta.Method),
		attribute.String("url.path", meta.Path),
	}
	if meta.Policy != "" {
		kvs = append(kvs, attribute.String("request.policy", meta.Policy))
	}
	return metric.WithAttributes(kvs...)
}

func (m *metricsImpl) RecordFetch(ctx context.Context, meta RequestMeta, duration time.Duration, err error) {
	opt := m.attrs(meta)
	m.fetchTotal.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.fetchLatency.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheRead(ctx context.Context, meta RequestMeta, hit bool) {
	if hit {
		m.cacheHits.Add(ctx, 1, m.attrs(meta))
	} else {
		m.cacheMisses.Add(ctx, 1, m.attrs(meta))
	}
}

func (m *metricsImpl) RecordDedup(ctx context.Context, meta RequestMeta) {
	m.dedupJoined.Add(ctx, 1, m.attrs(meta))
}

func (m *metricsImpl) RecordRerun(ctx context.Context, meta RequestMeta) {
	m.rerunTotal.Add(ctx, 1, m.attrs(meta))
}

func (m *metricsImpl) RecordRevert(ctx context.Context, meta RequestMeta) {
	m.revertTotal.Add(ctx, 1, m.attrs(meta))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordFetch(context.Context, RequestMeta, time.Duration, error) {}
func (noopMetrics) RecordCacheRead(context.Context, RequestMeta, bool)             {}
func (noopMetrics) RecordDedup(context.Context, RequestMeta)                       {}
func (noopMetrics) RecordRerun(context.Context, RequestMeta)                       {}
func (noopMetrics) RecordRevert(context.Context, RequestMeta)                      {}
