package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("newMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		return 0
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", name, found.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

var testMeta = RequestMeta{
	Kind:     "query",
	Identity: "req:GET:/users:00112233aabbccdd",
	Method:   "GET",
	Path:     "/users",
	Policy:   "cache-first",
}

func TestRecordFetch(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordFetch(context.Background(), testMeta, 40*time.Millisecond, nil)
	m.RecordFetch(context.Background(), testMeta, 60*time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)
	if got := counterValue(t, rm, "query.fetch.total"); got != 2 {
		t.Errorf("query.fetch.total = %d, want 2", got)
	}
	if got := counterValue(t, rm, "query.fetch.errors"); got != 1 {
		t.Errorf("query.fetch.errors = %d, want 1", got)
	}

	found := findMetric(rm, "query.fetch.duration_ms")
	if found == nil {
		t.Fatal("query.fetch.duration_ms not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	var sum float64
	var count uint64
	for _, dp := range hist.DataPoints {
		sum += dp.Sum
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("duration count = %d, want 2", count)
	}
	if sum < 90 || sum > 110 {
		t.Errorf("duration sum = %f, want ~100ms", sum)
	}
}

func TestRecordCacheRead(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCacheRead(context.Background(), testMeta, true)
	m.RecordCacheRead(context.Background(), testMeta, true)
	m.RecordCacheRead(context.Background(), testMeta, false)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "query.cache.hits"); got != 2 {
		t.Errorf("query.cache.hits = %d, want 2", got)
	}
	if got := counterValue(t, rm, "query.cache.misses"); got != 1 {
		t.Errorf("query.cache.misses = %d, want 1", got)
	}
}

func TestRecordEngineEvents(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordDedup(context.Background(), testMeta)
	m.RecordRerun(context.Background(), testMeta)
	m.RecordRerun(context.Background(), testMeta)
	m.RecordRevert(context.Background(), testMeta)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "query.dedup.joined"); got != 1 {
		t.Errorf("query.dedup.joined = %d, want 1", got)
	}
	if got := counterValue(t, rm, "query.rerun.total"); got != 2 {
		t.Errorf("query.rerun.total = %d, want 2", got)
	}
	if got := counterValue(t, rm, "query.optimistic.reverts"); got != 1 {
		t.Errorf("query.optimistic.reverts = %d, want 1", got)
	}
}

func TestMetricAttributesExcludeIdentity(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordFetch(context.Background(), testMeta, time.Millisecond, nil)

	rm := collect(t, reader)
	found := findMetric(rm, "query.fetch.total")
	if found == nil {
		t.Fatal("query.fetch.total not found")
	}
	sum := found.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}

	var sawMethod, sawPath bool
	for iter := sum.DataPoints[0].Attributes.Iter(); iter.Next(); {
		kv := iter.Attribute()
		switch string(kv.Key) {
		case "http.request.method":
			sawMethod = true
		case "url.path":
			sawPath = true
		case "request.identity":
			// Identities embed hashes; keeping them out of metric labels
			// keeps cardinality bounded.
			t.Error("request.identity leaked into metric attributes")
		}
	}
	if !sawMethod || !sawPath {
		t.Errorf("method/path attributes missing (method=%v path=%v)", sawMethod, sawPath)
	}
}
