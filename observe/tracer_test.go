package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRequestMetaSpanName(t *testing.T) {
	tests := []struct {
		name string
		meta RequestMeta
		want string
	}{
		{
			name: "query",
			meta: RequestMeta{Kind: "query", Method: "GET", Path: "/users"},
			want: "query GET /users",
		},
		{
			name: "mutation",
			meta: RequestMeta{Kind: "mutation", Method: "POST", Path: "/orders"},
			want: "mutation POST /orders",
		},
		{
			name: "missing kind",
			meta: RequestMeta{Method: "GET", Path: "/x"},
			want: "request GET /x",
		},
		{
			name: "missing method",
			meta: RequestMeta{Kind: "query", Path: "/x"},
			want: "query /x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.SpanName(); got != tt.want {
				t.Errorf("SpanName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return newTracer(tp.Tracer("test")), recorder
}

func TestTracerRecordsSpan(t *testing.T) {
	tracer, recorder := newRecordingTracer()

	meta := RequestMeta{
		Kind:     "query",
		Identity: "req:GET:/users:aabbccdd00112233",
		Method:   "GET",
		Path:     "/users",
		Policy:   "cache-and-network",
	}
	_, span := tracer.StartFetch(context.Background(), meta)
	tracer.EndFetch(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Name() != "query GET /users" {
		t.Errorf("span name = %q", got.Name())
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}

	attrs := make(map[string]string)
	for _, kv := range got.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	if attrs["request.identity"] != meta.Identity {
		t.Errorf("request.identity = %q", attrs["request.identity"])
	}
	if attrs["request.policy"] != "cache-and-network" {
		t.Errorf("request.policy = %q", attrs["request.policy"])
	}
}

func TestTracerRecordsError(t *testing.T) {
	tracer, recorder := newRecordingTracer()

	_, span := tracer.StartFetch(context.Background(), RequestMeta{Kind: "query", Method: "GET", Path: "/x"})
	tracer.EndFetch(span, errors.New("connection refused"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	status := spans[0].Status()
	if status.Code != codes.Error {
		t.Errorf("status = %v, want Error", status.Code)
	}
	if status.Description != "connection refused" {
		t.Errorf("description = %q", status.Description)
	}
	if len(spans[0].Events()) == 0 {
		t.Error("error not recorded as span event")
	}
}

func TestNoopTracerDoesNotPanic(t *testing.T) {
	tracer := newNoopTracer()
	_, span := tracer.StartFetch(context.Background(), RequestMeta{Kind: "query", Path: "/x"})
	tracer.EndFetch(span, errors.New("ignored"))
}
