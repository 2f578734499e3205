package observe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewInstruments(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "queryops-test"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	ins, err := NewInstruments(obs)
	if err != nil {
		t.Fatalf("NewInstruments() error = %v", err)
	}
	if ins.Logger() == nil {
		t.Error("Logger() = nil")
	}

	meta := RequestMeta{Kind: "query", Identity: "req:GET:/x:0000000000000000", Method: "GET", Path: "/x"}
	ctx, span := ins.StartFetch(context.Background(), meta)
	ins.EndFetch(ctx, span, meta, time.Now(), nil)
	ins.CacheRead(ctx, meta, true)
	ins.Dedup(ctx, meta)
	ins.Rerun(ctx, meta)
	ins.Revert(ctx, meta)
}

func TestNewInstrumentsNilObserver(t *testing.T) {
	if _, err := NewInstruments(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("NewInstruments(nil) error = %v, want ErrNilObserver", err)
	}
}

func TestNoopInstruments(t *testing.T) {
	ins := NoopInstruments()
	meta := RequestMeta{Kind: "mutation", Method: "POST", Path: "/orders"}

	ctx, span := ins.StartFetch(context.Background(), meta)
	ins.EndFetch(ctx, span, meta, time.Now(), errors.New("recorded nowhere"))
	ins.CacheRead(ctx, meta, false)
	ins.Dedup(ctx, meta)
	ins.Rerun(ctx, meta)
	ins.Revert(ctx, meta)

	if ins.Logger() == nil {
		t.Error("Logger() = nil on noop bundle")
	}
}
