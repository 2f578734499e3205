package client

import (
	"context"
	"testing"
	"time"

	"github.com/jonwraymond/queryops/request"
	"github.com/jonwraymond/queryops/store"
)

func TestServerPendingGating(t *testing.T) {
	f := &jsonFetcher{body: `{}`}

	t.Run("interactive client reports nothing", func(t *testing.T) {
		c, _ := New(f)
		if _, ok := c.ServerPending(request.Descriptor{Path: "/data/1"}, "r"); ok {
			t.Error("ServerPending reported a query outside server mode")
		}
	})

	t.Run("lazy and cache-only are skipped", func(t *testing.T) {
		c, _ := New(f, WithServerMode())
		if _, ok := c.ServerPending(request.Descriptor{Path: "/a", Lazy: true}, "r"); ok {
			t.Error("lazy descriptor reported as pending")
		}
		if _, ok := c.ServerPending(request.Descriptor{Path: "/b", Policy: request.CacheOnly}, "r"); ok {
			t.Error("cache-only descriptor reported as pending")
		}
	})

	t.Run("resolved queries are skipped", func(t *testing.T) {
		d := request.Descriptor{Path: "/data/1", Policy: request.CacheAndNetwork}
		id, _ := request.Identity(d)
		c, _ := New(f, WithServerMode(), WithInitialState(store.State{
			Requests: map[string]store.RequestState{id: {Data: "cached", HasData: true}},
		}))
		if _, ok := c.ServerPending(d, "r"); ok {
			t.Error("resolved query reported as pending")
		}
	})
}

func TestServerPendingAwait(t *testing.T) {
	f := newGatedFetcher(`{"field":"x"}`)
	c, _ := New(f, WithServerMode())

	p, ok := c.ServerPending(request.Descriptor{Path: "/data/1"}, "render")
	if !ok {
		t.Fatal("ServerPending did not report an unresolved query")
	}
	f.awaitStart(t)
	close(f.release)

	if _, err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if err := c.WaitPending(context.Background()); err != nil {
		t.Fatalf("WaitPending() error = %v", err)
	}

	id, _ := request.Identity(request.Descriptor{Path: "/data/1"})
	if rs := c.Store().Request(id); !rs.HasData {
		t.Error("state not committed after the awaited render query")
	}
}

func TestWaitPendingHonorsContext(t *testing.T) {
	f := newGatedFetcher(`{}`)
	c, _ := New(f)

	if _, err := c.BeginQuery(context.Background(), request.Descriptor{Path: "/slow"}, "a"); err != nil {
		t.Fatalf("BeginQuery() error = %v", err)
	}
	f.awaitStart(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.WaitPending(ctx); err == nil {
		t.Error("WaitPending returned nil despite an unsettled flight")
	}

	close(f.release)
	if err := c.WaitPending(context.Background()); err != nil {
		t.Errorf("WaitPending after release error = %v", err)
	}
}
