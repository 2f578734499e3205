package client

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/queryops/request"
)

// ServerPending starts the query described by partial if a server render
// needs its result, and returns the Pending to await. It reports false on
// clients not in server mode, for lazy descriptors, for cache-only
// descriptors, for already-resolved queries, and for queries that resolved
// synchronously from cache. A prerender collector walks its tree calling
// this, then blocks in WaitPending.
func (c *Client) ServerPending(partial request.Descriptor, caller string) (*Pending, bool) {
	if !c.server {
		return nil, false
	}
	d := c.merge(c.defaults, partial)
	pol := c.effectivePolicy(d.Policy)
	if d.Lazy || pol == request.CacheOnly {
		return nil, false
	}
	if caller == "" {
		caller = uuid.NewString()
	}

	// A resolved query is never re-fetched for a render, not even under
	// cache-and-network; refreshing is the interactive client's business.
	id, err := request.Identity(d)
	if err != nil {
		return nil, false
	}
	rs := c.store.Request(c.flightID(id, pol, caller))
	if rs.HasData || rs.Err != nil {
		return nil, false
	}
	if pol != request.NoCache && d.FromCache != nil {
		if _, ok := d.FromCache(c.store.Shared(), d); ok {
			return nil, false
		}
	}

	p, err := c.BeginQuery(context.Background(), partial, caller, RespectLazy())
	if err != nil || p.Resolved() {
		return nil, false
	}
	return p, true
}

// WaitPending blocks until every in-flight fetch has settled or ctx ends.
// Settlement failures are already recorded in state and are not errors
// here; only ctx expiry is.
func (c *Client) WaitPending(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range c.registry.Entries() {
		e := e
		g.Go(func() error {
			_, err := e.Wait(ctx)
			return err
		})
	}
	return g.Wait()
}
