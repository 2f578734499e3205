package client

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonwraymond/queryops/flight"
	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/request"
	"github.com/jonwraymond/queryops/signal"
	"github.com/jonwraymond/queryops/store"
)

// CallOption adjusts one Query or BeginQuery call.
type CallOption func(*callConfig)

type callConfig struct {
	respectLazy    bool
	skipCacheTrust bool
}

// RespectLazy makes the call honor the descriptor's Lazy flag and skip the
// network. Bindings pass it when they schedule queries themselves; a direct
// Query call without it fetches lazy descriptors like any other.
func RespectLazy() CallOption {
	return func(cfg *callConfig) { cfg.respectLazy = true }
}

// SkipCacheTrust exempts this call from the one-shot hydration
// optimization, forcing the policy to run against live state.
func SkipCacheTrust() CallOption {
	return func(cfg *callConfig) { cfg.skipCacheTrust = true }
}

// Pending is a query that has passed its synchronous phase. The loading
// state, if any, is already written when BeginQuery returns, so a binding
// can render it before suspending in Wait.
type Pending struct {
	client *Client
	id     string
	meta   observe.RequestMeta
	entry  *flight.Entry

	resolved bool
	data     any
	err      error

	cached    any
	hasCached bool
}

// Resolved reports whether the query finished without a network phase.
func (p *Pending) Resolved() bool { return p.resolved }

// Cached returns the state that was servable when the query began, before
// any network result.
func (p *Pending) Cached() (any, bool) { return p.cached, p.hasCached }

// Wait blocks until the query settles or ctx ends. A ctx error abandons
// this caller's wait only; the shared fetch keeps running for everyone
// else until it is aborted.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	if p.resolved {
		return p.data, p.err
	}
	out, err := p.entry.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if out.Err != nil {
		p.client.checkDivergence(ctx, p.id, p.meta, out.Err)
		return nil, out.Err
	}
	return out.Data, nil
}

// Query resolves a query end to end: policy evaluation, deduplicated fetch,
// store commit. The caller string scopes interest for reference-counted
// cancellation; an empty caller gets a generated one.
func (c *Client) Query(ctx context.Context, partial request.Descriptor, caller string, opts ...CallOption) (any, error) {
	p, err := c.BeginQuery(ctx, partial, caller, opts...)
	if err != nil {
		return nil, err
	}
	return p.Wait(ctx)
}

// BeginQuery runs the synchronous half of Query: merge, identity, policy
// evaluation, loading-state write, and registry join. Everything up to and
// including the store transition happens before it returns; the network is
// only awaited in Wait.
func (c *Client) BeginQuery(ctx context.Context, partial request.Descriptor, caller string, opts ...CallOption) (*Pending, error) {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if caller == "" {
		caller = uuid.NewString()
	}

	d := c.merge(c.defaults, partial)
	pol := c.effectivePolicy(d.Policy)
	id, err := request.Identity(d)
	if err != nil {
		return nil, err
	}
	stateID := c.flightID(id, pol, caller)
	meta := c.meta("query", id, d, pol)

	dec := c.evaluate(d, pol, stateID)
	c.inst.CacheRead(ctx, meta, dec.sufficient())

	p := &Pending{
		client:    c,
		id:        stateID,
		meta:      meta,
		cached:    dec.data,
		hasCached: dec.hasData,
	}

	skip := !dec.fetch ||
		(d.Lazy && cfg.respectLazy) ||
		(dec.sufficient() && c.cacheTrust.Load() && !cfg.skipCacheTrust)
	if skip {
		p.resolved = true
		p.data, p.err = dec.data, dec.err
		return p, nil
	}

	opt := c.startLoading(ctx, stateID, d, pol, meta)
	entry, created := c.registry.Join(stateID, caller)
	p.entry = entry
	if created {
		go c.runFetch(entry, d, stateID, pol, meta, opt)
	} else {
		c.inst.Dedup(ctx, meta)
	}
	return p, nil
}

// optimisticState is what a failed optimistic query needs for rollback: the
// pre-optimistic request data and the inverse of the shared patch.
type optimisticState struct {
	active      bool
	fallback    any
	hasFallback bool
	revert      store.Patch
}

// startLoading writes the loading transition for a query, applying the
// optimistic value when the descriptor carries one. An optimistic shared
// patch without a revert strategy is a declared unsupported combination:
// the patch is skipped and logged, only the request-level value applies.
func (c *Client) startLoading(ctx context.Context, stateID string, d request.Descriptor, pol request.FetchPolicy, meta observe.RequestMeta) optimisticState {
	if !d.HasOptimistic {
		c.store.QueryStart(stateID)
		return optimisticState{}
	}

	prev := c.store.Request(stateID)
	opt := optimisticState{active: true, fallback: prev.Data, hasFallback: prev.HasData}

	var patch store.Patch
	if d.ToCache != nil && pol != request.NoCache {
		if d.RevertCache == nil {
			c.inst.Logger().WithRequest(meta).Warn(ctx,
				"optimistic response without a revert strategy; shared patch skipped")
		} else {
			applied := d.Optimistic
			patch = func(shared any) any { return d.ToCache(shared, applied, d) }
			opt.revert = func(shared any) any { return d.RevertCache(shared, applied, d) }
		}
	}
	c.store.QueryStartOptimistic(stateID, d.Optimistic, patch)
	return opt
}

// checkDivergence compares the error a waiter is about to receive with the
// one recorded in state for the same identity. A mismatch means a
// caller-supplied function misbehaved between commit and settlement; it is
// reported as a diagnostic, never acted on.
func (c *Client) checkDivergence(ctx context.Context, stateID string, meta observe.RequestMeta, settled error) {
	if errors.Is(settled, signal.ErrAborted) || errors.Is(settled, ErrPurged) {
		// Aborted flights are discarded without a commit.
		return
	}
	// Same-value comparison, not errors.Is: the commit stores the settled
	// error verbatim, so anything else in its place is foreign.
	recorded := c.store.Request(stateID).Err
	if recorded != settled {
		c.inst.Logger().WithRequest(meta).Debug(ctx,
			"settled error diverges from recorded state",
			observe.Field{Key: "settled", Value: errString(settled)},
			observe.Field{Key: "recorded", Value: errString(recorded)},
		)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
