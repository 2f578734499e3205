package client

import "github.com/jonwraymond/queryops/request"

// decision is the outcome of evaluating a fetch policy against cached state:
// what can be served right now, and whether the network is consulted.
type decision struct {
	data    any
	hasData bool
	err     error
	fetch   bool
}

// sufficient reports whether the cached state alone satisfies the request.
// A cached error only counts when the descriptor opted in with
// ApplyPolicyToError.
func (d decision) sufficient() bool {
	return d.hasData || d.err != nil
}

// evaluate applies the policy decision table to the state recorded under
// stateID. For policies that share state, a request-level miss falls back to
// the descriptor's FromCache strategy over the shared aggregate; no-cache
// requests never read shared state.
func (c *Client) evaluate(d request.Descriptor, pol request.FetchPolicy, stateID string) decision {
	rs := c.store.Request(stateID)
	data, has := rs.Data, rs.HasData
	if !has && pol != request.NoCache && d.FromCache != nil {
		data, has = d.FromCache(c.store.Shared(), d)
	}
	var cachedErr error
	if d.ApplyPolicyToError {
		cachedErr = rs.Err
	}

	dec := decision{data: data, hasData: has, err: cachedErr}
	switch pol {
	case request.CacheOnly:
		dec.fetch = false
	case request.CacheFirst:
		dec.fetch = !dec.sufficient()
	case request.CacheAndNetwork, request.NoCache:
		dec.fetch = true
	default:
		dec.fetch = !dec.sufficient()
	}
	return dec
}
