package request

import (
	"net/http"

	"github.com/jonwraymond/queryops/fetch"
)

// CacheWriteFunc merges a settled result into the shared aggregate and
// returns the next aggregate. It runs inside a store transition: keep it
// quick and pure, and never let it panic.
type CacheWriteFunc func(shared, data any, d Descriptor) any

// CacheReadFunc derives a request's data from the shared aggregate. A false
// return means the aggregate holds nothing for this request; absence is a
// normal outcome, not an error.
type CacheReadFunc func(shared any, d Descriptor) (any, bool)

// CacheRevertFunc is the inverse of CacheWriteFunc for a given applied
// value: it returns the aggregate as it would be had the value never been
// merged. Optimistic updates are rolled back with it.
type CacheRevertFunc func(shared, applied any, d Descriptor) any

// Descriptor describes one request.
//
// The identity fields (Method, Path, Params, Body) determine which request
// this is: descriptors with equal identity deduplicate against each other.
// Everything else shapes behavior only and never affects identity; when two
// callers collide on one identity, the behavior of whichever arrived first
// wins for the shared flight.
type Descriptor struct {
	// Method is the HTTP verb. Queries default to GET, mutations to POST.
	Method string

	// Path is resolved against the client's base URL unless absolute.
	Path string

	// Params become the query string, encoded in sorted key order.
	Params map[string]any

	// Body is JSON-encoded for the wire unless a custom fetcher says
	// otherwise. Part of the identity.
	Body any

	// Headers are sent as given. Not part of the identity.
	Headers http.Header

	// Policy picks the cache/network balance. PolicyDefault defers to the
	// client default.
	Policy FetchPolicy

	// Lazy requests are not fetched by bindings that respect laziness; an
	// explicit query still fetches them.
	Lazy bool

	// ApplyPolicyToError makes a cached error count as sufficient cached
	// state for policy short-circuits, exactly like cached data.
	ApplyPolicyToError bool

	// RerunQueries restarts every loading query in place once this
	// mutation succeeds, so their responses cannot overwrite fresher
	// state.
	RerunQueries bool

	// Refetch lists queries to re-issue after this mutation settles
	// successfully. They run detached from the mutation's context.
	Refetch []Descriptor

	// Optimistic is applied to state when the request starts, before the
	// network answers. HasOptimistic distinguishes an intentional nil.
	// Rolling back a shared-aggregate patch requires RevertCache; without
	// it the patch is skipped and logged.
	Optimistic    any
	HasOptimistic bool

	// Process turns the raw response into data or an error.
	// Default: fetch.ProcessJSON.
	Process fetch.ProcessFunc

	// ToCache, FromCache, and RevertCache are the shared-aggregate merge
	// strategy. With ToCache set, results live in the aggregate and the
	// per-request copy is dropped; FromCache serves later reads from the
	// aggregate.
	ToCache     CacheWriteFunc
	FromCache   CacheReadFunc
	RevertCache CacheRevertFunc
}

// WithOptimistic returns a copy carrying v as the optimistic value.
func (d Descriptor) WithOptimistic(v any) Descriptor {
	d.Optimistic = v
	d.HasOptimistic = true
	return d
}
