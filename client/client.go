package client

import (
	"sync/atomic"

	"github.com/jonwraymond/queryops/fetch"
	"github.com/jonwraymond/queryops/flight"
	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/request"
	"github.com/jonwraymond/queryops/store"
)

// Client coordinates queries and mutations over one cache store and one
// in-flight registry. Safe for concurrent use.
type Client struct {
	fetcher  fetch.Fetcher
	store    *store.Store
	registry *flight.Registry
	inst     *observe.Instruments

	defaults request.Descriptor
	merge    request.Merger
	policy   request.FetchPolicy
	baseURL  string
	codec    store.ErrorCodec
	server   bool

	// cacheTrust is the one-shot hydration optimization: while set, state
	// carried over from a server render is served without refetching, even
	// under policies that normally always fetch. The binding turns it off
	// after its first pass with DisableCacheTrust.
	cacheTrust atomic.Bool

	storeOpts []store.Option
}

// Option configures a Client.
type Option func(*Client)

// WithDefaults sets the descriptor merged under every per-call descriptor.
func WithDefaults(d request.Descriptor) Option {
	return func(c *Client) { c.defaults = d }
}

// WithMerger replaces the default shallow descriptor merge.
func WithMerger(m request.Merger) Option {
	return func(c *Client) {
		if m != nil {
			c.merge = m
		}
	}
}

// WithDefaultPolicy sets the policy used when a descriptor leaves its policy
// unset. The built-in default is CacheFirst.
func WithDefaultPolicy(p request.FetchPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithBaseURL sets the base every relative request path resolves against.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithInstruments attaches telemetry. Default: none.
func WithInstruments(i *observe.Instruments) Option {
	return func(c *Client) {
		if i != nil {
			c.inst = i
		}
	}
}

// WithInitialState seeds the store with extracted state and enables the
// one-shot cache-trust optimization over it.
func WithInitialState(st store.State) Option {
	return func(c *Client) {
		c.storeOpts = append(c.storeOpts, store.WithInitial(st))
		c.cacheTrust.Store(true)
	}
}

// RetainDataOnError keeps a request's previous data visible when a later
// fetch for it fails.
func RetainDataOnError() Option {
	return func(c *Client) {
		c.storeOpts = append(c.storeOpts, store.RetainDataOnError())
	}
}

// WithErrorCodec sets the error codec used by ExtractJSON. Default:
// store.StringCodec.
func WithErrorCodec(codec store.ErrorCodec) Option {
	return func(c *Client) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithServerMode marks the client as serving a non-interactive render;
// only then does ServerPending report pending queries.
func WithServerMode() Option {
	return func(c *Client) { c.server = true }
}

// New builds a Client around the given Fetcher.
func New(fetcher fetch.Fetcher, opts ...Option) (*Client, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	c := &Client{
		fetcher:  fetcher,
		registry: flight.NewRegistry(),
		inst:     observe.NoopInstruments(),
		merge:    request.DefaultMerge,
		policy:   request.CacheFirst,
		codec:    store.StringCodec{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = store.New(c.storeOpts...)
	return c, nil
}

// Store exposes the cache store so bindings can read state and subscribe.
func (c *Client) Store() *store.Store { return c.store }

// Stats returns the registry's activity counters.
func (c *Client) Stats() flight.Stats { return c.registry.Stats() }

// DisableCacheTrust ends the one-shot hydration optimization. Later queries
// follow their fetch policy against cached state as usual.
func (c *Client) DisableCacheTrust() { c.cacheTrust.Store(false) }

// Abort withdraws a caller's interest in the query described by partial.
// The underlying fetch is cancelled when no interested caller remains, or
// immediately when force is set. Reports whether cancellation fired.
func (c *Client) Abort(partial request.Descriptor, caller string, force bool) (bool, error) {
	d := c.merge(c.defaults, partial)
	pol := c.effectivePolicy(d.Policy)
	id, err := request.Identity(d)
	if err != nil {
		return false, err
	}
	return c.registry.Abort(c.flightID(id, pol, caller), caller, force), nil
}

// Purge force-aborts every in-flight fetch and resets the store to initial,
// or to empty.
func (c *Client) Purge(initial *store.State) {
	c.registry.PurgeAll(ErrPurged)
	c.store.Purge(initial)
}

// Extract returns the store state in its serializable form.
func (c *Client) Extract() store.State { return c.store.Extract() }

// ExtractJSON returns the store state encoded for transport, using the
// client's error codec.
func (c *Client) ExtractJSON() ([]byte, error) {
	return store.Marshal(c.store.Extract(), c.codec)
}

func (c *Client) effectivePolicy(p request.FetchPolicy) request.FetchPolicy {
	if p == request.PolicyDefault {
		p = c.policy
	}
	if p == request.PolicyDefault {
		p = request.CacheFirst
	}
	return p
}

// flightID scopes no-cache requests to their caller: their state and their
// flights are private, so two callers never deduplicate against each other.
func (c *Client) flightID(id string, pol request.FetchPolicy, caller string) string {
	if pol == request.NoCache {
		return id + "#" + caller
	}
	return id
}

func (c *Client) meta(kind, id string, d request.Descriptor, pol request.FetchPolicy) observe.RequestMeta {
	return observe.RequestMeta{
		Kind:     kind,
		Identity: id,
		Method:   request.CanonicalMethod(d.Method),
		Path:     d.Path,
		Policy:   pol.String(),
	}
}
