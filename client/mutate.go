package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/request"
	"github.com/jonwraymond/queryops/store"
)

// Mutate performs a write. Mutations are never deduplicated and never get a
// per-request state entry; their results only reach the shared aggregate,
// through the descriptor's merge strategy.
//
// With an optimistic value the shared aggregate is patched before the
// network answers and rolled back through the descriptor's RevertCache if
// the mutation fails; on success the real result replaces the optimistic
// patch in one transition. An optimistic value without both ToCache and
// RevertCache is a declared unsupported combination: logged, nothing
// applied.
//
// After a successful commit, RerunQueries restarts every loading query in
// place so responses already in the air cannot overwrite the mutated state,
// and each Refetch descriptor is re-issued detached from ctx.
func (c *Client) Mutate(ctx context.Context, partial request.Descriptor, caller string) (any, error) {
	if caller == "" {
		caller = uuid.NewString()
	}
	d := c.merge(c.defaults, partial)
	if d.Method == "" {
		d.Method = http.MethodPost
	}
	pol := c.effectivePolicy(d.Policy)
	id, err := request.Identity(d)
	if err != nil {
		return nil, err
	}
	meta := c.meta("mutation", id, d, pol)
	log := c.inst.Logger().WithRequest(meta)

	var revert store.Patch
	if d.HasOptimistic && pol != request.NoCache {
		if d.ToCache == nil || d.RevertCache == nil {
			log.Warn(ctx, "optimistic response without a merge and revert strategy; patch skipped")
		} else {
			applied := d.Optimistic
			c.store.MutateStartOptimistic(func(shared any) any { return d.ToCache(shared, applied, d) })
			revert = func(shared any) any { return d.RevertCache(shared, applied, d) }
		}
	}

	data, err := c.attempt(ctx, d, meta)
	if err != nil {
		if revert != nil {
			c.store.MutateFailOptimistic(revert)
			c.inst.Revert(ctx, meta)
		}
		return nil, err
	}

	var patch store.Patch
	if pol != request.NoCache && d.ToCache != nil {
		patch = func(shared any) any { return d.ToCache(shared, data, d) }
	}
	if revert != nil {
		rv := revert
		if inner := patch; inner != nil {
			patch = func(shared any) any { return inner(rv(shared)) }
		} else {
			patch = rv
		}
	}
	c.store.MutateSuccess(patch)

	if d.RerunQueries {
		if n := c.registry.RerunAll(); n > 0 {
			c.inst.Rerun(ctx, meta)
			log.Debug(ctx, "loading queries asked to rerun", observe.Field{Key: "count", Value: n})
		}
	}
	c.refetch(ctx, d, log)
	return data, nil
}

// refetch re-issues the mutation's refetch queries. They run detached from
// the mutation's context and commit through the normal query path; a
// refetch that fails only logs. Descriptors that leave their policy unset
// refetch with cache-and-network, since serving the cache they are meant to
// refresh would make them no-ops.
func (c *Client) refetch(ctx context.Context, d request.Descriptor, log observe.Logger) {
	if len(d.Refetch) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	for _, rd := range d.Refetch {
		rd := rd
		if rd.Policy == request.PolicyDefault {
			rd.Policy = request.CacheAndNetwork
		}
		go func() {
			if _, err := c.Query(detached, rd, "refetch:"+uuid.NewString(), SkipCacheTrust()); err != nil {
				log.Warn(detached, "refetch after mutation failed",
					observe.Field{Key: "path", Value: rd.Path},
					observe.Field{Key: "error", Value: err.Error()},
				)
			}
		}()
	}
}
