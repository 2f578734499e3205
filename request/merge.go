package request

// Merger combines the client's default descriptor with a per-call one into
// the effective descriptor. The result must be total: identity and policy
// resolvable without further context.
type Merger func(defaults, partial Descriptor) Descriptor

// DefaultMerge is a shallow override: a field set on the per-call descriptor
// replaces the default wholesale, an unset one falls back. Params, Body, and
// Headers are not deep-merged.
//
// Call-scoped fields (Lazy, ApplyPolicyToError, RerunQueries, Refetch, and
// the optimistic value) are taken from the per-call descriptor alone;
// defaults never contribute them.
func DefaultMerge(defaults, partial Descriptor) Descriptor {
	out := partial

	if out.Method == "" {
		out.Method = defaults.Method
	}
	if out.Path == "" {
		out.Path = defaults.Path
	}
	if out.Params == nil {
		out.Params = defaults.Params
	}
	if out.Body == nil {
		out.Body = defaults.Body
	}
	if out.Headers == nil {
		out.Headers = defaults.Headers
	}
	if out.Policy == PolicyDefault {
		out.Policy = defaults.Policy
	}
	if out.Process == nil {
		out.Process = defaults.Process
	}
	if out.ToCache == nil {
		out.ToCache = defaults.ToCache
	}
	if out.FromCache == nil {
		out.FromCache = defaults.FromCache
	}
	if out.RevertCache == nil {
		out.RevertCache = defaults.RevertCache
	}
	return out
}
