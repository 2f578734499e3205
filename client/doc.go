// Package client is the engine's public surface: it composes the cache
// store, the in-flight registry, and a Fetcher into the query/mutate
// protocol.
//
// A Client is an explicit object with caller-controlled lifetime. Server
// renders build one per request and Extract the resulting state; interactive
// programs build one and pass it around. There is no package-level instance.
//
// Query deduplicates against other queries with the same identity, consults
// the fetch policy before going to the network, and commits settlements to
// the store before any waiter observes them. Mutate is never deduplicated;
// it can apply an optimistic patch that is rolled back on failure, restart
// loading queries so stale responses cannot overwrite its result, and
// re-issue configured refetch queries.
package client
