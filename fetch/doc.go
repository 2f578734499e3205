// Package fetch is the transport boundary of the engine.
//
// A Fetcher performs one network exchange and reports transport failures as
// errors; HTTP error statuses are not transport failures and come back in
// the RawResponse for response processing to judge. HTTPFetcher is the
// net/http implementation, BuildURL produces deterministic URLs from
// parameter maps, and the token sources decorate a Fetcher with bearer
// credentials refreshed out of band.
//
// The package has no cache or policy knowledge; cancellation and deadlines
// arrive through the context.
package fetch
