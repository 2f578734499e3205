// Package flight tracks fetches that are in the air.
//
// Each distinct request identity gets at most one Entry; callers that ask
// for the same identity while it is pending join the existing Entry instead
// of fetching again, and every joined caller receives the same settlement.
// Interest is reference-counted: a caller leaving does nothing while others
// remain, and the flight is cancelled only when the last caller leaves or
// cancellation is forced.
//
// An Entry can also be asked to rerun: the current network attempt is thrown
// away and repeated without the entry ever settling, which is how responses
// that predate a mutation are kept from overwriting fresher state.
package flight
