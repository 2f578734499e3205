// Package signal provides the cancellation and restart primitives used to
// coordinate shared in-flight fetches.
//
// An Abort is a one-shot cancellation signal that any number of independent
// waiters can select on; a Rerun asks an in-flight attempt to restart in
// place without settling. Both are plain synchronization objects with no
// knowledge of requests or caches, so they can be composed freely with
// contexts and channels.
package signal
