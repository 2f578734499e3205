// Package store holds the shared cache state for queries and mutations.
//
// The state is a map of per-request entries plus one shared aggregate that
// merge strategies write into. All changes go through named transition
// methods (QueryStart, QuerySuccess, MutateFailOptimistic, ...) that are
// applied atomically; listeners registered with Subscribe observe snapshots
// after each change. The package also defines the wire form used to move
// state between a server render and a client, with pluggable error encoding.
//
// Snapshots returned by State and passed to listeners share backing maps
// with later snapshots only when nothing changed in between; treat them as
// read-only.
package store
