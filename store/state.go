package store

import "maps"

// RequestState is the recorded outcome of one identified request.
//
// HasData distinguishes "no data yet" from data that is legitimately nil.
// When a merge strategy moves a result into the shared aggregate the
// per-request copy is dropped, so HasData is false even though the request
// succeeded; readers fall back to the shared aggregate in that case.
type RequestState struct {
	Loading bool
	Data    any
	HasData bool
	Err     error
}

// State is a snapshot of the whole store: every request entry plus the
// shared aggregate.
type State struct {
	Requests map[string]RequestState
	Shared   any
}

// Clone returns a deep-enough copy of the snapshot: the request map is
// copied, entry values and the shared aggregate are not.
func (s State) Clone() State {
	return State{Requests: maps.Clone(s.Requests), Shared: s.Shared}
}

// Patch computes the next shared aggregate from the current one. Patches run
// inside a transition with the store lock held, so they must be quick, pure,
// and must not call back into the store.
type Patch func(shared any) any

// Listener observes store snapshots. Listeners run synchronously after a
// transition and must not call transition methods; reads are fine.
type Listener func(State)
