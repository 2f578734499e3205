package flight

import (
	"sync"

	"github.com/jonwraymond/queryops/signal"
)

// Registry deduplicates in-flight fetches by request identity.
//
// Safe for concurrent use. Entries remove themselves on settlement through
// Remove; an entry that was aborted is removed eagerly so a later request
// for the same identity starts a fresh flight.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry

	created uint64
	joined  uint64
	aborted uint64
	reruns  uint64
}

// Stats is a point-in-time view of registry activity.
type Stats struct {
	Active  int
	Created uint64
	Joined  uint64
	Aborted uint64
	Reruns  uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Join returns the flight for id, creating it if none is pending, and
// records the caller's interest. The second result is true when this call
// created the flight; the creator is responsible for running the fetch.
func (r *Registry) Join(id, caller string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.addWaiter(caller)
		r.joined++
		return e, false
	}
	e := newEntry(id, caller)
	r.entries[id] = e
	r.created++
	return e, true
}

// Lookup returns the pending flight for id, if any.
func (r *Registry) Lookup(id string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return e, ok
}

// Abort withdraws a caller's interest in id. The flight is cancelled when
// the last interested caller leaves, or immediately when force is set;
// callers still waiting on a forced flight see it discarded. Reports
// whether cancellation fired.
func (r *Registry) Abort(id, caller string, force bool) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	fire := e.dropWaiter(caller, force)
	if fire {
		delete(r.entries, id)
		r.aborted++
	}
	r.mu.Unlock()

	if fire {
		e.abort.Trigger(signal.ErrAborted)
	}
	return fire
}

// Rerun asks the pending flight for id to repeat its attempt. Reports
// whether a flight accepted the request.
func (r *Registry) Rerun(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if !e.RequestRerun() {
		return false
	}
	r.mu.Lock()
	r.reruns++
	r.mu.Unlock()
	return true
}

// RerunAll asks every pending flight to repeat its attempt and returns how
// many accepted. Mutations call this so responses already in the air cannot
// overwrite the state they just changed.
func (r *Registry) RerunAll() int {
	r.mu.Lock()
	pending := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		pending = append(pending, e)
	}
	r.mu.Unlock()

	n := 0
	for _, e := range pending {
		if e.RequestRerun() {
			n++
		}
	}
	if n > 0 {
		r.mu.Lock()
		r.reruns += uint64(n)
		r.mu.Unlock()
	}
	return n
}

// Remove deletes the entry for id only if it is still the current one. A
// stale pointer, left over from a flight that was aborted and replaced,
// never evicts its successor.
func (r *Registry) Remove(id string, e *Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[id]; ok && cur == e {
		delete(r.entries, id)
		return true
	}
	return false
}

// Entries snapshots the pending flights.
func (r *Registry) Entries() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// Len returns the number of pending flights.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// PurgeAll force-aborts and discards every pending flight, returning how
// many were dropped. Used when the whole cache is being reset.
func (r *Registry) PurgeAll(cause error) int {
	if cause == nil {
		cause = signal.ErrAborted
	}
	r.mu.Lock()
	dropped := make([]*Entry, 0, len(r.entries))
	for id, e := range r.entries {
		dropped = append(dropped, e)
		delete(r.entries, id)
	}
	r.aborted += uint64(len(dropped))
	r.mu.Unlock()

	for _, e := range dropped {
		e.abort.Trigger(cause)
		e.Discard(cause)
	}
	return len(dropped)
}

// Stats returns activity counters since the registry was created.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Active:  len(r.entries),
		Created: r.created,
		Joined:  r.joined,
		Aborted: r.aborted,
		Reruns:  r.reruns,
	}
}
