package store

import (
	"maps"
	"sync"
)

// Store is the cache state machine. All transitions are atomic and safe for
// concurrent use; listeners observe snapshots in monotonic order, with rapid
// back-to-back transitions allowed to coalesce into one delivery.
type Store struct {
	mu       sync.Mutex
	requests map[string]RequestState
	shared   any
	snap     *State
	seq      uint64
	retain   bool
	subs     []subscriber
	nextSub  int

	notifyMu  sync.Mutex
	delivered uint64
}

type subscriber struct {
	id int
	fn Listener
}

// Option configures a Store.
type Option func(*Store)

// RetainDataOnError keeps the previous data of a request visible when a
// later fetch for it fails. The default clears data on failure.
func RetainDataOnError() Option {
	return func(s *Store) { s.retain = true }
}

// WithInitial seeds the store, typically with state extracted on a server.
// Hydrated entries are never loading.
func WithInitial(st State) Option {
	return func(s *Store) {
		s.requests = make(map[string]RequestState, len(st.Requests))
		for id, rs := range st.Requests {
			rs.Loading = false
			s.requests[id] = rs
		}
		s.shared = st.Shared
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{requests: make(map[string]RequestState)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot. The same snapshot value is returned
// until the next transition.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Request returns the entry for id, zero-valued if absent.
func (s *Store) Request(id string) RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

// Shared returns the shared aggregate.
func (s *Store) Shared() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shared
}

// Subscribe registers a listener for future transitions and returns its
// unsubscribe function. A nil listener returns a no-op unsubscribe.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// QueryStart marks id as loading, keeping any previous data visible and
// clearing a previous error. No-op if the entry is already loading.
func (s *Store) QueryStart(id string) {
	s.transition(func() bool {
		rs := s.requests[id]
		if rs.Loading {
			return false
		}
		rs.Loading = true
		rs.Err = nil
		s.requests[id] = rs
		return true
	})
}

// QueryStartOptimistic marks id as loading with an optimistic value in place
// of data, optionally patching the shared aggregate. No-op if the entry is
// already loading: a joining caller's optimistic value never stacks on the
// first one.
func (s *Store) QueryStartOptimistic(id string, optimistic any, patch Patch) {
	s.transition(func() bool {
		rs := s.requests[id]
		if rs.Loading {
			return false
		}
		rs.Loading = true
		rs.Data = optimistic
		rs.HasData = true
		rs.Err = nil
		s.requests[id] = rs
		if patch != nil {
			s.shared = patch(s.shared)
		}
		return true
	})
}

// QuerySuccess records a settled result for id. With a patch the result
// lives in the shared aggregate and the per-request copy is dropped; without
// one the result is stored on the entry itself.
func (s *Store) QuerySuccess(id string, data any, patch Patch) {
	s.transition(func() bool {
		rs := s.requests[id]
		rs.Loading = false
		rs.Err = nil
		if patch != nil {
			s.shared = patch(s.shared)
			rs.Data = nil
			rs.HasData = false
		} else {
			rs.Data = data
			rs.HasData = true
		}
		s.requests[id] = rs
		return true
	})
}

// QueryFail records a failure for id. Previous data is cleared unless the
// store was built with RetainDataOnError.
func (s *Store) QueryFail(id string, err error) {
	s.transition(func() bool {
		rs := s.requests[id]
		rs.Loading = false
		rs.Err = err
		if !s.retain {
			rs.Data = nil
			rs.HasData = false
		}
		s.requests[id] = rs
		return true
	})
}

// QueryFailOptimistic records a failure for an optimistically started query:
// the shared aggregate is reverted and the pre-optimistic data becomes the
// displayed value alongside the error. The retain setting does not apply
// here; it only governs QueryFail, where the cleared value is a real prior
// result rather than a rolled-back speculation.
func (s *Store) QueryFailOptimistic(id string, err error, fallback any, hasFallback bool, revert Patch) {
	s.transition(func() bool {
		if revert != nil {
			s.shared = revert(s.shared)
		}
		rs := s.requests[id]
		rs.Loading = false
		rs.Err = err
		rs.Data = fallback
		rs.HasData = hasFallback
		s.requests[id] = rs
		return true
	})
}

// MutateStartOptimistic applies an optimistic patch to the shared aggregate.
// Mutations have no per-request entry, so a nil patch is a no-op.
func (s *Store) MutateStartOptimistic(patch Patch) {
	if patch == nil {
		return
	}
	s.transition(func() bool {
		s.shared = patch(s.shared)
		return true
	})
}

// MutateSuccess commits a mutation result to the shared aggregate. The patch
// may be nil when the mutation has no merge strategy; listeners are still
// notified so bindings can react to completion.
func (s *Store) MutateSuccess(patch Patch) {
	s.transition(func() bool {
		if patch != nil {
			s.shared = patch(s.shared)
		}
		return true
	})
}

// MutateFailOptimistic rolls back an optimistic mutation patch.
func (s *Store) MutateFailOptimistic(revert Patch) {
	if revert == nil {
		return
	}
	s.transition(func() bool {
		s.shared = revert(s.shared)
		return true
	})
}

// Purge resets the store to the given initial state, or to empty. In-flight
// fetches are not affected; cancelling them is the orchestrator's job.
func (s *Store) Purge(initial *State) {
	s.transition(func() bool {
		next := make(map[string]RequestState)
		var shared any
		if initial != nil {
			for id, rs := range initial.Requests {
				rs.Loading = false
				next[id] = rs
			}
			shared = initial.Shared
		}
		s.requests = next
		s.shared = shared
		return true
	})
}

// Extract returns the snapshot in its serializable form: loading flags are
// coerced to false, so a request that was still loading extracts as settled
// without data.
func (s *Store) Extract() State {
	st := s.State().Clone()
	for id, rs := range st.Requests {
		if rs.Loading {
			rs.Loading = false
			st.Requests[id] = rs
		}
	}
	return st
}

func (s *Store) snapshotLocked() State {
	if s.snap == nil {
		snap := State{Requests: maps.Clone(s.requests), Shared: s.shared}
		s.snap = &snap
	}
	return *s.snap
}

// transition runs apply under the lock and, if it reports a change, delivers
// the new snapshot to listeners. Deliveries are serialized and stamped so a
// slow listener never observes state older than one it has already seen.
func (s *Store) transition(apply func() bool) {
	s.mu.Lock()
	if !apply() {
		s.mu.Unlock()
		return
	}
	s.snap = nil
	s.seq++
	seq := s.seq
	snap := s.snapshotLocked()
	listeners := make([]Listener, len(s.subs))
	for i, sub := range s.subs {
		listeners[i] = sub.fn
	}
	s.mu.Unlock()

	if len(listeners) == 0 {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		// A newer snapshot was already delivered.
		return
	}
	s.delivered = seq
	for _, fn := range listeners {
		fn(snap)
	}
}
