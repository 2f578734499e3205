package signal

import "sync"

// Rerun asks an in-flight attempt to restart without settling.
//
// Request marks a restart as wanted and wakes at most one selector through C.
// Consume atomically reads and clears the mark, so any number of Requests
// issued before a Consume collapse into a single restart. A receive from C is
// only a wakeup hint; the receiver must confirm with Consume before acting.
type Rerun struct {
	mu      sync.Mutex
	pending bool
	notify  chan struct{}
}

// NewRerun creates a Rerun with no restart pending.
func NewRerun() *Rerun {
	return &Rerun{notify: make(chan struct{}, 1)}
}

// C returns the wakeup channel. It carries at most one buffered notification
// per pending restart.
func (r *Rerun) C() <-chan struct{} {
	return r.notify
}

// Request marks a restart as wanted.
func (r *Rerun) Request() {
	r.mu.Lock()
	r.pending = true
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Consume reports whether a restart was pending and clears it, draining any
// buffered wakeup along with it.
func (r *Rerun) Consume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	was := r.pending
	r.pending = false
	if was {
		select {
		case <-r.notify:
		default:
		}
	}
	return was
}

// Pending reports whether a restart is waiting to be consumed.
func (r *Rerun) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}
