package signal

import (
	"errors"
	"sync"
)

// ErrAborted is the cause recorded when an Abort is triggered without an
// explicit one.
var ErrAborted = errors.New("signal: aborted")

// Abort is a one-shot cancellation signal shared by multiple waiters.
//
// Contract:
//   - Safe for concurrent use.
//   - Trigger is idempotent; the first cause wins.
//   - Done is closed exactly once, after the cause is recorded, so a waiter
//     that observes the close always sees a non-nil Err.
type Abort struct {
	mu    sync.Mutex
	done  chan struct{}
	cause error
}

// NewAbort creates an untriggered Abort.
func NewAbort() *Abort {
	return &Abort{done: make(chan struct{})}
}

// Done returns a channel that is closed when the signal fires.
func (a *Abort) Done() <-chan struct{} {
	return a.done
}

// Trigger fires the signal with the given cause. A nil cause is recorded as
// ErrAborted. Calls after the first are no-ops.
func (a *Abort) Trigger(cause error) {
	if cause == nil {
		cause = ErrAborted
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	select {
	case <-a.done:
		return
	default:
	}
	a.cause = cause
	close(a.done)
}

// Err returns the recorded cause, or nil if the signal has not fired.
func (a *Abort) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	select {
	case <-a.done:
		return a.cause
	default:
		return nil
	}
}

// Triggered reports whether the signal has fired.
func (a *Abort) Triggered() bool {
	return a.Err() != nil
}
