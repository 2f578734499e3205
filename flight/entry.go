package flight

import (
	"context"
	"sync"

	"github.com/jonwraymond/queryops/signal"
)

// Outcome is the terminal result of a flight, shared verbatim by every
// caller that joined it.
type Outcome struct {
	Data any
	Err  error
}

// Entry is one shared in-flight fetch.
//
// The owning fetch loop drives it through a fixed protocol: after each
// network attempt it checks the abort signal first, then asks BeginSettle
// for the right to publish. BeginSettle refuses when a rerun was requested,
// in which case the loop repeats the attempt instead of settling. An abort
// that loses the race with settlement has no effect on the outcome.
type Entry struct {
	id    string
	abort *signal.Abort
	rerun *signal.Rerun
	done  chan struct{}

	mu       sync.Mutex
	waiting  map[string]bool
	settling bool
	settled  bool
	outcome  Outcome
}

func newEntry(id, caller string) *Entry {
	return &Entry{
		id:      id,
		abort:   signal.NewAbort(),
		rerun:   signal.NewRerun(),
		done:    make(chan struct{}),
		waiting: map[string]bool{caller: true},
	}
}

// ID returns the request identity this flight serves.
func (e *Entry) ID() string { return e.id }

// Done is closed when the flight settles or is discarded.
func (e *Entry) Done() <-chan struct{} { return e.done }

// Wait blocks until the flight settles or ctx ends. The returned error is
// ctx's only; a settlement failure travels inside the Outcome.
func (e *Entry) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-e.done:
		return e.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// AbortDone is closed when the flight's abort signal fires.
func (e *Entry) AbortDone() <-chan struct{} { return e.abort.Done() }

// AbortCause returns why the flight was aborted, nil if it was not.
func (e *Entry) AbortCause() error { return e.abort.Err() }

// Aborted reports whether the abort signal has fired.
func (e *Entry) Aborted() bool { return e.abort.Triggered() }

// RerunC returns the wakeup channel for rerun requests; the fetch loop
// selects on it to cancel the current attempt early.
func (e *Entry) RerunC() <-chan struct{} { return e.rerun.C() }

// RequestRerun asks the flight to repeat its attempt instead of settling
// with a response that is already on its way. Reports false when the flight
// is past the point of no return.
func (e *Entry) RequestRerun() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settling || e.settled {
		return false
	}
	e.rerun.Request()
	return true
}

// ConsumeRerun reports whether a rerun was requested and clears it. Called
// by the fetch loop between attempts.
func (e *Entry) ConsumeRerun() bool {
	return e.rerun.Consume()
}

// BeginSettle claims the right to publish an outcome. It refuses when a
// rerun request arrived first, consuming the request; the caller then
// repeats the attempt. Once BeginSettle succeeds no further reruns are
// accepted.
func (e *Entry) BeginSettle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settling || e.settled {
		return false
	}
	if e.rerun.Consume() {
		return false
	}
	e.settling = true
	return true
}

// FinishSettle publishes the outcome claimed by BeginSettle and releases
// every waiter. No-op if the flight was discarded in between.
func (e *Entry) FinishSettle(o Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settled {
		return
	}
	e.outcome = o
	e.settled = true
	close(e.done)
}

// Discard terminates an aborted flight: waiters are released with the cause
// as the outcome and nothing is ever published. No-op once settled.
func (e *Entry) Discard(cause error) {
	if cause == nil {
		cause = signal.ErrAborted
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settled {
		return
	}
	e.outcome = Outcome{Err: cause}
	e.settled = true
	close(e.done)
}

// Waiting returns how many callers still hold an interest in the flight.
func (e *Entry) Waiting() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.waiting)
}

func (e *Entry) addWaiter(caller string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.waiting[caller] = true
}

// dropWaiter removes a caller's interest and reports whether the flight
// should be cancelled: either interest hit zero or force was set.
func (e *Entry) dropWaiter(caller string, force bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.waiting, caller)
	return force || len(e.waiting) == 0
}
