package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/queryops/fetch"
	"github.com/jonwraymond/queryops/flight"
	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/request"
	"github.com/jonwraymond/queryops/store"
)

// runFetch drives one flight to its single settlement. The loop repeats the
// network attempt whenever a rerun was requested before settlement could
// begin, and commits the outcome to the store before releasing waiters, so
// a waiter that wakes up always reads committed state.
//
// The loop runs detached from any caller context: the flight outlives
// individual callers and ends only through settlement or abort.
func (c *Client) runFetch(e *flight.Entry, d request.Descriptor, stateID string, pol request.FetchPolicy, meta observe.RequestMeta, opt optimisticState) {
	ctx := context.Background()
	for {
		attemptCtx, cancel := context.WithCancel(ctx)
		stop := make(chan struct{})
		go func() {
			select {
			case <-e.AbortDone():
				cancel()
			case <-e.RerunC():
				cancel()
			case <-stop:
			}
		}()
		data, err := c.attempt(attemptCtx, d, meta)
		cancel()
		close(stop)

		if cause := e.AbortCause(); cause != nil {
			e.Discard(cause)
			c.registry.Remove(stateID, e)
			return
		}
		if !e.BeginSettle() {
			// A rerun beat the settlement; this attempt's response is
			// thrown away and the fetch repeats on the same flight.
			c.inst.Rerun(ctx, meta)
			continue
		}
		if cause := e.AbortCause(); cause != nil {
			// An abort can land between the check above and the settle
			// claim; a purged flight must not write into the store.
			e.Discard(cause)
			c.registry.Remove(stateID, e)
			return
		}

		if err != nil {
			c.commitFailure(ctx, stateID, meta, err, opt)
		} else {
			c.commitSuccess(stateID, d, pol, data, opt)
		}
		e.FinishSettle(flight.Outcome{Data: data, Err: err})
		c.registry.Remove(stateID, e)
		return
	}
}

func (c *Client) commitFailure(ctx context.Context, stateID string, meta observe.RequestMeta, err error, opt optimisticState) {
	if !opt.active {
		c.store.QueryFail(stateID, err)
		return
	}
	c.store.QueryFailOptimistic(stateID, err, opt.fallback, opt.hasFallback, opt.revert)
	if opt.revert != nil {
		c.inst.Revert(ctx, meta)
	}
}

// commitSuccess records a settled result. The real result supersedes an
// optimistic shared patch, so the patch is reverted before the merge
// strategy folds the result in; both happen inside one store transition.
func (c *Client) commitSuccess(stateID string, d request.Descriptor, pol request.FetchPolicy, data any, opt optimisticState) {
	var patch store.Patch
	if pol != request.NoCache && d.ToCache != nil {
		patch = func(shared any) any { return d.ToCache(shared, data, d) }
	}
	if opt.revert != nil {
		revert := opt.revert
		if inner := patch; inner != nil {
			patch = func(shared any) any { return inner(revert(shared)) }
		} else {
			patch = revert
		}
	}
	c.store.QuerySuccess(stateID, data, patch)
}

// attempt performs one network exchange plus response processing, under one
// telemetry span.
func (c *Client) attempt(ctx context.Context, d request.Descriptor, meta observe.RequestMeta) (any, error) {
	url, err := fetch.BuildURL(c.baseURL, d.Path, d.Params)
	if err != nil {
		return nil, err
	}
	header := d.Headers.Clone()
	var body []byte
	if d.Body != nil {
		body, err = json.Marshal(d.Body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		if header == nil {
			header = make(http.Header)
		}
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}
	}

	start := time.Now()
	fctx, span := c.inst.StartFetch(ctx, meta)
	raw, err := c.fetcher.Fetch(fctx, fetch.Request{
		Method: request.CanonicalMethod(d.Method),
		URL:    url,
		Header: header,
		Body:   body,
	})
	var data any
	if err == nil {
		process := d.Process
		if process == nil {
			process = fetch.ProcessJSON
		}
		data, err = process(raw)
	}
	c.inst.EndFetch(fctx, span, meta, start, err)
	return data, err
}
