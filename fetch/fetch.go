package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Request is one outgoing exchange, already reduced to wire terms: the URL
// carries the query string and the body is encoded.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// RawResponse is the unprocessed result of an exchange.
type RawResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher performs a single exchange.
//
// Contract:
//   - Context cancellation aborts the exchange; the returned error must
//     match the context's error through errors.Is.
//   - Transport failures are errors. HTTP error statuses are not; they are
//     returned as a RawResponse for response processing to judge.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*RawResponse, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*RawResponse, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*RawResponse, error) {
	return f(ctx, req)
}

// HTTPFetcher is the net/http Fetcher. It sets no timeouts of its own;
// deadlines and cancellation come from the caller's context.
type HTTPFetcher struct {
	client *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher wraps an http.Client. A nil client gets a fresh one.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPFetcher{client: client}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, req Request) (*RawResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}

	resp, err := h.client.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s %s: %w", method, req.URL, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	return &RawResponse{Status: resp.StatusCode, Header: resp.Header, Body: b}, nil
}
