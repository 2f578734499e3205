package fetch

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ProcessFunc turns a raw response into the data a request resolves with, or
// an error when the response means failure. Processing runs once per settled
// exchange, after deduplication.
type ProcessFunc func(raw *RawResponse) (any, error)

// StatusError reports a response outside the success range. The body is kept
// so callers can surface server-provided detail.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %d", e.Status)
}

// ProcessJSON is the default processor: 2xx responses decode as JSON, empty
// bodies resolve to nil, and anything outside 2xx fails with a StatusError.
func ProcessJSON(raw *RawResponse) (any, error) {
	if raw == nil {
		return nil, ErrNilResponse
	}
	if raw.Status < 200 || raw.Status > 299 {
		return nil, &StatusError{Status: raw.Status, Body: raw.Body}
	}
	if raw.Status == http.StatusNoContent || len(raw.Body) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw.Body, &v); err != nil {
		return nil, fmt.Errorf("fetch: decode response: %w", err)
	}
	return v, nil
}
