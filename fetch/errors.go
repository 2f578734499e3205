package fetch

import "errors"

var (
	// ErrNilResponse indicates a processor was handed no response.
	ErrNilResponse = errors.New("fetch: nil response")

	// ErrNilRefresh indicates a refreshing token source was built without a
	// refresh function.
	ErrNilRefresh = errors.New("fetch: refresh function is required")

	// ErrNoToken indicates a token source produced an empty token.
	ErrNoToken = errors.New("fetch: no token available")
)
