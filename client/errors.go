package client

import "errors"

var (
	// ErrNilFetcher indicates New was called without a Fetcher.
	ErrNilFetcher = errors.New("client: fetcher is required")

	// ErrPurged is the abort cause given to flights cancelled by Purge.
	ErrPurged = errors.New("client: purged")
)
