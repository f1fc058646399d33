package api

import (
	"errors"
	"fmt"
)

// ErrNotFound means the whole search window was probed without a hit
var ErrNotFound = errors.New("no run found in search window")

// TransportError wraps a network or timeout failure
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a non-2xx answer on retrieval
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("archive returned status %d for %s", e.StatusCode, e.URL)
}

// ErrUnknownStation rejects stations outside the configured set
var ErrUnknownStation = errors.New("unknown station")
