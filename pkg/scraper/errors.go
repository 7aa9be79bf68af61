package scraper

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrServiceUnavailable is a 503 from a retailer, usually bot defense. Retried.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrBadStatus is any other non-2xx response.
	ErrBadStatus = errors.New("bad HTTP status")

	// ErrTransport covers DNS failures, timeouts and connection resets.
	ErrTransport = errors.New("transport failure")

	// ErrRetriesExhausted is returned when every attempt failed with a retryable error.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// StatusError is a non-2xx response. It matches ErrServiceUnavailable for 503 and
// ErrBadStatus for everything else.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Is(target error) bool {
	if e.StatusCode == http.StatusServiceUnavailable {
		return target == ErrServiceUnavailable
	}
	return target == ErrBadStatus
}
