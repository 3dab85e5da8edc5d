package discovery

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/MarioArnt/azure-ad-jwt-lite/keyset"
)

// StatusError is returned for a non-200 discovery answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server answered with status code %d", e.StatusCode)
	}
	return fmt.Sprintf("server answered with status code %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the status is a 5xx.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError && e.StatusCode <= 599
}

// TransportError is returned when no HTTP response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("discovery request failed: %v", e.Err) }

// Unwrap returns the transport error.
func (e *TransportError) Unwrap() error { return e.Err }

// isTransient decides whether a failed attempt is worth repeating.
// Caller cancellation and malformed payloads are never retried.
func isTransient(err error) bool {
	if stderrors.Is(err, keyset.ErrInvalidKeySet) {
		return false
	}
	var se *StatusError
	if stderrors.As(err, &se) {
		return se.Transient()
	}
	var te *TransportError
	return stderrors.As(err, &te)
}
