package errors

import (
	stderrors "errors"
	"fmt"
)

// VerificationError is the only error shape returned by token verification.
type VerificationError struct {
	// Kind classifies the failure.
	Kind ErrorKind `json:"kind"`
	// Message is a human-readable description.
	Message string `json:"message"`
	// Retryable indicates the caller may try again later.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status for this failure.
	HTTPStatus int `json:"-"`
	// Details contains additional context (discovery URL, kid, attempts).
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *VerificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *VerificationError) Unwrap() error { return e.Cause }

// Is matches another *VerificationError by kind, so
// errors.Is(err, &VerificationError{Kind: KindNotMatchingKey}) works.
func (e *VerificationError) Is(target error) bool {
	t, ok := target.(*VerificationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithCause sets the underlying cause and returns the receiver.
func (e *VerificationError) WithCause(cause error) *VerificationError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *VerificationError) WithDetail(key string, value any) *VerificationError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a VerificationError with retryable and status detection.
func New(kind ErrorKind, message string) *VerificationError {
	return &VerificationError{
		Kind:       kind,
		Message:    message,
		Retryable:  IsRetryableKind(kind),
		HTTPStatus: HTTPStatusFor(kind),
	}
}

// --- Constructors, one per kind ---

// InvalidToken is returned for an empty token.
func InvalidToken() *VerificationError {
	return New(KindInvalidToken, "Token provided must be a non-empty string")
}

// TokenNotDecoded is returned when the token structure cannot be parsed.
func TokenNotDecoded(cause error) *VerificationError {
	return New(KindTokenNotDecoded,
		"An error occurred decoding your JWT. Check that your token is a well-formed JWT").WithCause(cause)
}

// MissingKeyID is returned when the header has no "kid".
func MissingKeyID() *VerificationError {
	return New(KindMissingKeyID, "The given JWT has no kid. Please double-check it is a valid token")
}

// ErrorFetchingKeys wraps the last error seen while fetching the key set.
func ErrorFetchingKeys(discoveryURL string, cause error) *VerificationError {
	return New(KindErrorFetchingKeys, "An error occurred retrieving public keys from the discovery endpoint").
		WithCause(cause).
		WithDetail("discovery_url", discoveryURL)
}

// InvalidDiscoveryResponse is returned for a 200 response that is not a usable key set.
func InvalidDiscoveryResponse(discoveryURL string, cause error) *VerificationError {
	return New(KindInvalidDiscoveryResponse,
		fmt.Sprintf("API call to discovery URL %s returned an invalid response", discoveryURL)).
		WithCause(cause).
		WithDetail("discovery_url", discoveryURL)
}

// NotMatchingKey is returned when no key carries the token's kid.
func NotMatchingKey(kid string) *VerificationError {
	return New(KindNotMatchingKey, "A key matching your token kid cannot be found in the published keys").
		WithDetail("kid", kid)
}

// SignatureVerificationFailed preserves the verification primitive's message.
func SignatureVerificationFailed(cause error) *VerificationError {
	msg := "signature verification failed"
	if cause != nil {
		msg = cause.Error()
	}
	return New(KindSignatureVerificationFailed, msg).WithCause(cause)
}

// --- Inspection helpers ---

// AsVerificationError extracts a *VerificationError from err's chain.
func AsVerificationError(err error) (*VerificationError, bool) {
	var ve *VerificationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// KindOf returns the kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	ve, ok := AsVerificationError(err)
	if !ok {
		return "", false
	}
	return ve.Kind, true
}

// Is reports whether err carries the given kind.
func Is(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
