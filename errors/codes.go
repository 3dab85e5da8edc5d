package errors

import "net/http"

// ErrorKind is a machine-readable classification of a verification failure.
type ErrorKind string

const (
	// KindInvalidToken means the token was empty.
	KindInvalidToken ErrorKind = "InvalidToken"
	// KindTokenNotDecoded means the token is not a well-formed JWT.
	KindTokenNotDecoded ErrorKind = "TokenNotDecoded"
	// KindMissingKeyID means the token header carries no "kid".
	KindMissingKeyID ErrorKind = "MissingKeyID"
	// KindErrorFetchingKeys means the discovery endpoint could not be reached
	// or kept failing after the configured retries.
	KindErrorFetchingKeys ErrorKind = "ErrorFetchingKeys"
	// KindInvalidDiscoveryResponse means the discovery endpoint answered 200
	// with a body that is not a usable key set. Never retried.
	KindInvalidDiscoveryResponse ErrorKind = "InvalidDiscoveryResponse"
	// KindNotMatchingKey means no published key matches the token "kid".
	KindNotMatchingKey ErrorKind = "NotMatchingKey"
	// KindSignatureVerificationFailed means the signature or a claim check failed.
	KindSignatureVerificationFailed ErrorKind = "SignatureVerificationFailed"
)

// Kinds lists every ErrorKind in pipeline order.
var Kinds = []ErrorKind{
	KindInvalidToken,
	KindTokenNotDecoded,
	KindMissingKeyID,
	KindErrorFetchingKeys,
	KindInvalidDiscoveryResponse,
	KindNotMatchingKey,
	KindSignatureVerificationFailed,
}

// String returns the kind name.
func (k ErrorKind) String() string { return string(k) }

// Valid reports whether k is one of the known kinds.
func (k ErrorKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Key-provider problems are worth retrying later; token problems are not.
var retryableKinds = map[ErrorKind]bool{
	KindErrorFetchingKeys: true,
}

// IsRetryableKind returns true if a caller may retry the whole verification later.
func IsRetryableKind(kind ErrorKind) bool {
	return retryableKinds[kind]
}

// HTTPStatusFor returns the status an HTTP boundary should answer with.
func HTTPStatusFor(kind ErrorKind) int {
	switch kind {
	case KindErrorFetchingKeys, KindInvalidDiscoveryResponse:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}
