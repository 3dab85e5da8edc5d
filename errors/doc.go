// Package errors defines the closed error taxonomy surfaced by token
// verification. Every failure leaving the verifier is a *VerificationError
// tagged with exactly one ErrorKind, so callers can branch on the kind
// instead of matching error strings.
package errors
