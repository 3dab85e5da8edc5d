// Package verifier checks identity tokens against the signing keys an
// identity provider publishes at its discovery endpoint.
//
// Verification is a linear pipeline: reject empty input, decode the header
// without trusting it, read the key id, resolve the matching certificate
// (cache first, then discovery with bounded retries), and verify the
// signature and standard claims with golang-jwt. Every failure is an
// *errors.VerificationError carrying one errors.ErrorKind.
//
//	v, err := verifier.New(verifier.DefaultConfig())
//	claims, err := v.Verify(ctx, rawToken,
//	    verifier.WithAudience("api://my-app"),
//	    verifier.WithIssuer("https://login.microsoftonline.com/{tenant}/v2.0"),
//	)
//	if errors.Is(err, errors.KindErrorFetchingKeys) {
//	    // provider unavailable, try later
//	}
//
// The package-level Verify and InvalidateCache use a process-wide default
// Verifier.
package verifier
