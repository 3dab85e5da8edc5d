// Package keyset models the signing keys published by an identity provider's
// discovery endpoint, validates a discovery payload, and selects the key that
// signed a token.
//
//	ks, err := keyset.Parse(body)
//	cert, err := keyset.Resolve(ks, kid)
//	// cert is a PEM CERTIFICATE block ready for signature verification
package keyset
