package keyset

import (
	"strings"

	"github.com/MarioArnt/azure-ad-jwt-lite/errors"
)

const (
	pemHeader = "-----BEGIN CERTIFICATE-----"
	pemFooter = "-----END CERTIFICATE-----"
)

// Find returns the first key whose identifier equals kid (case-sensitive).
func (ks *KeySet) Find(kid string) (SigningKey, bool) {
	if ks == nil {
		return SigningKey{}, false
	}
	for _, k := range ks.Keys {
		if k.KeyID == kid {
			return k, true
		}
	}
	return SigningKey{}, false
}

// Resolve selects the key identified by kid and renders its certificate as a
// PEM block. The certificate body is passed through unchanged.
func Resolve(ks *KeySet, kid string) (string, error) {
	k, ok := ks.Find(kid)
	if !ok {
		return "", errors.NotMatchingKey(kid)
	}
	return FormatPEM(k.Certificate()), nil
}

// FormatPEM wraps a base64 certificate body in CERTIFICATE armor.
func FormatPEM(body string) string {
	return strings.Join([]string{pemHeader, body, pemFooter}, "\n")
}
