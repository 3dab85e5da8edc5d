package keyset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidKeySet is wrapped by every payload validation failure.
var ErrInvalidKeySet = errors.New("keyset: invalid key set")

// SigningKey is a single public key record from the discovery document.
// Only the certificate is used for verification; the RSA parameters and
// thumbprint are informational.
type SigningKey struct {
	KeyType    string           `json:"kty"`
	Use        string           `json:"use"`
	KeyID      string           `json:"kid"`
	Thumbprint string           `json:"x5t"`
	Modulus    string           `json:"n"`
	Exponent   string           `json:"e"`
	X5C        CertificateChain `json:"x5c"`
	Issuer     string           `json:"issuer,omitempty"`

	// x5cSingle records that x5c was published as a bare string.
	x5cSingle bool
}

type signingKeyJSON SigningKey

// UnmarshalJSON decodes the key and remembers the published x5c shape.
func (k *SigningKey) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*signingKeyJSON)(k)); err != nil {
		return err
	}
	var shape struct {
		X5C json.RawMessage `json:"x5c"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}
	k.x5cSingle = len(k.X5C) == 1 && bytes.HasPrefix(bytes.TrimSpace(shape.X5C), []byte(`"`))
	return nil
}

// MarshalJSON writes x5c back in the shape it was published in.
func (k SigningKey) MarshalJSON() ([]byte, error) {
	if !k.x5cSingle || len(k.X5C) != 1 {
		return json.Marshal(signingKeyJSON(k))
	}
	return json.Marshal(struct {
		signingKeyJSON
		X5C string `json:"x5c"`
	}{signingKeyJSON(k), k.X5C[0]})
}

// Certificate returns the certificate body used for verification.
func (k SigningKey) Certificate() string {
	return k.X5C.Leaf()
}

// KeySet is the ordered key list returned by the provider.
type KeySet struct {
	Keys []SigningKey `json:"keys"`
}

// Len returns the number of keys.
func (ks *KeySet) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.Keys)
}

// KeyIDs returns the key identifiers in provider order.
func (ks *KeySet) KeyIDs() []string {
	ids := make([]string, 0, ks.Len())
	if ks == nil {
		return ids
	}
	for _, k := range ks.Keys {
		ids = append(ids, k.KeyID)
	}
	return ids
}

// Validate checks that every key carries a certificate body.
func (ks *KeySet) Validate() error {
	if ks == nil || ks.Keys == nil {
		return fmt.Errorf("%w: missing keys collection", ErrInvalidKeySet)
	}
	for i, k := range ks.Keys {
		if k.Certificate() == "" {
			return fmt.Errorf("%w: key %d (kid %q) has no x5c certificate", ErrInvalidKeySet, i, k.KeyID)
		}
	}
	return nil
}

// Parse decodes and validates a discovery response body.
func Parse(body []byte) (*KeySet, error) {
	var ks KeySet
	if err := json.Unmarshal(body, &ks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeySet, err)
	}
	if err := ks.Validate(); err != nil {
		return nil, err
	}
	return &ks, nil
}

// CertificateChain holds the x5c value. Providers publish it either as a
// single base64 DER string or as an array whose first element is the leaf.
type CertificateChain []string

// Leaf returns the first certificate, or "" when the chain is empty.
func (c CertificateChain) Leaf() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (c *CertificateChain) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*c = nil
			return nil
		}
		*c = CertificateChain{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("x5c must be a string or an array of strings: %w", err)
	}
	*c = many
	return nil
}
