package verifier

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	stderrors "errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SignatureOptions are the claim checks applied with the signature.
type SignatureOptions struct {
	Issuer     string
	Audience   string
	Subject    string
	Leeway     time.Duration
	Algorithms []string
}

// SignatureVerifier checks a token against a PEM certificate and returns
// its claims.
type SignatureVerifier interface {
	Verify(ctx context.Context, token, certificatePEM string, opts SignatureOptions) (Claims, error)
}

// JWTVerifier is the SignatureVerifier backed by golang-jwt.
type JWTVerifier struct {
	// Now overrides the clock used for exp/nbf/iat checks.
	Now func() time.Time
}

// Verify implements SignatureVerifier.
func (v JWTVerifier) Verify(_ context.Context, token, certificatePEM string, opts SignatureOptions) (Claims, error) {
	key, err := publicKeyFromPEM(certificatePEM)
	if err != nil {
		return nil, err
	}

	claims := gojwt.MapClaims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
		return key, nil
	}, v.parserOptions(opts)...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, stderrors.New("token is invalid")
	}
	return Claims(claims), nil
}

func (v JWTVerifier) parserOptions(opts SignatureOptions) []gojwt.ParserOption {
	var po []gojwt.ParserOption
	if len(opts.Algorithms) > 0 {
		po = append(po, gojwt.WithValidMethods(opts.Algorithms))
	}
	if opts.Issuer != "" {
		po = append(po, gojwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		po = append(po, gojwt.WithAudience(opts.Audience))
	}
	if opts.Subject != "" {
		po = append(po, gojwt.WithSubject(opts.Subject))
	}
	if opts.Leeway > 0 {
		po = append(po, gojwt.WithLeeway(opts.Leeway))
	}
	if v.Now != nil {
		po = append(po, gojwt.WithTimeFunc(v.Now))
	}
	return po
}

// publicKeyFromPEM extracts the public key of a PEM CERTIFICATE block.
func publicKeyFromPEM(certificatePEM string) (interface{}, error) {
	block, _ := pem.Decode([]byte(certificatePEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, stderrors.New("invalid certificate: no PEM CERTIFICATE block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("invalid certificate: %w", err)
	}
	return cert.PublicKey, nil
}
