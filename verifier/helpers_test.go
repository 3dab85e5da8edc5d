package verifier

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/MarioArnt/azure-ad-jwt-lite/logger"
)

// signer holds an RSA key and a self-signed certificate for it.
type signer struct {
	kid  string
	key  *rsa.PrivateKey
	x5c  string
	cert *x509.Certificate
}

func newSigner(t *testing.T, kid string) *signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "accounts.accesscontrol.windows.net"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return &signer{kid: kid, key: key, x5c: base64.StdEncoding.EncodeToString(der), cert: cert}
}

func (s *signer) sign(t *testing.T, claims gojwt.MapClaims) string {
	t.Helper()
	tok := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.kid
	signed, err := tok.SignedString(s.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func validClaims() gojwt.MapClaims {
	now := time.Now()
	return gojwt.MapClaims{
		"iss": "https://login.microsoftonline.com/tenant/v2.0",
		"aud": "api://app",
		"sub": "user-1",
		"tid": "tenant",
		"iat": now.Add(-time.Minute).Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

func discoveryDocument(t *testing.T, signers ...*signer) string {
	t.Helper()
	keys := make([]map[string]interface{}, 0, len(signers))
	for _, s := range signers {
		keys = append(keys, map[string]interface{}{
			"kty": "RSA",
			"use": "sig",
			"kid": s.kid,
			"x5t": s.kid,
			"n":   base64.RawURLEncoding.EncodeToString(s.key.N.Bytes()),
			"e":   "AQAB",
			"x5c": []string{s.x5c},
		})
	}
	body, err := json.Marshal(map[string]interface{}{"keys": keys})
	if err != nil {
		t.Fatalf("marshal discovery document: %v", err)
	}
	return string(body)
}

type reply struct {
	status int
	body   string
}

// keyServer answers discovery requests with scripted replies, repeating the last.
type keyServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newKeyServer(t *testing.T, replies ...reply) *keyServer {
	t.Helper()
	s := &keyServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(s.hits.Add(1)) - 1
		if n >= len(replies) {
			n = len(replies) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(replies[n].status)
		_, _ = w.Write([]byte(replies[n].body))
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestVerifier(t *testing.T, url string, opts ...VerifierOption) *Verifier {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DiscoveryURL = url
	v, err := New(cfg, append([]VerifierOption{WithLogger(logger.NewNop())}, opts...)...)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}
