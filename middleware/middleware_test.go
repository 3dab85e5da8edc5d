package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MarioArnt/azure-ad-jwt-lite/errors"
	"github.com/MarioArnt/azure-ad-jwt-lite/logger"
	"github.com/MarioArnt/azure-ad-jwt-lite/middleware"
	"github.com/MarioArnt/azure-ad-jwt-lite/verifier"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims verifier.Claims
	err    error
	token  string
	opts   int
}

func (f *fakeVerifier) Verify(_ context.Context, token string, opts ...verifier.Option) (verifier.Claims, error) {
	f.token = token
	f.opts = len(opts)
	return f.claims, f.err
}

func newRouter(v middleware.TokenVerifier, opts ...verifier.Option) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Auth(middleware.AuthConfig{
		Verifier:  v,
		Options:   opts,
		SkipPaths: []string{"/health"},
		Logger:    logger.NewNop(),
	}))
	r.GET("/me", func(c *gin.Context) {
		claims, _ := middleware.ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject()})
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errors.ErrorBody {
	t.Helper()
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return resp.Error
}

func TestAuth_ValidToken(t *testing.T) {
	fv := &fakeVerifier{claims: verifier.Claims{"sub": "user-1"}}
	r := newRouter(fv, verifier.WithAudience("api://app"))

	rr := do(r, "Bearer abc.def.ghi")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if fv.token != "abc.def.ghi" || fv.opts != 1 {
		t.Errorf("unexpected verifier call token=%q opts=%d", fv.token, fv.opts)
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["sub"] != "user-1" {
		t.Errorf("expected claims in context, got %v", body)
	}
	if rr.Header().Get(middleware.HeaderRequestID) == "" {
		t.Error("expected request id header")
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	fv := &fakeVerifier{}
	rr := do(newRouter(fv), "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if body := decodeError(t, rr); body.Kind != errors.KindInvalidToken {
		t.Errorf("expected InvalidToken, got %s", body.Kind)
	}
	if fv.token != "" {
		t.Error("verifier should not be called")
	}
}

func TestAuth_WrongScheme(t *testing.T) {
	rr := do(newRouter(&fakeVerifier{}), "Basic dXNlcjpwYXNz")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_StatusByKind(t *testing.T) {
	tests := []struct {
		err    *errors.VerificationError
		status int
	}{
		{errors.MissingKeyID(), http.StatusUnauthorized},
		{errors.NotMatchingKey("k1"), http.StatusUnauthorized},
		{errors.SignatureVerificationFailed(nil), http.StatusUnauthorized},
		{errors.ErrorFetchingKeys("https://keys", nil), http.StatusServiceUnavailable},
		{errors.InvalidDiscoveryResponse("https://keys", nil), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			rr := do(newRouter(&fakeVerifier{err: tt.err}), "Bearer tok")
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			body := decodeError(t, rr)
			if body.Kind != tt.err.Kind || body.Retryable != tt.err.Retryable {
				t.Errorf("unexpected body %+v", body)
			}
			if tt.status == http.StatusServiceUnavailable && rr.Header().Get("Retry-After") == "" {
				t.Error("expected Retry-After header")
			}
		})
	}
}

func TestAuth_SkipPaths(t *testing.T) {
	fv := &fakeVerifier{err: errors.InvalidToken()}
	r := newRouter(fv)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	r := newRouter(&fakeVerifier{claims: verifier.Claims{}})
	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set(middleware.HeaderRequestID, "req-42")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if got := rr.Header().Get(middleware.HeaderRequestID); got != "req-42" {
		t.Errorf("expected req-42, got %q", got)
	}
}
