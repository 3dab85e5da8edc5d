package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MarioArnt/azure-ad-jwt-lite/errors"
	"github.com/MarioArnt/azure-ad-jwt-lite/logger"
	"github.com/MarioArnt/azure-ad-jwt-lite/verifier"
)

// ClaimsKey is the Gin context key holding the verified verifier.Claims.
const ClaimsKey = "azjwt_claims"

// TokenVerifier verifies a bearer token. *verifier.Verifier satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string, opts ...verifier.Option) (verifier.Claims, error)
}

// AuthConfig configures the authentication middleware.
type AuthConfig struct {
	// Verifier checks the bearer token.
	Verifier TokenVerifier
	// Options are applied to every verification.
	Options []verifier.Option
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
	// Logger receives rejected requests. Default is the "middleware" logger.
	Logger *logger.Logger
}

// Auth returns a Gin middleware that requires a valid Bearer token. Verified
// claims are stored under ClaimsKey.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = logger.Get("middleware")
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, log, errors.InvalidToken().WithDetail("reason", "missing bearer token"))
			return
		}

		claims, err := cfg.Verifier.Verify(c.Request.Context(), token, cfg.Options...)
		if err != nil {
			ve, ok := errors.AsVerificationError(err)
			if !ok {
				ve = errors.SignatureVerificationFailed(err)
			}
			reject(c, log, ve)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Auth.
func ClaimsFrom(c *gin.Context) (verifier.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(verifier.Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(c *gin.Context, log *logger.Logger, ve *errors.VerificationError) {
	status := ve.HTTPStatus
	if status == 0 {
		status = http.StatusUnauthorized
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	log.Warn("request rejected", logger.Fields(
		logger.FieldErrorKind, string(ve.Kind),
		logger.FieldStatusCode, status,
		logger.FieldRequestID, c.GetString(RequestIDKey),
		"path", c.Request.URL.Path,
	))
	c.AbortWithStatusJSON(status, ve.ToResponse())
}
