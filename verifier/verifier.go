package verifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MarioArnt/azure-ad-jwt-lite/discovery"
	"github.com/MarioArnt/azure-ad-jwt-lite/errors"
	"github.com/MarioArnt/azure-ad-jwt-lite/keycache"
	"github.com/MarioArnt/azure-ad-jwt-lite/keyset"
	"github.com/MarioArnt/azure-ad-jwt-lite/logger"
	"github.com/MarioArnt/azure-ad-jwt-lite/observability"
)

// KeySource resolves the key set for a discovery request.
type KeySource interface {
	Fetch(ctx context.Context, req discovery.Request) (*keyset.KeySet, error)
	InvalidateCache()
}

// Verifier verifies tokens against discovered signing keys. It is safe for
// concurrent use.
type Verifier struct {
	cfg        Config
	keys       KeySource
	signatures SignatureVerifier
	log        *logger.Logger
	metrics    *observability.Metrics
	tracer     trace.Tracer

	httpClient *http.Client
	cache      *keycache.Cache
	tp         trace.TracerProvider
	now        func() time.Time
}

// VerifierOption configures a Verifier at construction.
type VerifierOption func(*Verifier)

// WithKeySource replaces the discovery client.
func WithKeySource(ks KeySource) VerifierOption {
	return func(v *Verifier) { v.keys = ks }
}

// WithSignatureVerifier replaces the signature verification primitive.
func WithSignatureVerifier(sv SignatureVerifier) VerifierOption {
	return func(v *Verifier) { v.signatures = sv }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) VerifierOption {
	return func(v *Verifier) { v.log = l }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.Metrics) VerifierOption {
	return func(v *Verifier) { v.metrics = m }
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) VerifierOption {
	return func(v *Verifier) { v.tp = tp }
}

// WithHTTPClient sets the HTTP client used by the default discovery client.
func WithHTTPClient(hc *http.Client) VerifierOption {
	return func(v *Verifier) { v.httpClient = hc }
}

// WithKeyCache sets the key cache used by the default discovery client.
func WithKeyCache(c *keycache.Cache) VerifierOption {
	return func(v *Verifier) { v.cache = c }
}

// WithClock sets the clock used for token time claims and cache ages.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// New creates a Verifier. cfg is validated after defaults are applied.
func New(cfg Config, opts ...VerifierOption) (*Verifier, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	v := &Verifier{cfg: cfg}
	for _, opt := range opts {
		opt(v)
	}
	if v.log == nil {
		v.log = logger.Get("verifier")
	}
	v.tracer = observability.Tracer(v.tp)

	if v.keys == nil {
		if v.httpClient == nil {
			hc, err := cfg.TLS.HTTPClient(cfg.HTTPTimeout)
			if err != nil {
				return nil, fmt.Errorf("verifier: %w", err)
			}
			v.httpClient = hc
		}
		if v.cache == nil {
			var cacheOpts []keycache.Option
			if v.now != nil {
				cacheOpts = append(cacheOpts, keycache.WithClock(v.now))
			}
			v.cache = keycache.New(cfg.CacheTTL, cacheOpts...)
		}
		v.keys = discovery.NewClient(
			discovery.WithHTTPClient(v.httpClient),
			discovery.WithCache(v.cache),
			discovery.WithLogger(v.log),
			discovery.WithMetrics(v.metrics),
			discovery.WithTracerProvider(v.tp),
			discovery.WithCoalescing(cfg.Coalesce),
		)
	}
	if v.signatures == nil {
		v.signatures = JWTVerifier{Now: v.now}
	}
	return v, nil
}

// Config returns the construction-time configuration.
func (v *Verifier) Config() Config { return v.cfg }

// InvalidateCache drops cached keys so the next Verify fetches fresh ones.
func (v *Verifier) InvalidateCache() { v.keys.InvalidateCache() }

// Verify checks token and returns its claims. Per-call options override the
// Verifier's configuration for this call only.
func (v *Verifier) Verify(ctx context.Context, token string, opts ...Option) (claims Claims, err error) {
	cfg := v.cfg
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DiscoveryURL == "" {
		cfg.DiscoveryURL = discovery.DefaultURL
	}

	ctx, span := v.tracer.Start(ctx, observability.SpanVerify,
		trace.WithAttributes(attribute.String(observability.AttrDiscoveryURL, cfg.DiscoveryURL)))
	defer func() {
		kind := "ok"
		if k, ok := errors.KindOf(err); ok {
			kind = string(k)
			span.SetAttributes(attribute.String(observability.AttrErrorKind, kind))
		}
		v.metrics.RecordVerification(ctx, kind)
		observability.EndSpan(span, err)
	}()

	if token == "" {
		return nil, errors.InvalidToken()
	}

	header, err := keyIDFromHeader(token)
	if err != nil {
		return nil, err
	}
	kid := header.value
	span.SetAttributes(attribute.String(observability.AttrKeyID, kid))

	ks, err := v.keys.Fetch(ctx, cfg.discoveryRequest())
	if err != nil {
		if _, ok := errors.AsVerificationError(err); !ok {
			err = errors.ErrorFetchingKeys(cfg.DiscoveryURL, err)
		}
		return nil, err
	}

	var certificate string
	if header.text {
		certificate, err = keyset.Resolve(ks, kid)
	} else {
		err = errors.NotMatchingKey(kid)
	}
	if err != nil {
		v.log.Debug("no key matches token kid", logger.Fields(
			logger.FieldKeyID, kid,
			logger.FieldDiscoveryURL, cfg.DiscoveryURL,
		))
		return nil, err
	}

	claims, err = v.verifySignature(ctx, token, certificate, cfg.signatureOptions())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (v *Verifier) verifySignature(ctx context.Context, token, certificate string, opts SignatureOptions) (Claims, error) {
	ctx, span := v.tracer.Start(ctx, observability.SpanVerifySigning)
	claims, err := v.signatures.Verify(ctx, token, certificate, opts)
	if err != nil {
		err = errors.SignatureVerificationFailed(err)
	}
	observability.EndSpan(span, err)
	return claims, err
}
