package discovery

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/MarioArnt/azure-ad-jwt-lite/errors"
	"github.com/MarioArnt/azure-ad-jwt-lite/keycache"
	"github.com/MarioArnt/azure-ad-jwt-lite/keyset"
	"github.com/MarioArnt/azure-ad-jwt-lite/logger"
	"github.com/MarioArnt/azure-ad-jwt-lite/observability"
	"github.com/MarioArnt/azure-ad-jwt-lite/resilience"
)

const (
	// DefaultURL is Microsoft's common key discovery endpoint.
	DefaultURL = "https://login.microsoftonline.com/common/discovery/keys"
	// DefaultMaxRetries is the number of additional attempts after the first.
	DefaultMaxRetries = 2
	// DefaultTimeout bounds a single discovery request.
	DefaultTimeout = 10 * time.Second

	// maxRetries keeps MaxRetries+1 within int.
	maxRetries = math.MaxInt - 1

	maxBodySize = 1 << 20
)

// Request describes one key set lookup.
type Request struct {
	// URL is the discovery endpoint. Empty selects DefaultURL.
	URL string
	// MaxRetries is the number of additional attempts on transient failure.
	MaxRetries int
	// UseCache enables reading and writing the key cache.
	UseCache bool
	// CacheTTL bounds the age of a cached key set. Zero uses the cache TTL.
	CacheTTL time.Duration
	// Backoff is the delay before the first retry, doubled on each retry.
	// Zero retries immediately.
	Backoff time.Duration
}

// Client fetches key sets from a discovery endpoint.
type Client struct {
	http    *http.Client
	cache   *keycache.Cache
	log     *logger.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	group   *singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for discovery requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache sets the key cache. Clients sharing a cache share fetched keys.
func WithCache(cache *keycache.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracerProvider sets the tracer provider. Default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = observability.Tracer(tp) }
}

// WithCoalescing makes concurrent cache misses for the same URL share a
// single fetch and its result.
func WithCoalescing(enabled bool) Option {
	return func(c *Client) {
		if enabled {
			c.group = &singleflight.Group{}
		} else {
			c.group = nil
		}
	}
}

// NewClient creates a Client. Without options it owns a fresh cache with the
// default TTL and an HTTP client with DefaultTimeout.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.cache == nil {
		c.cache = keycache.New(keycache.DefaultTTL)
	}
	if c.log == nil {
		c.log = logger.Get("discovery")
	}
	if c.tracer == nil {
		c.tracer = observability.Tracer(nil)
	}
	return c
}

// Cache returns the client's key cache.
func (c *Client) Cache() *keycache.Cache { return c.cache }

// InvalidateCache drops any cached key set.
func (c *Client) InvalidateCache() { c.cache.Invalidate() }

// Fetch returns the key set for req, from cache when allowed and fresh,
// otherwise from the network with bounded retries.
func (c *Client) Fetch(ctx context.Context, req Request) (*keyset.KeySet, error) {
	if req.URL == "" {
		req.URL = DefaultURL
	}
	if req.MaxRetries < 0 {
		req.MaxRetries = 0
	}
	if req.MaxRetries > maxRetries {
		req.MaxRetries = maxRetries
	}

	ctx, span := c.tracer.Start(ctx, observability.SpanFetchKeys, trace.WithAttributes(
		attribute.String(observability.AttrDiscoveryURL, req.URL),
	))

	if req.UseCache {
		ks, hit := c.cache.Lookup(req.URL, req.CacheTTL)
		c.metrics.RecordCacheLookup(ctx, hit)
		span.SetAttributes(attribute.Bool(observability.AttrCacheHit, hit))
		if hit {
			c.log.Debug("using cached keys", logger.Fields(logger.FieldDiscoveryURL, req.URL))
			observability.EndSpan(span, nil)
			return ks, nil
		}
	}

	var (
		ks  *keyset.KeySet
		err error
	)
	if c.group != nil {
		ks, err = c.fetchShared(ctx, req)
	} else {
		ks, err = c.fetchAndStore(ctx, req)
	}

	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return ks, nil
}

// fetchShared joins an in-flight fetch with identical parameters. The shared
// fetch is detached from any one caller's cancellation and stays bounded by
// the HTTP client timeout. Each caller stops waiting when its own ctx ends.
func (c *Client) fetchShared(ctx context.Context, req Request) (*keyset.KeySet, error) {
	key := fmt.Sprintf("%s|%t|%d|%s", req.URL, req.UseCache, req.MaxRetries, req.Backoff)
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetchAndStore(detached, req)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*keyset.KeySet), nil
	case <-ctx.Done():
		return nil, errors.ErrorFetchingKeys(req.URL, ctx.Err())
	}
}

func (c *Client) fetchAndStore(ctx context.Context, req Request) (*keyset.KeySet, error) {
	cfg := resilience.RetryConfig{
		MaxAttempts:    req.MaxRetries + 1,
		InitialBackoff: req.Backoff,
		BackoffFactor:  2.0,
		RetryIf:        isTransient,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			c.log.Warn("key discovery attempt failed, retrying", logger.Fields(
				logger.FieldDiscoveryURL, req.URL,
				logger.FieldAttempt, attempt,
				logger.FieldBackoff, backoff.String(),
				logger.FieldError, err.Error(),
			))
		},
	}

	ks, err := resilience.Retry(ctx, cfg, func(attempt int) (*keyset.KeySet, error) {
		return c.fetchOnce(ctx, req.URL, attempt)
	})
	if err != nil {
		return nil, c.classify(req.URL, err)
	}

	if req.UseCache {
		c.cache.Store(req.URL, ks)
	}
	c.log.Debug("fetched keys", logger.Fields(
		logger.FieldDiscoveryURL, req.URL,
		"keys", ks.Len(),
	))
	return ks, nil
}

// classify converts the retry loop's outcome into the public taxonomy.
func (c *Client) classify(url string, err error) *errors.VerificationError {
	if stderrors.Is(err, keyset.ErrInvalidKeySet) {
		c.log.Error("discovery returned an invalid key set", logger.Fields(
			logger.FieldDiscoveryURL, url,
			logger.FieldError, err.Error(),
		))
		return errors.InvalidDiscoveryResponse(url, err)
	}

	attempts := 1
	cause := err
	var exhausted *resilience.ExhaustedError
	if stderrors.As(err, &exhausted) {
		attempts = exhausted.Attempts
		cause = exhausted.Last
	}
	c.log.Error("could not fetch keys", logger.Fields(
		logger.FieldDiscoveryURL, url,
		logger.FieldAttempt, attempts,
		logger.FieldError, cause.Error(),
	))
	return errors.ErrorFetchingKeys(url, cause).WithDetail("attempts", attempts)
}

func (c *Client) fetchOnce(ctx context.Context, url string, attempt int) (ks *keyset.KeySet, err error) {
	ctx, span := c.tracer.Start(ctx, observability.SpanFetchAttempt, trace.WithAttributes(
		attribute.Int(observability.AttrAttempt, attempt),
	))
	start := time.Now()
	defer func() {
		outcome := observability.OutcomeSuccess
		if err != nil {
			outcome = observability.OutcomeTerminal
			if isTransient(err) {
				outcome = observability.OutcomeRetryable
			}
		}
		c.metrics.RecordFetch(ctx, outcome, time.Since(start))
		observability.EndSpan(span, err)
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create discovery request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int(observability.AttrStatusCode, resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Err: fmt.Errorf("read discovery body: %w", err)}
	}
	return keyset.Parse(body)
}
