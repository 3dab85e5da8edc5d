package verifier

import (
	"fmt"
	"time"

	"github.com/MarioArnt/azure-ad-jwt-lite/discovery"
	"github.com/MarioArnt/azure-ad-jwt-lite/keycache"
	"github.com/MarioArnt/azure-ad-jwt-lite/security"
	"github.com/MarioArnt/azure-ad-jwt-lite/validation"
)

// Config holds the verification options. Discovery and cache settings
// drive key resolution; Issuer, Audience, Subject, Leeway and Algorithms
// pass through to signature verification.
type Config struct {
	// DiscoveryURL is the key discovery endpoint (default: Microsoft common keys).
	DiscoveryURL string `yaml:"discovery_url" mapstructure:"discovery_url" validate:"omitempty,url"`
	// MaxRetries is the number of extra discovery attempts on 5xx or network failure (default: 2).
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`
	// DisableCache turns off the key cache.
	DisableCache bool `yaml:"disable_cache" mapstructure:"disable_cache"`
	// CacheTTL is the maximum age of cached keys (default: 5m).
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl" validate:"gte=0"`
	// RetryBackoff is the delay before the first retry, doubled each time (default: 0).
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff" validate:"gte=0"`
	// HTTPTimeout bounds each discovery request (default: 10s).
	HTTPTimeout time.Duration `yaml:"http_timeout" mapstructure:"http_timeout" validate:"gte=0"`
	// Coalesce shares one in-flight discovery fetch between concurrent cache misses.
	Coalesce bool `yaml:"coalesce" mapstructure:"coalesce"`
	// TLS configures the connection to the discovery endpoint.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Issuer is the expected "iss" claim, if set.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// Audience is the expected "aud" claim, if set.
	Audience string `yaml:"audience" mapstructure:"audience"`
	// Subject is the expected "sub" claim, if set.
	Subject string `yaml:"subject" mapstructure:"subject"`
	// Leeway is the clock skew tolerated on exp, nbf and iat.
	Leeway time.Duration `yaml:"leeway" mapstructure:"leeway" validate:"gte=0"`
	// Algorithms restricts the accepted "alg" header values. Empty accepts any
	// algorithm compatible with the certificate key.
	Algorithms []string `yaml:"algorithms" mapstructure:"algorithms" validate:"dive,oneof=RS256 RS384 RS512 PS256 PS384 PS512 ES256 ES384 ES512"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		DiscoveryURL: discovery.DefaultURL,
		MaxRetries:   discovery.DefaultMaxRetries,
		CacheTTL:     keycache.DefaultTTL,
		HTTPTimeout:  discovery.DefaultTimeout,
	}
}

// ApplyDefaults fills zero-valued fields. MaxRetries is left alone because
// zero is a meaningful value; start from DefaultConfig to get the default.
func (c *Config) ApplyDefaults() {
	if c.DiscoveryURL == "" {
		c.DiscoveryURL = discovery.DefaultURL
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = keycache.DefaultTTL
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = discovery.DefaultTimeout
	}
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("verifier: %w", err)
	}
	return nil
}

func (c *Config) discoveryRequest() discovery.Request {
	return discovery.Request{
		URL:        c.DiscoveryURL,
		MaxRetries: c.MaxRetries,
		UseCache:   !c.DisableCache,
		CacheTTL:   c.CacheTTL,
		Backoff:    c.RetryBackoff,
	}
}

func (c *Config) signatureOptions() SignatureOptions {
	return SignatureOptions{
		Issuer:     c.Issuer,
		Audience:   c.Audience,
		Subject:    c.Subject,
		Leeway:     c.Leeway,
		Algorithms: c.Algorithms,
	}
}

// Option overrides a Config field for a single Verify call.
type Option func(*Config)

// WithDiscoveryURL overrides the discovery endpoint.
func WithDiscoveryURL(url string) Option {
	return func(c *Config) { c.DiscoveryURL = url }
}

// WithMaxRetries overrides the number of extra discovery attempts.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithCache enables or disables the key cache.
func WithCache(enabled bool) Option {
	return func(c *Config) { c.DisableCache = !enabled }
}

// WithCacheTTL overrides the maximum age of cached keys.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) { c.CacheTTL = ttl }
}

// WithRetryBackoff overrides the delay before the first retry.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Config) { c.RetryBackoff = d }
}

// WithIssuer requires the given "iss" claim.
func WithIssuer(iss string) Option {
	return func(c *Config) { c.Issuer = iss }
}

// WithAudience requires the given "aud" claim.
func WithAudience(aud string) Option {
	return func(c *Config) { c.Audience = aud }
}

// WithSubject requires the given "sub" claim.
func WithSubject(sub string) Option {
	return func(c *Config) { c.Subject = sub }
}

// WithLeeway sets the tolerated clock skew.
func WithLeeway(d time.Duration) Option {
	return func(c *Config) { c.Leeway = d }
}

// WithAlgorithms restricts the accepted signing algorithms.
func WithAlgorithms(algs ...string) Option {
	return func(c *Config) { c.Algorithms = algs }
}
