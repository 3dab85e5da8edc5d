package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MarioArnt/azure-ad-jwt-lite/logger"
)

// Metric names.
const (
	MetricDiscoveryFetches  = "azjwt.discovery.fetches"
	MetricDiscoveryDuration = "azjwt.discovery.duration"
	MetricCacheLookups      = "azjwt.cache.lookups"
	MetricVerifications     = "azjwt.verifications"
)

// Outcome values for discovery attempts.
const (
	OutcomeSuccess   = "success"
	OutcomeRetryable = "retryable"
	OutcomeTerminal  = "terminal"
)

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by discovery and verification.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	fetches       metric.Int64Counter
	fetchDuration metric.Float64Histogram
	cacheLookups  metric.Int64Counter
	verifications metric.Int64Counter
}

// NewMetrics creates the instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	fetches, err := meter.Int64Counter(MetricDiscoveryFetches,
		metric.WithDescription("Discovery endpoint attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricDiscoveryFetches, err)
	}

	fetchDuration, err := meter.Float64Histogram(MetricDiscoveryDuration,
		metric.WithDescription("Duration of discovery attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDiscoveryDuration, err)
	}

	cacheLookups, err := meter.Int64Counter(MetricCacheLookups,
		metric.WithDescription("Key cache lookups by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCacheLookups, err)
	}

	verifications, err := meter.Int64Counter(MetricVerifications,
		metric.WithDescription("Token verifications by result kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricVerifications, err)
	}

	return &Metrics{
		fetches:       fetches,
		fetchDuration: fetchDuration,
		cacheLookups:  cacheLookups,
		verifications: verifications,
	}, nil
}

// RecordFetch records one discovery attempt.
func (m *Metrics) RecordFetch(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.fetchDuration.Record(ctx, duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordVerification records a verification result; kind is "ok" on success.
func (m *Metrics) RecordVerification(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
