// Package observability wires OpenTelemetry tracing and metrics for key
// discovery and token verification.
//
// Init installs OTLP/HTTP exporters as the global providers. Without Init the
// global providers are no-ops, so instrumented code costs nothing.
//
//	shutdown, err := observability.Init(ctx, cfg)
//	defer shutdown(ctx)
//	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
package observability
