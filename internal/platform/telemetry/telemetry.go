package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ShutdownFunc releases telemetry resources.
type ShutdownFunc func(ctx context.Context) error

// Setup initializes OpenTelemetry with a Prometheus exporter.
// Returns a shutdown function that must be called on exit.
func Setup(ctx context.Context, serviceName string) (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Metrics holds the OTel instruments shared by the gateway and the client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequestsTotal       otelmetric.Int64Counter
	httpRequestDuration     otelmetric.Float64Histogram
	authValidationsTotal    otelmetric.Int64Counter
	rateLimitDecisionsTotal otelmetric.Int64Counter
	proxyRequestsTotal      otelmetric.Int64Counter
	proxyDuration           otelmetric.Float64Histogram
	accessDecisionsTotal    otelmetric.Int64Counter
	recordsRedactedTotal    otelmetric.Int64Counter
	csrfRefreshesTotal      otelmetric.Int64Counter
	clientRequestsTotal     otelmetric.Int64Counter
}

// NewMetrics creates and registers all instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("dealeraccess")
	m := &Metrics{}
	var err error

	latencyBuckets := otelmetric.WithExplicitBucketBoundaries(
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
	)

	if m.httpRequestsTotal, err = meter.Int64Counter("dealeraccess_http_requests_total",
		otelmetric.WithDescription("Total HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram("dealeraccess_http_request_duration_seconds",
		otelmetric.WithDescription("HTTP request duration"), latencyBuckets); err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}
	if m.authValidationsTotal, err = meter.Int64Counter("dealeraccess_auth_validations_total",
		otelmetric.WithDescription("Total session token validations")); err != nil {
		return nil, fmt.Errorf("creating auth_validations_total: %w", err)
	}
	if m.rateLimitDecisionsTotal, err = meter.Int64Counter("dealeraccess_ratelimit_decisions_total",
		otelmetric.WithDescription("Total rate limit decisions")); err != nil {
		return nil, fmt.Errorf("creating ratelimit_decisions_total: %w", err)
	}
	if m.proxyRequestsTotal, err = meter.Int64Counter("dealeraccess_proxy_requests_total",
		otelmetric.WithDescription("Total requests proxied to the dealer API")); err != nil {
		return nil, fmt.Errorf("creating proxy_requests_total: %w", err)
	}
	if m.proxyDuration, err = meter.Float64Histogram("dealeraccess_proxy_duration_seconds",
		otelmetric.WithDescription("Proxy request duration"), latencyBuckets); err != nil {
		return nil, fmt.Errorf("creating proxy_duration: %w", err)
	}
	if m.accessDecisionsTotal, err = meter.Int64Counter("dealeraccess_access_decisions_total",
		otelmetric.WithDescription("Total permission checks by outcome")); err != nil {
		return nil, fmt.Errorf("creating access_decisions_total: %w", err)
	}
	if m.recordsRedactedTotal, err = meter.Int64Counter("dealeraccess_records_redacted_total",
		otelmetric.WithDescription("Records passed through the field redactor")); err != nil {
		return nil, fmt.Errorf("creating records_redacted_total: %w", err)
	}
	if m.csrfRefreshesTotal, err = meter.Int64Counter("dealeraccess_csrf_refreshes_total",
		otelmetric.WithDescription("Total CSRF token fetches")); err != nil {
		return nil, fmt.Errorf("creating csrf_refreshes_total: %w", err)
	}
	if m.clientRequestsTotal, err = meter.Int64Counter("dealeraccess_client_requests_total",
		otelmetric.WithDescription("Total outbound client requests")); err != nil {
		return nil, fmt.Errorf("creating client_requests_total: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, durationSec float64) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(status),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, durationSec, attrs)
}

// RecordAuthValidation records a session token validation result.
func (m *Metrics) RecordAuthValidation(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.authValidationsTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordRateLimitDecision records a rate limit decision.
func (m *Metrics) RecordRateLimitDecision(ctx context.Context, layer, result string) {
	if m == nil {
		return
	}
	m.rateLimitDecisionsTotal.Add(ctx, 1, otelmetric.WithAttributes(
		layerAttr(layer),
		resultAttr(result),
	))
}

// RecordProxyRequest records a request proxied to the dealer API.
func (m *Metrics) RecordProxyRequest(ctx context.Context, route string, status int, durationSec float64) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		routeAttr(route),
		statusAttr(status),
	)
	m.proxyRequestsTotal.Add(ctx, 1, attrs)
	m.proxyDuration.Record(ctx, durationSec, attrs)
}

// RecordAccessDecision records the outcome of a permission check.
func (m *Metrics) RecordAccessDecision(ctx context.Context, layer, role, result string) {
	if m == nil {
		return
	}
	m.accessDecisionsTotal.Add(ctx, 1, otelmetric.WithAttributes(
		layerAttr(layer),
		roleAttr(role),
		resultAttr(result),
	))
}

// RecordRedaction records n records passed through the field redactor.
func (m *Metrics) RecordRedaction(ctx context.Context, layer, domain string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.recordsRedactedTotal.Add(ctx, int64(n), otelmetric.WithAttributes(
		layerAttr(layer),
		domainAttr(domain),
	))
}

// RecordCSRFRefresh records a CSRF token fetch.
func (m *Metrics) RecordCSRFRefresh(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.csrfRefreshesTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordClientRequest records one outbound attempt made by the client.
func (m *Metrics) RecordClientRequest(ctx context.Context, method, domain string, status int) {
	if m == nil {
		return
	}
	m.clientRequestsTotal.Add(ctx, 1, otelmetric.WithAttributes(
		methodAttr(method),
		domainAttr(domain),
		statusAttr(status),
	))
}
