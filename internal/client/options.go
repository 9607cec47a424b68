package client

import (
	"log/slog"
	"net/http"
	"time"

	"dealeraccess/internal/client/notify"
	"dealeraccess/internal/platform/telemetry"
)

// DefaultTenantID is sent when no tenant is configured.
const DefaultTenantID = "550e8400-e29b-41d4-a716-446655440000"

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client. A cookie jar is added to a
// copy when the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTenant sets the x-tenant-id header.
func WithTenant(id string) Option {
	return func(c *Client) { c.tenantID = id }
}

// WithDemoAuth toggles the X-Demo-Auth header.
func WithDemoAuth(on bool) Option {
	return func(c *Client) { c.demoAuth = on }
}

// WithAuthToken sends token as a bearer credential.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithNotifier routes user-facing notices.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithMetrics records client metrics. A nil Metrics disables recording.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetry sets the total attempts for reads and the base backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.readAttempts = max(attempts, 1)
		c.retryDelay = delay
	}
}
