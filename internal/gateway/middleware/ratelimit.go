package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"dealeraccess/internal/domain"
	gw "dealeraccess/internal/gateway"
	"dealeraccess/internal/platform/telemetry"
)

// RateLimit returns middleware that enforces per-tenant rate limits. It must
// run after Tenant. Limiter errors fail open.
func RateLimit(limiter gw.RateLimiter, m *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := gw.TenantFromContext(r.Context())
			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request", "tenant_id", key, "error", err)
				m.RecordRateLimitDecision(r.Context(), "tenant", "error")
				next.ServeHTTP(w, r)
				return
			}
			if !result.Allowed {
				m.RecordRateLimitDecision(r.Context(), "tenant", "denied")
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			m.RecordRateLimitDecision(r.Context(), "tenant", "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitError(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	if err := jsonEncode(w, domain.ErrorResponse{
		Error:      "rate_limited",
		Message:    "too many requests",
		RetryAfter: retryAfter,
	}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
