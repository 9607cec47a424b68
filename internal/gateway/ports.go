package gateway

import (
	"context"
	"net/http"

	"dealeraccess/internal/domain"
)

// RateLimiter decides whether a request identified by key should be allowed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter int // seconds until the next request may pass; 0 if allowed
}

// StatusWriter wraps http.ResponseWriter to capture the status code.
type StatusWriter struct {
	http.ResponseWriter
	Code int
}

func (sw *StatusWriter) WriteHeader(code int) {
	sw.Code = code
	sw.ResponseWriter.WriteHeader(code)
}

// UserFromContext extracts the authenticated user from a request context.
func UserFromContext(ctx context.Context) (domain.UserContext, bool) {
	u, ok := ctx.Value(userKey{}).(domain.UserContext)
	return u, ok
}

// ContextWithUser stores the authenticated user in the context.
func ContextWithUser(ctx context.Context, u domain.UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

type userKey struct{}

// TenantFromContext extracts the tenant ID from the context.
func TenantFromContext(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey{}).(string)
	return id
}

// ContextWithTenant stores the tenant ID in the context.
func ContextWithTenant(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tenantKey{}, id)
}

type tenantKey struct{}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID stores the request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type requestIDKey struct{}
