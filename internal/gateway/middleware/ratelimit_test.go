package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dealeraccess/internal/domain"
	gw "dealeraccess/internal/gateway"
	"dealeraccess/internal/gateway/adapter/inmem"
	"dealeraccess/internal/gateway/middleware"
)

const (
	tenantOne = "11111111-1111-4111-8111-111111111111"
	tenantTwo = "22222222-2222-4222-8222-222222222222"
)

func rateLimited(limiter gw.RateLimiter) http.Handler {
	return middleware.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		middleware.Tenant(tenantOne),
		middleware.RateLimit(limiter, nil),
	)
}

func sendAsTenant(h http.Handler, tenant string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	if tenant != "" {
		req.Header.Set(middleware.TenantHeader, tenant)
	}
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	now := time.Now()
	rl := inmem.NewRateLimiter(100, 3, func() time.Time { return now })
	handler := rateLimited(rl)

	for i := range 3 {
		if rec := sendAsTenant(handler, tenantOne); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimitDeniesWhenBurstExhausted(t *testing.T) {
	now := time.Now()
	rl := inmem.NewRateLimiter(100, 2, func() time.Time { return now })
	handler := rateLimited(rl)

	for range 2 {
		sendAsTenant(handler, tenantOne)
	}

	rec := sendAsTenant(handler, tenantOne)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	var errResp domain.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Error != "rate_limited" {
		t.Errorf("expected error 'rate_limited', got %q", errResp.Error)
	}
	if errResp.RetryAfter <= 0 {
		t.Errorf("expected positive retry_after, got %d", errResp.RetryAfter)
	}
}

func TestRateLimitTenantsIndependent(t *testing.T) {
	now := time.Now()
	rl := inmem.NewRateLimiter(100, 1, func() time.Time { return now })
	handler := rateLimited(rl)

	sendAsTenant(handler, tenantOne)
	if rec := sendAsTenant(handler, tenantOne); rec.Code != http.StatusTooManyRequests {
		t.Errorf("tenant one second request: expected 429, got %d", rec.Code)
	}
	if rec := sendAsTenant(handler, tenantTwo); rec.Code != http.StatusOK {
		t.Errorf("tenant two should be allowed, got %d", rec.Code)
	}
}

func TestRateLimitDefaultTenantShared(t *testing.T) {
	now := time.Now()
	rl := inmem.NewRateLimiter(100, 1, func() time.Time { return now })
	handler := rateLimited(rl)

	sendAsTenant(handler, "")
	if rec := sendAsTenant(handler, tenantOne); rec.Code != http.StatusTooManyRequests {
		t.Errorf("requests without a tenant count against the default, got %d", rec.Code)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (gw.RateLimitResult, error) {
	return gw.RateLimitResult{}, errors.New("redis: connection refused")
}

func TestRateLimitFailsOpen(t *testing.T) {
	if rec := sendAsTenant(rateLimited(failingLimiter{}), tenantOne); rec.Code != http.StatusOK {
		t.Errorf("expected limiter errors to allow the request, got %d", rec.Code)
	}
}
