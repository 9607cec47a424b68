package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	gw "dealeraccess/internal/gateway"
	"dealeraccess/internal/gateway/middleware"
)

func TestTenantFromHeader(t *testing.T) {
	var got string
	handler := middleware.Tenant(tenantOne)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = gw.TenantFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-tenant-id", tenantTwo)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != tenantTwo {
		t.Errorf("expected %s, got %q", tenantTwo, got)
	}
}

func TestTenantDefault(t *testing.T) {
	var got string
	handler := middleware.Tenant(tenantOne)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = gw.TenantFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != tenantOne {
		t.Errorf("expected default tenant %s, got %q", tenantOne, got)
	}
}

func TestTenantNormalizesCase(t *testing.T) {
	var got string
	handler := middleware.Tenant(tenantOne)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = gw.TenantFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-tenant-id", "AAAAAAAA-AAAA-4AAA-8AAA-AAAAAAAAAAAA")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa" {
		t.Errorf("expected lower-cased tenant, got %q", got)
	}
}

func TestTenantRejectsInvalid(t *testing.T) {
	called := false
	handler := middleware.Tenant(tenantOne)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-tenant-id", "acme-dealers")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if called {
		t.Error("handler should not run for an invalid tenant")
	}
}
