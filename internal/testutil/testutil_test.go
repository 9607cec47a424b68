package testutil_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dealeraccess/internal/auth"
	"dealeraccess/internal/domain"
	"dealeraccess/internal/testutil"
)

func TestIssueTestToken(t *testing.T) {
	u := testutil.TestUser(t, "rep-001", domain.RoleSalesRep, []string{"north"}, nil)
	tok := testutil.IssueTestToken(t, testutil.TestSecret, u, 15*time.Minute)

	claims, err := auth.ParseToken(testutil.TestSecret, tok, 0)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "rep-001" {
		t.Errorf("expected sub rep-001, got %v", claims.Subject)
	}
	if claims.Role != domain.RoleSalesRep {
		t.Errorf("expected role sales_rep, got %v", claims.Role)
	}
}

func TestIssueTestTokenExpired(t *testing.T) {
	u := testutil.TestUser(t, "rep-001", domain.RoleSalesRep, nil, nil)
	tok := testutil.IssueTestToken(t, testutil.TestSecret, u, -time.Hour)

	if _, err := auth.ParseToken(testutil.TestSecret, tok, 30*time.Second); err == nil {
		t.Error("expected expired token to fail validation")
	}
}

func TestMockBackendHandler(t *testing.T) {
	handler := testutil.MockBackendHandler("dealer-api")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sales/deals?userId=rep-001&active=true", nil)
	req.Header.Set("X-User-ID", "rep-001")
	req.Header.Set("X-User-Role", domain.RoleSalesRep)
	req.Header.Set("X-Tenant-ID", testutil.TestTenantID)
	req.Header.Set("X-Request-ID", "req-1")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Backend   string            `json:"backend"`
		Path      string            `json:"path"`
		Query     map[string]string `json:"query"`
		UserID    string            `json:"user_id"`
		UserRole  string            `json:"user_role"`
		TenantID  string            `json:"tenant_id"`
		RequestID string            `json:"request_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if body.Backend != "dealer-api" || body.Path != "/api/sales/deals" {
		t.Errorf("unexpected backend/path %q %q", body.Backend, body.Path)
	}
	if body.Query["userId"] != "rep-001" || body.Query["active"] != "true" {
		t.Errorf("unexpected query %v", body.Query)
	}
	if body.UserID != "rep-001" || body.UserRole != domain.RoleSalesRep {
		t.Errorf("unexpected user headers %q %q", body.UserID, body.UserRole)
	}
	if body.TenantID != testutil.TestTenantID || body.RequestID != "req-1" {
		t.Errorf("unexpected tenant/request id %q %q", body.TenantID, body.RequestID)
	}
}

func TestMockCSRFHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	testutil.MockCSRFHandler("tok").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["csrfToken"] != "tok" {
		t.Errorf("expected csrfToken tok, got %v", body)
	}
}
