package testutil

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"dealeraccess/internal/auth"
	"dealeraccess/internal/domain"
)

// TestSecret signs session tokens in tests.
const TestSecret = "test-secret-do-not-use-in-production"

// TestTenantID is a valid tenant UUID distinct from the default.
const TestTenantID = "7d9f3b2a-4c1e-4a8b-9f6d-2e5c8a1b3d4f"

// TestUser builds a UserContext for a catalog role or fails the test.
func TestUser(t *testing.T, userID, roleID string, territories, team []string) domain.UserContext {
	t.Helper()
	u, err := domain.NewUserContext(userID, roleID, territories, team, "")
	if err != nil {
		t.Fatalf("building user %s/%s: %v", userID, roleID, err)
	}
	return u
}

// IssueTestToken creates a signed session token for u.
// A negative ttl produces an already-expired token.
func IssueTestToken(t *testing.T, secret string, u domain.UserContext, ttl time.Duration) string {
	t.Helper()
	if ttl < 0 {
		return issueExpired(t, secret, u, ttl)
	}
	tok, err := auth.IssueToken(secret, u, ttl)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return tok
}

func issueExpired(t *testing.T, secret string, u domain.UserContext, ttl time.Duration) string {
	t.Helper()
	// IssueToken treats non-positive ttl as the default, so build a token
	// that expired |ttl| ago by hand.
	tok, err := auth.IssueTokenAt(secret, u, time.Now().Add(2*ttl), -ttl)
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}
	return tok
}

// MockBackendHandler returns an http.Handler that echoes request details.
// Used to test that the gateway forwards scoped queries and user headers.
func MockBackendHandler(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := map[string]string{}
		for k, v := range r.URL.Query() {
			query[k] = strings.Join(v, ",")
		}
		resp := map[string]any{
			"backend":       name,
			"method":        r.Method,
			"path":          r.URL.Path,
			"query":         query,
			"user_id":       r.Header.Get("X-User-ID"),
			"user_role":     r.Header.Get("X-User-Role"),
			"tenant_id":     r.Header.Get("X-Tenant-ID"),
			"request_id":    r.Header.Get("X-Request-ID"),
			"authorization": r.Header.Get("Authorization"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
}

// MockRecordsHandler serves records as a JSON body on every request.
func MockRecordsHandler(records any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	})
}

// MockCSRFHandler serves a fixed token under the csrfToken field.
func MockCSRFHandler(token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"csrfToken": token})
	})
}
