package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dealeraccess/internal/auth"
	"dealeraccess/internal/domain"
	gw "dealeraccess/internal/gateway"
	"dealeraccess/internal/platform/telemetry"
)

const (
	maxClockSkew      = 30 * time.Second
	sessionCookieName = "session"
	demoUserID        = "demo-user"
)

// AuthConfig configures session validation.
type AuthConfig struct {
	Secret      string
	PublicPaths []string
	// DemoMode lets requests with X-Demo-Auth: true impersonate the catalog
	// role named in X-Demo-Role without a session token.
	DemoMode bool
}

// Auth returns a middleware that validates HS256 session tokens taken from
// the Authorization header or the session cookie, and stores the resolved
// UserContext in the request context.
func Auth(cfg AuthConfig, m *telemetry.Metrics) Middleware {
	public := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.DemoMode && r.Header.Get("X-Demo-Auth") == "true" {
				user, err := demoUser(r.Header.Get("X-Demo-Role"))
				if err != nil {
					m.RecordAuthValidation(r.Context(), "failure")
					writeError(w, http.StatusUnauthorized, "unauthorized", "unknown demo role")
					return
				}
				m.RecordAuthValidation(r.Context(), "demo")
				serveAs(next, w, r, user)
				return
			}

			tokenStr, ok := extractToken(r)
			if !ok {
				m.RecordAuthValidation(r.Context(), "failure")
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or malformed session token")
				return
			}

			claims, err := auth.ParseToken(cfg.Secret, tokenStr, maxClockSkew)
			if err != nil {
				slog.Debug("session validation failed", "error", err)
				m.RecordAuthValidation(r.Context(), "failure")
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			user, err := claims.UserContext()
			if err != nil {
				slog.Debug("resolving session user", "error", err)
				m.RecordAuthValidation(r.Context(), "failure")
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token claims")
				return
			}

			m.RecordAuthValidation(r.Context(), "success")
			serveAs(next, w, r, user)
		})
	}
}

func serveAs(next http.Handler, w http.ResponseWriter, r *http.Request, user domain.UserContext) {
	if tenant := gw.TenantFromContext(r.Context()); tenant != "" {
		user = user.WithTenant(tenant)
	}
	reportUser(r.Context(), user)
	ctx := gw.ContextWithUser(r.Context(), user)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func demoUser(roleID string) (domain.UserContext, error) {
	if roleID == "" {
		roleID = domain.RoleExecutive
	}
	return domain.NewUserContext(demoUserID, roleID, nil, nil, "")
}

func extractToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}
