package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"dealeraccess/internal/domain"
	gw "dealeraccess/internal/gateway"
)

// Logging returns a middleware that logs each request using slog.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &gw.StatusWriter{ResponseWriter: w, Code: http.StatusOK}

			// Auth runs further in; it reports the user back through this slot.
			slot := &userSlot{}
			next.ServeHTTP(sw, r.WithContext(withUserSlot(r.Context(), slot)))

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.Code,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"request_id", gw.RequestIDFromContext(r.Context()),
				"tenant_id", slot.tenantID,
				"user_id", slot.userID,
				"role", slot.roleID,
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

type userSlot struct {
	userID, roleID, tenantID string
}

type userSlotKey struct{}

func withUserSlot(ctx context.Context, s *userSlot) context.Context {
	return context.WithValue(ctx, userSlotKey{}, s)
}

func reportUser(ctx context.Context, u domain.UserContext) {
	if s, ok := ctx.Value(userSlotKey{}).(*userSlot); ok {
		s.userID, s.roleID, s.tenantID = u.UserID, u.Role.ID, u.TenantID
	}
}
