package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	gw "dealeraccess/internal/gateway"
)

// Recovery turns a handler panic into a 500 JSON error. http.ErrAbortHandler
// is re-raised so the server can abort the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			ctx := r.Context()
			attrs := []any{
				"error", v,
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", gw.RequestIDFromContext(ctx),
				"tenant_id", gw.TenantFromContext(ctx),
			}
			if u, ok := gw.UserFromContext(ctx); ok {
				attrs = append(attrs, "user_id", u.UserID, "role", u.Role.ID)
			}
			attrs = append(attrs, "stack", string(debug.Stack()))
			slog.ErrorContext(ctx, "panic recovered", attrs...)

			writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
		}()
		next.ServeHTTP(w, r)
	})
}
