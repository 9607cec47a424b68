package middleware

import (
	"net/http"

	"github.com/google/uuid"

	gw "dealeraccess/internal/gateway"
)

// TenantHeader carries the tenant identifier on every request.
const TenantHeader = "X-Tenant-ID"

// Tenant resolves the request's tenant from the x-tenant-id header, falling
// back to defaultTenant. Non-UUID values are rejected with 400.
func Tenant(defaultTenant string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(TenantHeader)
			if id == "" {
				id = defaultTenant
			}
			parsed, err := uuid.Parse(id)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_tenant", "x-tenant-id must be a UUID")
				return
			}
			ctx := gw.ContextWithTenant(r.Context(), parsed.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
