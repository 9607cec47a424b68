package middleware

import (
	"net/http"
	"time"

	gw "dealeraccess/internal/gateway"
	"dealeraccess/internal/platform/telemetry"
)

// Metrics returns middleware that records request count and latency per
// method, path label and status. It goes outermost so rejections by later
// middleware are counted too.
func Metrics(m *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			label := telemetry.PathLabel(r.URL.Path)
			sw := &gw.StatusWriter{ResponseWriter: w, Code: http.StatusOK}

			next.ServeHTTP(sw, r)

			m.RecordHTTPRequest(r.Context(), r.Method, label, sw.Code, time.Since(start).Seconds())
		})
	}
}
