package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"dealeraccess/internal/access"
	"dealeraccess/internal/domain"
	gw "dealeraccess/internal/gateway"
	"dealeraccess/internal/platform/telemetry"
)

// Route binds a path prefix to the data domain and resource it guards.
type Route struct {
	Prefix   string
	Domain   domain.DataDomain
	Resource string
}

// DefaultRoutes is the dealer API surface exposed through the gateway.
var DefaultRoutes = []Route{
	{Prefix: "/api/sales", Domain: domain.DomainSales, Resource: "sales:records"},
	{Prefix: "/api/service", Domain: domain.DomainService, Resource: "service:tickets"},
	{Prefix: "/api/customers", Domain: domain.DomainCustomer, Resource: "customers:records"},
	{Prefix: "/api/finance", Domain: domain.DomainFinance, Resource: "finance:records"},
	{Prefix: "/api/reports/sales", Domain: domain.DomainSales, Resource: "reports:sales"},
	{Prefix: "/api/reports/service", Domain: domain.DomainService, Resource: "reports:service"},
	{Prefix: "/api/reports/finance", Domain: domain.DomainFinance, Resource: "reports:finance"},
}

// PublicPaths are proxied without a session.
var PublicPaths = []string{"/healthz", "/readyz", "/api/csrf-token"}

// Router checks permissions, scopes queries and redacts responses for
// requests bound for the dealer API.
type Router struct {
	mux      *http.ServeMux
	upstream *url.URL
	metrics  *telemetry.Metrics
}

// NewRouter creates a router in front of upstreamURL. A nil routes slice
// uses DefaultRoutes. The metrics parameter is optional.
func NewRouter(upstreamURL string, routes []Route, m *telemetry.Metrics) (*Router, error) {
	upstream, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream URL: %w", err)
	}
	if routes == nil {
		routes = DefaultRoutes
	}

	r := &Router{
		mux:      http.NewServeMux(),
		upstream: upstream,
		metrics:  m,
	}

	r.mux.HandleFunc("GET /healthz", r.healthz)
	r.mux.HandleFunc("GET /readyz", r.readyz)
	r.mux.HandleFunc("GET /api/csrf-token", r.makePublicHandler("csrf"))

	for _, rt := range routes {
		h := r.makeHandler(rt)
		r.mux.HandleFunc(rt.Prefix+"/{rest...}", h)
		r.mux.HandleFunc(rt.Prefix, h)
	}

	return r, nil
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) direct(req *http.Request) {
	req.URL.Scheme = r.upstream.Scheme
	req.URL.Host = r.upstream.Host
	req.Host = r.upstream.Host

	if reqID := gw.RequestIDFromContext(req.Context()); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	if tenant := gw.TenantFromContext(req.Context()); tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
}

func (r *Router) makePublicHandler(label string) http.HandlerFunc {
	rp := &httputil.ReverseProxy{
		Director:     r.direct,
		ErrorHandler: proxyError,
	}

	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &gw.StatusWriter{ResponseWriter: w, Code: http.StatusOK}
		rp.ServeHTTP(sw, req)
		r.metrics.RecordProxyRequest(req.Context(), label, sw.Code, time.Since(start).Seconds())
	}
}

func (r *Router) makeHandler(rt Route) http.HandlerFunc {
	rp := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			r.direct(req)

			// Upstream trusts the user headers instead of the session.
			req.Header.Del("Authorization")

			if user, ok := gw.UserFromContext(req.Context()); ok {
				req.Header.Set("X-User-ID", user.UserID)
				req.Header.Set("X-User-Role", user.Role.ID)
				if access.New(user).Redacts(rt.Domain) {
					// Redaction needs a plain body.
					req.Header.Del("Accept-Encoding")
				}
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			return r.redact(resp, rt)
		},
		ErrorHandler: proxyError,
	}

	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		user, ok := gw.UserFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		svc := access.New(user)
		action := access.ActionForMethod(req.Method)
		if !svc.HasPermission(rt.Resource, action) {
			slog.Info("access denied",
				"user_id", user.UserID,
				"role", user.Role.ID,
				"resource", rt.Resource,
				"action", action,
			)
			r.metrics.RecordAccessDecision(ctx, "gateway", user.Role.ID, "denied")
			writeError(w, http.StatusForbidden, "forbidden", "access denied")
			return
		}
		r.metrics.RecordAccessDecision(ctx, "gateway", user.Role.ID, "allowed")

		if req.Method == http.MethodGet || req.Method == http.MethodHead {
			req = withQuery(req, svc.DataFilters(rt.Domain).Apply(req.URL.Query()))
		}

		start := time.Now()
		sw := &gw.StatusWriter{ResponseWriter: w, Code: http.StatusOK}
		rp.ServeHTTP(sw, req)
		r.metrics.RecordProxyRequest(ctx, rt.Resource, sw.Code, time.Since(start).Seconds())
	}
}

// redact filters every 2xx body on a route the user sees redacted,
// whatever Content-Type upstream declares. Bodies that do not decode fail
// the request with 502.
func (r *Router) redact(resp *http.Response, rt Route) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.Request.Method == http.MethodHead {
		return nil
	}
	ctx := resp.Request.Context()
	user, ok := gw.UserFromContext(ctx)
	if !ok {
		return nil
	}
	svc := access.New(user)
	if !svc.Redacts(rt.Domain) {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading upstream body: %w", err)
	}
	out, n, err := svc.RedactJSON(body, rt.Domain)
	if err != nil {
		return err
	}
	r.metrics.RecordRedaction(ctx, "gateway", string(rt.Domain), n)

	if len(out) > 0 {
		resp.Header.Set("Content-Type", "application/json")
	}
	resp.Body = io.NopCloser(bytes.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Set("Content-Length", strconv.Itoa(len(out)))
	return nil
}

func withQuery(req *http.Request, q url.Values) *http.Request {
	out := new(http.Request)
	*out = *req
	u := *req.URL
	u.RawQuery = q.Encode()
	out.URL = &u
	return out
}

func (r *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("encoding healthz response", "error", err)
	}
}

func (r *Router) readyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ready"}); err != nil {
		slog.Error("encoding readyz response", "error", err)
	}
}

func proxyError(w http.ResponseWriter, req *http.Request, err error) {
	slog.Error("upstream request failed",
		"path", req.URL.Path,
		"request_id", gw.RequestIDFromContext(req.Context()),
		"error", err,
	)
	writeError(w, http.StatusBadGateway, "bad_gateway", "upstream unavailable")
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(domain.ErrorResponse{
		Error:   code,
		Message: msg,
	}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
