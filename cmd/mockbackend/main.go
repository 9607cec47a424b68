package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"dealeraccess/internal/domain"
	"dealeraccess/internal/platform/server"
)

func main() {
	addr := envOr("ADDR", ":8082")
	name := envOr("BACKEND_NAME", "mock-dealer-api")
	baseDelay := envDuration("LATENCY_BASE", 0)
	jitter := envDuration("LATENCY_JITTER", 0)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	slog.Info("mock dealer api starting", "addr", addr, "name", name,
		"latency_base", baseDelay, "latency_jitter", jitter)

	api := &dealerAPI{
		name:      name,
		customers: seedCustomers(),
		deals:     seedDeals(),
		tickets:   seedTickets(),
		invoices:  seedInvoices(),
		csrf:      make(map[string]struct{}),
		delay:     func() { simulateWork(baseDelay, jitter) },
	}

	srv := server.New(name, addr, api.routes(), server.WithLogger(logger))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}
}

// dealerAPI serves seeded records and honours the gateway's scoping
// parameters the way the real dealer API does.
type dealerAPI struct {
	name      string
	customers []record
	deals     []record
	tickets   []record
	invoices  []record
	delay     func()

	mu   sync.Mutex
	csrf map[string]struct{}
}

func (a *dealerAPI) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": a.name})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "service": a.name})
	})
	mux.HandleFunc("GET /api/csrf-token", a.issueCSRF)

	mux.HandleFunc("GET /api/customers", a.list(a.customers))
	mux.HandleFunc("GET /api/customers/{id}", a.get(a.customers))
	mux.HandleFunc("GET /api/sales/deals", a.list(a.deals))
	mux.HandleFunc("GET /api/sales/deals/{id}", a.get(a.deals))
	mux.HandleFunc("GET /api/service/tickets", a.list(a.tickets))
	mux.HandleFunc("GET /api/service/tickets/{id}", a.get(a.tickets))
	mux.HandleFunc("GET /api/finance/invoices", a.list(a.invoices))
	mux.HandleFunc("GET /api/finance/invoices/{id}", a.get(a.invoices))

	mux.HandleFunc("GET /api/reports/sales", a.salesReport)
	mux.HandleFunc("GET /api/reports/service", a.serviceReport)
	mux.HandleFunc("GET /api/reports/finance", a.financeReport)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		mux.HandleFunc(method+" /api/", a.mutate)
	}

	// Anything else echoes request details.
	mux.HandleFunc("/", a.echo)
	return mux
}

func (a *dealerAPI) issueCSRF(w http.ResponseWriter, r *http.Request) {
	tok := uuid.NewString()
	a.mu.Lock()
	a.csrf[tok] = struct{}{}
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": tok})
}

func (a *dealerAPI) validCSRF(tok string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.csrf[tok]
	return ok
}

func (a *dealerAPI) list(records []record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.delay()
		writeJSON(w, http.StatusOK, filter(records, r.URL.Query()))
	}
}

func (a *dealerAPI) get(records []record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.delay()
		rec, ok := findByID(records, r.PathValue("id"))
		if !ok || !matches(rec, r.URL.Query()) {
			writeError(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (a *dealerAPI) salesReport(w http.ResponseWriter, r *http.Request) {
	a.delay()
	deals := filter(a.deals, r.URL.Query())
	byStage := map[string]int{}
	var total float64
	for _, d := range deals {
		byStage[d["stage"].(string)]++
		total += toFloat(d["amount"])
	}
	writeJSON(w, http.StatusOK, record{
		"dealCount":      len(deals),
		"pipelineValue":  total,
		"byStage":        byStage,
		"teamComparison": 1.0,
		"managerNotes":   "Q3 targets on track",
	})
}

func (a *dealerAPI) serviceReport(w http.ResponseWriter, r *http.Request) {
	a.delay()
	tickets := filter(a.tickets, r.URL.Query())
	byStatus := map[string]int{}
	for _, t := range tickets {
		byStatus[t["status"].(string)]++
	}
	writeJSON(w, http.StatusOK, record{"ticketCount": len(tickets), "byStatus": byStatus})
}

func (a *dealerAPI) financeReport(w http.ResponseWriter, r *http.Request) {
	a.delay()
	var billed, overdue float64
	for _, inv := range a.invoices {
		amt := toFloat(inv["amount"])
		billed += amt
		if inv["status"] == "overdue" {
			overdue += amt
		}
	}
	writeJSON(w, http.StatusOK, record{
		"billed":             billed,
		"overdue":            overdue,
		"detailedFinancials": record{"grossMargin": 0.29},
		"creditLimit":        160000,
	})
}

func (a *dealerAPI) mutate(w http.ResponseWriter, r *http.Request) {
	a.delay()
	if !a.validCSRF(r.Header.Get("x-csrf-token")) {
		writeError(w, http.StatusForbidden, "csrf_invalid", "invalid csrf token")
		return
	}

	var body record
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}
	}

	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if body == nil {
		body = record{}
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
		body["id"] = uuid.NewString()
	}
	body["updatedBy"] = r.Header.Get("X-User-ID")
	writeJSON(w, status, body)
}

func (a *dealerAPI) echo(w http.ResponseWriter, r *http.Request) {
	a.delay()
	writeJSON(w, http.StatusOK, map[string]any{
		"backend":    a.name,
		"method":     r.Method,
		"path":       r.URL.Path,
		"query":      r.URL.RawQuery,
		"user_id":    r.Header.Get("X-User-ID"),
		"user_role":  r.Header.Get("X-User-Role"),
		"tenant_id":  r.Header.Get("X-Tenant-ID"),
		"request_id": r.Header.Get("X-Request-ID"),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, domain.ErrorResponse{Error: code, Message: msg})
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDuration reads a duration in milliseconds from an env var (e.g. "50" -> 50ms).
func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}

// simulateWork sleeps for base + random(0, jitter) to mimic real backend processing.
func simulateWork(base, jitter time.Duration) {
	if base == 0 && jitter == 0 {
		return
	}
	delay := base
	if jitter > 0 {
		delay += time.Duration(rand.Int64N(int64(jitter)))
	}
	time.Sleep(delay)
}
