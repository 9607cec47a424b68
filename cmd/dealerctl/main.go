// Command dealerctl issues access-scoped requests against the dealer API
// (directly or through the gateway) as a given catalog role.
//
//	dealerctl -user rep-001 -role sales_rep get /api/sales/deals
//	dealerctl -user mgr-sales-1 -role sales_manager -domain sales post /api/sales/deals '{"stage":"lead"}'
//	dealerctl -user fin-001 -role finance_manager whoami
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dealeraccess/internal/access"
	"dealeraccess/internal/client"
	"dealeraccess/internal/client/notify"
	"dealeraccess/internal/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "dealerctl:", err)
		if errors.Is(err, domain.ErrForbidden) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

type options struct {
	baseURL     string
	user        string
	role        string
	territories string
	team        string
	manager     string
	tenant      string
	token       string
	domain      string
	demo        bool
	timeout     time.Duration
	verbose     bool
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	fs := flag.NewFlagSet("dealerctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.baseURL, "base", envOr("DEALERCTL_BASE_URL", "http://localhost:8080"), "dealer API or gateway base URL")
	fs.StringVar(&o.user, "user", envOr("DEALERCTL_USER", ""), "user ID")
	fs.StringVar(&o.role, "role", envOr("DEALERCTL_ROLE", ""), "catalog role ID")
	fs.StringVar(&o.territories, "territories", "", "comma-separated territories")
	fs.StringVar(&o.team, "team", "", "comma-separated team member IDs")
	fs.StringVar(&o.manager, "manager", "", "manager ID")
	fs.StringVar(&o.tenant, "tenant", envOr("DEALERCTL_TENANT", client.DefaultTenantID), "tenant UUID")
	fs.StringVar(&o.token, "token", envOr("DEALERCTL_TOKEN", ""), "session token sent as a bearer credential")
	fs.StringVar(&o.domain, "domain", "", "data domain: sales, service, finance or customer")
	fs.BoolVar(&o.demo, "demo", false, "send X-Demo-Auth")
	fs.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall request timeout")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: dealerctl [flags] get|post|put|patch|delete PATH [JSON]")
		fmt.Fprintln(stderr, "       dealerctl [flags] whoami")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	if o.user == "" || o.role == "" {
		return o, nil, errors.New("-user and -role are required")
	}
	switch domain.DataDomain(o.domain) {
	case domain.DomainNone, domain.DomainSales, domain.DomainService, domain.DomainFinance, domain.DomainCustomer:
	default:
		return o, nil, fmt.Errorf("unknown domain %q", o.domain)
	}
	return o, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, rest, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return errors.New("missing command")
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	user, err := domain.NewUserContext(o.user, o.role, splitList(o.territories), splitList(o.team), o.manager)
	if err != nil {
		return err
	}
	user = user.WithTenant(o.tenant)
	svc := access.New(user)

	cmd := strings.ToLower(rest[0])
	if cmd == "whoami" {
		return whoami(stdout, svc)
	}

	method, ok := methods[cmd]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}
	if len(rest) < 2 {
		return fmt.Errorf("%s: missing path", cmd)
	}

	var body any
	if len(rest) > 2 {
		if method == http.MethodGet || method == http.MethodDelete {
			return fmt.Errorf("%s takes no body", cmd)
		}
		if !json.Valid([]byte(rest[2])) {
			return errors.New("body is not valid JSON")
		}
		body = json.RawMessage(rest[2])
	}

	opts := []client.Option{
		client.WithTenant(o.tenant),
		client.WithDemoAuth(o.demo),
		client.WithLogger(logger),
		client.WithNotifier(notify.Logger{Log: logger}),
	}
	if o.token != "" {
		opts = append(opts, client.WithAuthToken(o.token))
	}
	c, err := client.New(o.baseURL, svc, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var raw []byte
	req := client.Request{Method: method, Path: rest[1], Domain: domain.DataDomain(o.domain), Body: body}
	if err := c.Do(ctx, req, &raw); err != nil {
		return err
	}
	return writeOutput(stdout, raw)
}

var methods = map[string]string{
	"get":    http.MethodGet,
	"post":   http.MethodPost,
	"put":    http.MethodPut,
	"patch":  http.MethodPatch,
	"delete": http.MethodDelete,
}

type identity struct {
	UserID      string                    `json:"userId"`
	Role        string                    `json:"role"`
	Level       string                    `json:"level"`
	TenantID    string                    `json:"tenantId,omitempty"`
	Territories []string                  `json:"allowedTerritories"`
	Team        []string                  `json:"allowedTeamMembers"`
	Filters     map[string]access.Filters `json:"filters"`
	Redacts     []string                  `json:"redactedDomains"`
}

func whoami(w io.Writer, svc *access.Service) error {
	u := svc.User()
	id := identity{
		UserID:      u.UserID,
		Role:        u.Role.ID,
		Level:       u.Role.Level.String(),
		TenantID:    u.TenantID,
		Territories: svc.AllowedTerritories(),
		Team:        svc.AllowedTeamMembers(),
		Filters:     map[string]access.Filters{},
		Redacts:     []string{},
	}
	for _, d := range []domain.DataDomain{domain.DomainSales, domain.DomainService, domain.DomainFinance, domain.DomainCustomer} {
		id.Filters[string(d)] = svc.DataFilters(d)
		if svc.Redacts(d) {
			id.Redacts = append(id.Redacts, string(d))
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(id)
}

func writeOutput(w io.Writer, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = w.Write(raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
