// Package client is an HTTP client for the dealer API that applies the
// caller's access rules on the way out and on the way back: GET queries are
// scoped with data filters, mutations carry a CSRF token, and JSON responses
// are redacted before they reach the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"dealeraccess/internal/access"
	"dealeraccess/internal/client/csrf"
	"dealeraccess/internal/client/notify"
	"dealeraccess/internal/domain"
	"dealeraccess/internal/platform/telemetry"
)

// CSRFPath is the token endpoint, relative to the base URL.
const CSRFPath = "/api/csrf-token"

const (
	headerTenant   = "x-tenant-id"
	headerCSRF     = "x-csrf-token"
	headerDemoAuth = "X-Demo-Auth"
)

// Request describes one call. Domain selects the filter and redaction
// rules; when empty it is guessed from Path.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Domain domain.DataDomain
	Body   any
}

// Client issues access-scoped requests against a single base URL.
type Client struct {
	base *url.URL
	svc  *access.Service

	http         *http.Client
	tenantID     string
	demoAuth     bool
	authToken    string
	notifier     notify.Notifier
	metrics      *telemetry.Metrics
	logger       *slog.Logger
	readAttempts uint
	retryDelay   time.Duration

	csrf *csrf.Source
}

// New creates a Client for baseURL acting as the user bound to svc.
func New(baseURL string, svc *access.Service, opts ...Option) (*Client, error) {
	if svc == nil {
		return nil, errors.New("client: access service is required")
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:         base,
		svc:          svc,
		tenantID:     DefaultTenantID,
		notifier:     notify.Discard{},
		readAttempts: 3,
		retryDelay:   250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if err := c.ensureJar(); err != nil {
		return nil, err
	}

	c.csrf = csrf.NewSource(c.base.JoinPath(CSRFPath).String(), c.http,
		csrf.WithPrepare(c.setCommonHeaders),
		csrf.WithFetchHook(func(ctx context.Context, err error) {
			result := "success"
			if err != nil {
				result = "error"
			}
			c.metrics.RecordCSRFRefresh(ctx, result)
		}),
	)
	return c, nil
}

func (c *Client) ensureJar() error {
	if c.http != nil && c.http.Jar != nil {
		return nil
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("creating cookie jar: %w", err)
	}
	hc := &http.Client{Timeout: 30 * time.Second}
	if c.http != nil {
		cp := *c.http
		hc = &cp
	}
	hc.Jar = jar
	c.http = hc
	return nil
}

// Access returns the rules the client applies.
func (c *Client) Access() *access.Service {
	return c.svc
}

// Get decodes the scoped, redacted response of a GET into out.
func (c *Client) Get(ctx context.Context, path string, d domain.DataDomain, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Domain: d}, out)
}

func (c *Client) Post(ctx context.Context, path string, d domain.DataDomain, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Domain: d, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, d domain.DataDomain, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Domain: d, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, d domain.DataDomain, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Domain: d, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, d domain.DataDomain, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Domain: d}, out)
}

// Do sends req and decodes a successful body into out, which may be nil.
// Non-2xx responses return a *StatusError; a final 403 also raises one
// "Access Denied" notification.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	d := c.resolveDomain(ctx, req)

	target, err := c.target(method, req, d)
	if err != nil {
		return err
	}

	var body []byte
	if req.Body != nil {
		if body, err = json.Marshal(req.Body); err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	var res *response
	if isMutation(method) {
		res, err = c.mutate(ctx, method, target, d, body)
	} else {
		res, err = c.read(ctx, method, target, d)
	}
	if err != nil {
		if statusOf(err) == http.StatusForbidden {
			c.notifier.Notify(ctx, notify.Notification{
				Title:   "Access Denied",
				Message: err.Error(),
			})
		}
		return err
	}
	return c.decode(ctx, res, d, out)
}

func (c *Client) resolveDomain(ctx context.Context, req Request) domain.DataDomain {
	if req.Domain != domain.DomainNone {
		return req.Domain
	}
	d := domain.InferFromPath(req.Path)
	c.logger.WarnContext(ctx, "request domain not set, inferred from path",
		"path", req.Path,
		"domain", string(d),
	)
	return d
}

func (c *Client) target(method string, req Request, d domain.DataDomain) (string, error) {
	ref, err := url.Parse(req.Path)
	if err != nil {
		return "", fmt.Errorf("parsing path %q: %w", req.Path, err)
	}

	q := ref.Query()
	for k, vs := range req.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if method == http.MethodGet {
		q = c.svc.DataFilters(d).Apply(q)
	}

	u := c.base.JoinPath(ref.Path)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) read(ctx context.Context, method, target string, d domain.DataDomain) (*response, error) {
	var res *response
	err := retry.Do(
		func() error {
			var err error
			res, err = c.send(ctx, method, target, d, nil, "")
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.readAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.WarnContext(ctx, "retrying read", "attempt", n+1, "url", target, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Mutations get a single retry with a fresh token after a 403.
func (c *Client) mutate(ctx context.Context, method, target string, d domain.DataDomain, body []byte) (*response, error) {
	tok := c.csrfToken(ctx)
	res, err := c.send(ctx, method, target, d, body, tok)
	if statusOf(err) != http.StatusForbidden {
		return res, err
	}

	c.logger.InfoContext(ctx, "mutation rejected, refreshing csrf token", "url", target)
	c.csrf.Invalidate(tok)
	tok = c.csrfToken(ctx)
	return c.send(ctx, method, target, d, body, tok)
}

// A failed token fetch sends the request without one and lets the server decide.
func (c *Client) csrfToken(ctx context.Context) string {
	tok, err := c.csrf.Token(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "csrf token unavailable", "error", err)
		return ""
	}
	return tok
}

func (c *Client) send(ctx context.Context, method, target string, d domain.DataDomain, body []byte, csrfToken string) (*response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setCommonHeaders(req)
	if csrfToken != "" {
		req.Header.Set(headerCSRF, csrfToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordClientRequest(ctx, method, string(d), 0)
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	c.metrics.RecordClientRequest(ctx, method, string(d), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, bytes.TrimSpace(data))
	}
	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerTenant, c.tenantID)
	if c.demoAuth {
		req.Header.Set(headerDemoAuth, "true")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

func (c *Client) decode(ctx context.Context, res *response, d domain.DataDomain, out any) error {
	if out == nil || len(res.body) == 0 {
		return nil
	}
	// Bodies in a redacted domain are redacted whatever their declared type.
	if !isJSON(res.contentType) && !c.svc.Redacts(d) {
		raw, ok := out.(*[]byte)
		if !ok {
			return fmt.Errorf("unexpected content type %q", res.contentType)
		}
		*raw = res.body
		return nil
	}

	body, n, err := c.svc.RedactJSON(res.body, d)
	if err != nil {
		return err
	}
	if n > 0 {
		c.metrics.RecordRedaction(ctx, "client", string(d), n)
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = body
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch statusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	}
	return true
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
