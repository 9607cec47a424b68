package csrf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrNoToken is returned when the endpoint answers without a usable token.
var ErrNoToken = errors.New("csrf endpoint returned no token")

// Source fetches and caches an anti-forgery token. Concurrent callers that
// find the cache empty share a single fetch.
type Source struct {
	endpoint   string
	httpClient *http.Client
	prepare    func(*http.Request)
	onFetch    func(ctx context.Context, err error)

	mu    sync.Mutex
	token string
}

// Option configures a Source.
type Option func(*Source)

// WithPrepare lets the owner add headers (tenant, demo flag) to the token request.
func WithPrepare(fn func(*http.Request)) Option {
	return func(s *Source) { s.prepare = fn }
}

// WithFetchHook is called after every network fetch with its outcome.
func WithFetchHook(fn func(ctx context.Context, err error)) Option {
	return func(s *Source) { s.onFetch = fn }
}

// NewSource creates a token source for endpoint. httpClient should share
// the caller's cookie jar so the token is bound to the same session.
func NewSource(endpoint string, httpClient *http.Client, opts ...Option) *Source {
	s := &Source{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the cached token, fetching it on first use.
func (s *Source) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	tok, err := s.fetch(ctx)
	if s.onFetch != nil {
		s.onFetch(ctx, err)
	}
	if err != nil {
		return "", err
	}
	s.token = tok
	return tok, nil
}

// Invalidate drops the cached token if it is still stale. A token already
// replaced by another goroutine is kept.
func (s *Source) Invalidate(stale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == stale {
		s.token = ""
	}
}

func (s *Source) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating csrf request: %w", err)
	}
	if s.prepare != nil {
		s.prepare(req)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching csrf token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("csrf endpoint returned %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding csrf token: %w", err)
	}
	tok := body.value()
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// Servers disagree on the field name.
type tokenResponse struct {
	CSRFToken string `json:"csrfToken"`
	Token     string `json:"token"`
	CSRF      string `json:"csrf"`
}

func (r tokenResponse) value() string {
	switch {
	case r.CSRFToken != "":
		return r.CSRFToken
	case r.Token != "":
		return r.Token
	default:
		return r.CSRF
	}
}
