package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Server wraps an http.Server with graceful shutdown and optional
// background jobs tied to its lifetime.
type Server struct {
	name       string
	srv        *http.Server
	logger     *slog.Logger
	background []func(ctx context.Context)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithBackground runs fn for as long as the server runs. fn must return
// once its context is cancelled.
func WithBackground(fn func(ctx context.Context)) Option {
	return func(s *Server) { s.background = append(s.background, fn) }
}

// New creates a Server named name that listens on addr and routes to handler.
func New(name, addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		name: name,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the server and blocks until ctx is cancelled, then gracefully shuts down.
func (s *Server) Run(ctx context.Context) error {
	log := s.logger.With("server", s.name)

	bgCtx, stopBackground := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, fn := range s.background {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(bgCtx)
		}()
	}
	defer func() {
		stopBackground()
		wg.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
