// Package server exposes run registry state over HTTP.
//
// The status server is read-only: it reports health, build information,
// and the run records the CLI has registered. It never mutates runs.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/taxongrid/arraygen/internal/errors"
	"github.com/taxongrid/arraygen/internal/server/handlers"
	"github.com/taxongrid/arraygen/internal/server/middleware"
	"github.com/taxongrid/arraygen/pkg/jobregistry"
)

// Server is the status HTTP server.
type Server struct {
	host    string
	port    int
	version handlers.VersionInfo
	store   *jobregistry.Store
	logger  *zap.Logger

	router chi.Router
}

// Option customizes a Server.
type Option func(*Server)

// WithVersion sets the build information served at /version.
func WithVersion(info handlers.VersionInfo) Option {
	return func(s *Server) { s.version = info }
}

// WithRegistry exposes a run registry at /jobs.
func WithRegistry(store *jobregistry.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a server bound to host:port.
func New(host string, port int, opts ...Option) *Server {
	s := &Server{
		host:    host,
		port:    port,
		version: handlers.VersionInfo{Version: "dev"},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the root handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter assembles routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.RealIP)

	r.NotFound(apperrors.NotFoundHandler)
	r.MethodNotAllowed(apperrors.MethodNotAllowedHandler)

	r.Get("/health", handlers.HealthHandler)
	r.Get("/health/live", handlers.LivenessHandler)
	r.Get("/health/ready", handlers.ReadinessHandler)
	r.Get("/health/startup", handlers.StartupHandler)
	r.Get("/version", handlers.VersionHandler(s.version))

	if s.store != nil {
		r.Get("/jobs", handlers.ListRunsHandler(s.store))
		r.Get("/jobs/{runID}", handlers.GetRunHandler(s.store))
	}

	return r
}

// Timeouts configures the HTTP server's connection handling.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// Run serves until ctx is cancelled, then shuts down gracefully within
// the shutdown timeout.
func (s *Server) Run(ctx context.Context, t Timeouts) error {
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  t.Read,
		WriteTimeout: t.Write,
		IdleTimeout:  t.Idle,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), t.Shutdown)
	defer cancel()

	s.logger.Info("status server shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
