// Package server provides the HTTP server for the reporting portal.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/internal/config"
	"github.com/goliatone/go-formportal/internal/metrics"
	"github.com/goliatone/go-formportal/internal/middleware"
	"github.com/goliatone/go-formportal/pkg/portal"
	"github.com/goliatone/go-formportal/pkg/render"
	"github.com/goliatone/go-formportal/pkg/renderers/vanilla"
)

// maxBodyBytes bounds form and JSON submissions.
const maxBodyBytes = 1 << 20

// Server represents the HTTP server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	portal     *portal.Portal
	html       render.Renderer
	json       render.Renderer
	renderers  *render.Registry
	metrics    *metrics.Metrics
	logger     *zap.Logger
	cfg        *config.Config
}

// Option customises the server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables request and outcome metrics and the metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRenderer replaces the HTML renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.html = renderer
		}
	}
}

// NewServer creates a new HTTP server and configures its routes.
func NewServer(cfg *config.Config, p *portal.Portal, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if p == nil {
		return nil, errors.New("server: portal is required")
	}

	s := &Server{
		router: chi.NewRouter(),
		portal: p,
		json:   render.JSONRenderer{},
		logger: zap.NewNop(),
		cfg:    cfg,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.html == nil {
		html, err := vanilla.New()
		if err != nil {
			return nil, fmt.Errorf("server: html renderer: %w", err)
		}
		s.html = html
	}
	s.renderers = render.NewRegistry()
	if err := s.renderers.Register(s.html); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if err := s.renderers.Register(s.json); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.Recovery(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, s.cfg.Metrics.Path, s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimiter.Enabled {
			limiter := middleware.NewRateLimiter(s.cfg.RateLimiter.RequestsPerSecond, s.cfg.RateLimiter.BurstSize, s.logger)
			r.Use(limiter.Limit)
		}
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		r.Use(limitBody)

		r.Get("/", s.handlePage)
		r.Post("/", s.handleSubmit)

		r.Route("/api", func(r chi.Router) {
			r.Get("/form", s.handleFormJSON)
			r.Post("/form", s.handleSubmitJSON)
			r.Get("/schema", s.handleSchema)
		})
	})
}

// Start starts the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if s.metrics != nil {
		s.metrics.SetHealthStatus(true)
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.metrics != nil {
		s.metrics.SetHealthStatus(false)
	}
	return s.httpServer.Shutdown(ctx)
}

// Run starts the server and shuts it down when ctx is cancelled, waiting at
// most shutdownTimeout for in-flight requests.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}
