package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/metrics"
	"github.com/oshokin/authkeeper/internal/middleware"
)

const (
	// readHeaderTimeout bounds reading request headers.
	readHeaderTimeout = 10 * time.Second
	// metricsPath serves the Prometheus exposition format.
	metricsPath = "/metrics"
)

// Server is the demo web server.
type Server struct {
	cfg      *config.Config
	guard    *middleware.RouteGuard
	registry *prometheus.Registry
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithRegistry collects metrics into registry instead of a private one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// New creates and returns a new instance of Server.
func New(cfg *config.Config, options ...Option) (*Server, error) {
	s := &Server{cfg: cfg}

	for _, option := range options {
		option(s)
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	m, err := metrics.New(s.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	s.guard = middleware.NewRouteGuard(
		middleware.WithCookieName(cfg.CookieName),
		middleware.WithProtectedPrefix(cfg.ProtectedPrefix),
		middleware.WithLoginPath(cfg.LoginPath),
		middleware.WithMetrics(m))

	s.handler = s.routes()

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Guard returns the route guard in front of every route.
func (s *Server) Guard() *middleware.RouteGuard {
	return s.guard
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chi_middleware.RequestID)
	r.Use(requestLogger)
	r.Use(chi_middleware.Recoverer)
	// The guard sees every request and forwards the unprotected ones unchanged.
	r.Use(s.guard.Middleware)

	r.Get("/", s.handleHome)
	r.Get("/public", s.handlePublic)
	r.Get(s.cfg.LoginPath, s.handleLoginForm)
	r.Post(s.cfg.LoginPath, s.handleLoginSubmit)
	r.Post("/logout", s.handleLogout)
	r.Get(s.cfg.ProtectedPrefix, s.handleDashboard)
	r.Get(s.cfg.ProtectedPrefix+"/*", s.handleDashboard)
	r.Method(http.MethodGet, metricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

// Run serves on the configured address until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}

	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Infof(ctx, "Server listening on http://%s", listener.Addr())

		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down server...")

	shutdownTimeout := s.cfg.ParsedShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = readHeaderTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	logger.Info(ctx, "Server shutdown complete")

	return nil
}

// requestLogger tags the request context with its ID and logs the outcome at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithKV(logger.WithName(r.Context(), "http"),
			"request_id", chi_middleware.GetReqID(r.Context()))
		ww := chi_middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.DebugKV(ctx, "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}
