package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rickgao/explorer-data/internal/model"
	"github.com/rickgao/explorer-data/internal/poller"
	"github.com/rickgao/explorer-data/internal/store"
)

// Config holds query service settings.
type Config struct {
	ListenAddr      string
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	Burst             int

	MetricsPath string // empty disables /metrics

	// TrustProxyHeaders rewrites the client address from X-Forwarded-For /
	// X-Real-IP before logging and rate limiting. Off, the socket peer is used.
	TrustProxyHeaders bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:8080",
		CORSOrigins:     []string{"*"},
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MetricsPath:     "/metrics",
	}
}

// Tables are the snapshot tables the service reads.
type Tables struct {
	Blocks store.Table[model.Block]
	Chart  store.Table[model.ChartPoint]
	Rates  store.Table[model.ExchangeRate]
}

// StatusReporter exposes a poller's status.
type StatusReporter interface {
	Source() model.Source
	Status() poller.Status
}

// ReadyFunc reports whether the backing store is reachable.
type ReadyFunc func(ctx context.Context) error

// Server is the query service.
type Server struct {
	cfg     Config
	tables  Tables
	pollers []StatusReporter
	ready   ReadyFunc
	limiter *rateLimiter
	logger  *slog.Logger

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithPollers reports the given pollers on /api/status.
func WithPollers(ps ...StatusReporter) Option {
	return func(s *Server) {
		s.pollers = append(s.pollers, ps...)
	}
}

// WithReadiness sets the /readyz check.
func WithReadiness(fn ReadyFunc) Option {
	return func(s *Server) {
		s.ready = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a query service over tables.
func New(cfg Config, tables Tables, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		tables: tables,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = newRateLimiter(cfg.RequestsPerSecond, cfg.Burst, s.logger)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully. A listen
// failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	if s.limiter != nil {
		go s.limiter.cleanupLoop(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("server: listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("server: shutdown incomplete", "err", err)
		return nil
	}
	s.logger.Info("server: stopped")
	return nil
}
