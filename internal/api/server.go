package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/InstaIntelli/insta/internal/cache"
	"github.com/InstaIntelli/insta/internal/config"
	"github.com/InstaIntelli/insta/internal/failover"
)

// ServiceName is reported by the health endpoints
const ServiceName = "InstaIntelli API"

// HealthSource supplies the failover managers whose status is served
type HealthSource interface {
	Reporters() []failover.Reporter
}

type Server struct {
	config     config.ServerConfig
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
	health     HealthSource
	metrics    *Metrics
	users      UserReader
	posts      PostReader
	cache      *cache.Cache
	startTime  time.Time
}

// Option configures a Server
type Option func(*Server)

// WithUsers mounts the user routes on users
func WithUsers(users UserReader) Option {
	return func(s *Server) {
		s.users = users
	}
}

// WithPosts mounts the post routes on posts
func WithPosts(posts PostReader) Option {
	return func(s *Server) {
		s.posts = posts
	}
}

// WithCache serves single users and posts through c
func WithCache(c *cache.Cache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// NewServer builds the HTTP server. metrics may be nil, in which case
// /metrics is not mounted.
func NewServer(cfg config.ServerConfig, logger *zap.Logger, health HealthSource, metrics *Metrics, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config:    cfg,
		logger:    logger,
		router:    chi.NewRouter(),
		health:    health,
		metrics:   metrics,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware(s.logger, s.metrics))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/health/databases", s.handleDatabaseHealth)
	s.router.Get("/ready", s.handleReadiness)
	s.router.Get("/live", s.handleLiveness)
	s.router.Get("/version", s.handleVersion)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/health/databases", s.handleDatabaseHealth)

		if s.users != nil {
			r.Get("/users/{userID}", s.handleGetUser)
		}
		if s.posts != nil {
			r.Get("/users/{userID}/posts", s.handleListUserPosts)
			r.Get("/posts/{postID}", s.handleGetPost)
		}
	})

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Serve listens on the configured port until ctx is done, then drains
// in-flight requests within the shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", ln.Addr().String()))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down server", zap.Duration("timeout", timeout))
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) String() string {
	return "http-server"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
