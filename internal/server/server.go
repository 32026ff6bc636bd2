// Package server exposes the analysis service over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/haskel/planfox/internal/analysis"
	"github.com/haskel/planfox/internal/capacity"
	"github.com/haskel/planfox/internal/config"
	"github.com/haskel/planfox/internal/learning"
	"github.com/haskel/planfox/internal/server/middleware"
	"github.com/haskel/planfox/internal/storage"
)

// HistoryReader lists stored runs.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]storage.Run, error)
	Get(ctx context.Context, id string) (*storage.Run, error)
}

// Deps are the components the server exposes. History and Engine may be nil.
type Deps struct {
	State    capacity.StateProvider
	Capacity *capacity.Manager
	Engine   *learning.Engine
	Service  *analysis.Service
	History  HistoryReader
}

type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
	version    string
	authConfig *middleware.AuthConfig

	mu     sync.RWMutex
	config *config.Config
}

func New(cfg *config.Config, deps Deps, logger *slog.Logger, version string) *Server {
	s := &Server{
		deps:       deps,
		config:     cfg,
		logger:     logger,
		version:    version,
		authConfig: middleware.NewAuthConfig(cfg.Auth.Enabled, cfg.Auth.User, cfg.Auth.Password),
	}

	handler := middleware.Chain(
		s.setupRoutes(),
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.SecurityHeaders(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
			PerIP:             cfg.Server.RateLimit.PerIP,
		}),
		middleware.MaxBody(cfg.Server.MaxBodyBytes),
		middleware.Auth(s.authConfig, "/health"),
	)

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ReloadConfig applies the settings that can change without a restart:
// credentials, capacity thresholds and analysis limits. Listener address,
// timeouts and rate limits need a restart.
func (s *Server) ReloadConfig(cfg *config.Config) {
	s.logger.Info("reloading configuration")

	s.authConfig.Update(cfg.Auth.Enabled, cfg.Auth.User, cfg.Auth.Password)
	if s.deps.Capacity != nil {
		s.deps.Capacity.UpdateThresholds(cfg.Capacity)
	}
	if s.deps.Service != nil {
		s.deps.Service.UpdateConfig(cfg)
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()

	s.logger.Info("configuration reloaded",
		"auth_enabled", cfg.Auth.Enabled,
		"capacity_enabled", cfg.Capacity.Enabled,
		"strict_predecessors", cfg.Input.StrictPredecessors,
	)
}

func (s *Server) currentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
