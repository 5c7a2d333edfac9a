package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bandradar/bandradar/internal/config"
	"github.com/bandradar/bandradar/internal/core/engine"
	apperrors "github.com/bandradar/bandradar/internal/errors"
	"github.com/bandradar/bandradar/internal/observability"
	"github.com/bandradar/bandradar/internal/server/handlers"
	servermw "github.com/bandradar/bandradar/internal/server/middleware"
)

// Server is the HTTP adapter over the verification engine. It only
// validates input and serializes results; every decision lives in the
// engine.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	cfg      config.ServerConfig
	verifier *engine.Verifier
	version  string
}

// New creates a new HTTP server instance.
func New(cfg config.ServerConfig, verifier *engine.Verifier, version string) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithEnvelope(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithEnvelope(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router:   r,
		cfg:      cfg,
		verifier: verifier,
		version:  version,
	}
	s.registerRoutes()

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  orDefault(s.cfg.ReadTimeout, 30*time.Second),
		WriteTimeout: orDefault(s.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  orDefault(s.cfg.IdleTimeout, 120*time.Second),
	}

	observability.ServerLogger.Info("Starting HTTP server",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.ServerLogger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	health := &handlers.HealthHandler{
		Version:  s.version,
		Breakers: s.verifier.Coordinator,
	}
	if s.verifier.Cache != nil {
		health.Cache = s.verifier.Cache
	}

	s.router.Get("/health", health.Handle)
	s.router.Get("/health/live", health.Liveness)
	s.router.Get("/health/ready", health.Readiness)
	s.router.Get("/version", handlers.VersionHandler)

	verify := &handlers.VerifyHandler{Verifier: s.verifier}
	s.router.Post("/api/v1/verify", verify.Handle)
}

func orDefault(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
