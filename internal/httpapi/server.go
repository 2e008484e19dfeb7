// Package httpapi exposes a session over HTTP: create one, poll its status,
// and answer its ask_user questions. It is thin wiring over internal/client
// and internal/session, not a place for core logic.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bmadforge/runtime/internal/client"
)

// Config holds server configuration.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration. WriteTimeout is zero
// because a session's lifetime is unbounded once it's paused on ask_user.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
	}
}

// Server is the HTTP front door for running sessions.
type Server struct {
	config             *Config
	router             *chi.Mux
	httpSrv            *http.Server
	client             *client.Client
	reg                *registry
	unsubscribeMetrics func()
}

// New builds a Server backed by client for constructing and resuming
// sessions.
func New(cfg *Config, c *client.Client) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:             cfg,
		router:             r,
		client:             c,
		reg:                newRegistry(),
		unsubscribeMetrics: subscribeMetrics(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// Router returns the Chi router, mainly for tests.
func (s *Server) Router() *chi.Mux { return s.router }

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.unsubscribeMetrics != nil {
		s.unsubscribeMetrics()
	}
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
