package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	r := s.router

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/{sessionID}", s.getSession)
		r.Post("/{sessionID}/answer", s.answerSession)
	})

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())
}
