// Package server exposes the live session engine to the presentation layer
// over a small local HTTP API: one combined read-only state document plus
// the session, logging, and rest-timer operations.
package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liveset/internal/engine"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine *engine.Engine
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a Server with all routes configured. An empty apiKey disables
// auth (the listener is expected to sit on a trusted interface, e.g. tsnet).
func New(eng *engine.Engine, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		engine: eng,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}

		r.Get("/state", s.handleState)
		r.Get("/presence", s.handlePresence)
		r.Get("/exercises", s.handleExercises)

		r.Post("/session/start", s.handleStartWorkout)
		r.Post("/session/refresh", s.handleRefresh)
		r.Post("/session/finish", s.handleFinishWorkout)
		r.Post("/session/logs", s.handleLogSet)
		r.Put("/session/slots", s.handleUpdateSlot)

		r.Post("/rest/start", s.handleStartRest)
		r.Post("/rest/stop", s.handleStopRest)
		r.Post("/rest/adjust", s.handleAdjustRest)

		r.Delete("/error", s.handleClearError)
	})
}
