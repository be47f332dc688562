package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Route("/animations", func(r chi.Router) {
			r.Get("/", s.handleListAnimations)
			r.Post("/stop", s.handleStopAnimations)
			r.Post("/{id}", s.handleRunAnimation)
		})

		r.Route("/session", func(r chi.Router) {
			r.Post("/toggle", s.handleSessionToggle)
			r.Post("/reconnect", s.handleSessionReconnect)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/runs", s.handleHistoryRuns)
			r.Get("/session", s.handleHistorySessionEvents)
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
