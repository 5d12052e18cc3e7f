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

	// Reading form (server-rendered HTML)
	r.Get("/", s.handleForm)
	r.Post("/submit", s.handleSubmit)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/rooms", s.handleListRooms)
		r.Get("/readings/latest", s.handleLatestReadings)
		r.Post("/readings", s.handleCreateReading)
		r.Get("/submissions", s.handleListSubmissions)
	})

	return r
}
