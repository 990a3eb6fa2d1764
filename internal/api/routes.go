package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const requestTimeout = 30 * time.Second

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(timeoutMiddleware(requestTimeout))
		r.Get("/cards", s.handleCards)
		r.Get("/cards/*", s.handleCardDetail)
		r.Get("/reviews", s.handleReviewHistory)
		r.Post("/reviews", s.handleReview)
		r.Get("/stats", s.handleStats)
	})
	return r
}
