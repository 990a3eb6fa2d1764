package api

import (
	"net/http"

	"github.com/vytor/sbx/internal/logger"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady returns 503 when the journal is enabled but unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if s.Journal != nil {
		if err := s.Journal.PingContext(r.Context()); err != nil {
			log.Warn("readiness check failed - journal: %v", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Journal unavailable"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
