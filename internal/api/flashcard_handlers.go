package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/sbx/internal/card"
	"github.com/vytor/sbx/internal/collection"
	"github.com/vytor/sbx/internal/errors"
	"github.com/vytor/sbx/internal/logger"
)

type reviewRequest struct {
	Path            string  `json:"path"`
	Quality         *int    `json:"quality"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	q := r.URL.Query()

	var (
		filter    collection.Filter
		recursive bool
		err       error
	)
	for _, p := range []struct {
		name string
		dst  *bool
	}{
		{"include", &filter.IncludeUnscheduled},
		{"recursive", &recursive},
		{"leech", &filter.LeechOnly},
		{"zero", &filter.ZeroOnly},
	} {
		if *p.dst, err = parseBool(q.Get(p.name), p.name); err != nil {
			handleError(w, r, err)
			return
		}
	}

	log = log.WithFields(map[string]any{
		"include":   filter.IncludeUnscheduled,
		"recursive": recursive,
		"leech":     filter.LeechOnly,
		"zero":      filter.ZeroOnly,
	})
	log.Debug("listing cards")

	cards := []cardSummary{}
	for c, err := range s.collection(recursive, filter).Cards() {
		if err != nil {
			handleError(w, r, err)
			return
		}
		cards = append(cards, s.summarize(c))
	}

	log.Debug("listed %d cards", len(cards))
	writeJSON(w, r, http.StatusOK, map[string]any{
		"cards": cards,
		"count": len(cards),
	})
}

func (s *Server) handleCardDetail(w http.ResponseWriter, r *http.Request) {
	c, err := s.openExisting(chi.URLParam(r, "*"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	d, err := s.detail(c)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid review body: %v", err)
		handleError(w, r, errors.NewBadRequestError("invalid JSON body"))
		return
	}
	if req.Quality == nil {
		handleError(w, r, errors.NewBadRequestError("quality is required"))
		return
	}
	if req.DurationSeconds < 0 {
		req.DurationSeconds = 0
	}

	log = log.WithFields(map[string]any{
		"card":    req.Path,
		"quality": *req.Quality,
	})
	log.Debug("reviewing card")

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.openExisting(req.Path)
	if err != nil {
		handleError(w, r, err)
		return
	}
	duration := time.Duration(req.DurationSeconds * float64(time.Second))
	if err := s.Reviews.Review(r.Context(), c, *req.Quality, duration); err != nil {
		handleError(w, r, err)
		return
	}

	d, err := s.detail(c)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("card reviewed successfully")
	writeJSON(w, r, http.StatusOK, d)
}

// openExisting opens a card that must already exist under the root.
func (s *Server) openExisting(rel string) (*card.Card, error) {
	path, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, errors.NewNotFoundError("card", rel)
	}
	return card.Open(path, s.cardOptions()...)
}
