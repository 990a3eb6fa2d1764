package api

import (
	"net/http"
	"strconv"

	"github.com/vytor/sbx/internal/errors"
	"github.com/vytor/sbx/internal/logger"
	"github.com/vytor/sbx/internal/models"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	q := r.URL.Query()

	prefix, err := s.journalPrefix(q.Get("path"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	days := s.StatsDays
	if raw := q.Get("days"); raw != "" {
		if days, err = parsePositive(raw, "days"); err != nil {
			log.Warn("invalid days value: %s", raw)
			handleError(w, r, err)
			return
		}
	}

	filter := models.ReviewFilter{PathPrefix: prefix}
	if days > 0 {
		since := s.now()().AddDate(0, 0, -days)
		filter.Since = &since
	}

	log = log.WithFields(map[string]any{"prefix": prefix, "days": days})
	log.Debug("fetching review stats")

	stats, err := s.Reviews.Stats(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"days":  days,
		"since": filter.Since,
		"stats": stats,
	})
}

const maxHistoryLimit = 1000

func (s *Server) handleReviewHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	q := r.URL.Query()

	prefix, err := s.journalPrefix(q.Get("path"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	filter := models.ReviewFilter{PathPrefix: prefix}

	if raw := q.Get("limit"); raw != "" {
		if filter.Limit, err = parsePositive(raw, "limit"); err != nil {
			handleError(w, r, err)
			return
		}
		filter.Limit = min(filter.Limit, maxHistoryLimit)
	}
	if raw := q.Get("days"); raw != "" {
		days, err := parsePositive(raw, "days")
		if err != nil {
			handleError(w, r, err)
			return
		}
		since := s.now()().AddDate(0, 0, -days)
		filter.Since = &since
	}
	if raw := q.Get("max_quality"); raw != "" {
		mq, err := strconv.Atoi(raw)
		if err != nil || mq < 0 || mq > models.MaxQuality {
			handleError(w, r, errors.NewBadRequestError("max_quality must be between 0 and 5"))
			return
		}
		filter.MaxQuality = &mq
	}

	log.WithFields(map[string]any{"prefix": prefix, "limit": filter.Limit}).Debug("fetching review history")

	reviews, err := s.Reviews.History(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	for i := range reviews {
		reviews[i].CardPath = s.relative(reviews[i].CardPath)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// journalPrefix maps an optional path query onto the absolute prefix the
// journal stores. Empty means the whole root.
func (s *Server) journalPrefix(rel string) (string, error) {
	if rel == "" {
		return s.Root, nil
	}
	return s.resolve(rel)
}

func parsePositive(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.NewBadRequestError(name + " must be a positive integer")
	}
	return n, nil
}
