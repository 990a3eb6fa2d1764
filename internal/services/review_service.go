package services

import (
	"context"
	"time"

	"github.com/vytor/sbx/internal/card"
	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/errors"
	"github.com/vytor/sbx/internal/logger"
	"github.com/vytor/sbx/internal/models"
	"github.com/vytor/sbx/internal/repository"
)

// ReviewService handles marking cards and the review journal
type ReviewService interface {
	// Review marks c with quality, saves it and records the review. A failed
	// save leaves the mark applied in memory; retry with Persist.
	Review(ctx context.Context, c *card.Card, quality int, duration time.Duration) error
	// Persist saves an already marked card and records the review.
	Persist(ctx context.Context, c *card.Card, quality int, duration time.Duration) error
	Stats(ctx context.Context, filter models.ReviewFilter) (*models.ReviewStats, error)
	History(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error)
	JournalEnabled() bool
}

type reviewService struct {
	repo repository.ReviewRepository
	now  clock.Func
}

// NewReviewService creates a new ReviewService. repo may be nil, in which
// case reviews are only written to the card files.
func NewReviewService(repo repository.ReviewRepository, now clock.Func) ReviewService {
	if now == nil {
		now = clock.System
	}
	return &reviewService{repo: repo, now: now}
}

func (s *reviewService) JournalEnabled() bool { return s.repo != nil }

func (s *reviewService) Review(ctx context.Context, c *card.Card, quality int, duration time.Duration) error {
	log := logger.FromContext(ctx)
	log.Debug("reviewing card: path=%s, quality=%d", c.Path(), quality)

	if err := c.Mark(quality); err != nil {
		return err
	}
	return s.Persist(ctx, c, quality, duration)
}

func (s *reviewService) Persist(ctx context.Context, c *card.Card, quality int, duration time.Duration) error {
	log := logger.FromContext(ctx)

	if err := c.Save(); err != nil {
		log.Error("failed to save card %s: %v", c.Path(), err)
		return err
	}

	if s.repo == nil {
		return nil
	}
	rv := models.ReviewFromState(c.Path(), quality, c.State(), duration, s.now())
	if _, err := s.repo.Insert(ctx, rv); err != nil {
		// The card file is the source of truth; the journal is best effort.
		log.Warn("failed to record review of %s: %v", c.Path(), err)
		return nil
	}
	log.Debug("review recorded: path=%s", c.Path())
	return nil
}

func (s *reviewService) Stats(ctx context.Context, filter models.ReviewFilter) (*models.ReviewStats, error) {
	log := logger.FromContext(ctx)
	if s.repo == nil {
		return nil, errJournalDisabled()
	}
	stats, err := s.repo.Stats(ctx, filter, s.now())
	if err != nil {
		log.Error("failed to aggregate reviews: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return stats, nil
}

func (s *reviewService) History(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	log := logger.FromContext(ctx)
	if s.repo == nil {
		return nil, errJournalDisabled()
	}
	reviews, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list reviews: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return reviews, nil
}

func errJournalDisabled() error {
	return errors.NewBadRequestError("review journal is disabled (set SBX_JOURNAL_ENABLED=true)")
}
