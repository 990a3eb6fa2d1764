package repository

import (
	"context"
	"time"

	"github.com/vytor/sbx/internal/models"
)

// ReviewRepository handles review journal access
type ReviewRepository interface {
	Insert(ctx context.Context, review models.Review) (int64, error)
	List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error)
	Count(ctx context.Context, filter models.ReviewFilter) (int, error)
	// Stats aggregates reviews matching filter. now anchors the
	// "last 7 days" window.
	Stats(ctx context.Context, filter models.ReviewFilter, now time.Time) (*models.ReviewStats, error)
}
