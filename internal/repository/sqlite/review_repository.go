package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/sbx/internal/logger"
	"github.com/vytor/sbx/internal/models"
	"github.com/vytor/sbx/internal/repository"
)

const (
	defaultListLimit  = 200
	defaultStruggling = 5
)

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository implementation
func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Insert(ctx context.Context, rv models.Review) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("inserting review: path=%s, quality=%d", rv.CardPath, rv.Quality)

	reviewedAt := rv.ReviewedAt
	if reviewedAt.IsZero() {
		reviewedAt = time.Now()
	}

	query, args, err := sqlBuilder.Insert("reviews").
		Columns("card_path", "quality", "repetitions", "interval_days", "easiness", "next_session", "duration_seconds", "reviewed_at").
		Values(rv.CardPath, rv.Quality, rv.Repetitions, rv.Interval, rv.Easiness, rv.NextSession, rv.DurationSeconds, dbTime(reviewedAt)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert review: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get review id: %v", err)
		return 0, err
	}
	log.Debug("review inserted: id=%d", id)
	return id, nil
}

func (r *reviewRepository) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("listing reviews: prefix=%q, limit=%d", filter.PathPrefix, filter.Limit)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query, args, err := applyFilter(sqlBuilder.Select(
		"id", "card_path", "quality", "repetitions", "interval_days", "easiness",
		"next_session", "duration_seconds", "reviewed_at",
	).From("reviews"), filter).
		OrderBy("reviewed_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list reviews: %v", err)
		return nil, err
	}
	defer rows.Close()
	var reviews []models.Review
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.CardPath, &rv.Quality, &rv.Repetitions, &rv.Interval, &rv.Easiness, &rv.NextSession, &rv.DurationSeconds, &rv.ReviewedAt); err != nil {
			log.Error("failed to scan review row: %v", err)
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	log.Debug("found %d reviews", len(reviews))
	return reviews, rows.Err()
}

func (r *reviewRepository) Count(ctx context.Context, filter models.ReviewFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	query, args, err := applyFilter(sqlBuilder.Select("COUNT(*)").From("reviews"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Error("failed to count reviews: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *reviewRepository) Stats(ctx context.Context, filter models.ReviewFilter, now time.Time) (*models.ReviewStats, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("aggregating reviews: prefix=%q", filter.PathPrefix)

	var stats models.ReviewStats

	query, args, err := applyFilter(sqlBuilder.Select(
		"COUNT(*)",
		"COALESCE(AVG(quality), 0)",
		"COALESCE(AVG(duration_seconds), 0)",
		"COUNT(DISTINCT card_path)",
	).From("reviews"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.TotalReviews, &stats.AverageQuality, &stats.AvgDuration, &stats.DistinctCards); err != nil {
		log.Error("failed to aggregate reviews: %v", err)
		return nil, err
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	recent := filter
	if recent.Since == nil || recent.Since.Before(weekAgo) {
		recent.Since = &weekAgo
	}
	stats.ReviewsLast7Days, err = r.Count(ctx, recent)
	if err != nil {
		return nil, err
	}

	if err := r.countByQuality(ctx, filter, &stats); err != nil {
		return nil, err
	}

	stats.Struggling, err = r.struggling(ctx, filter)
	if err != nil {
		return nil, err
	}

	log.Debug("aggregated %d reviews over %d cards", stats.TotalReviews, stats.DistinctCards)
	return &stats, nil
}

func (r *reviewRepository) countByQuality(ctx context.Context, filter models.ReviewFilter, stats *models.ReviewStats) error {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	query, args, err := applyFilter(sqlBuilder.Select("quality", "COUNT(*)").From("reviews"), filter).
		GroupBy("quality").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query quality histogram: %v", err)
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var q, n int
		if err := rows.Scan(&q, &n); err != nil {
			log.Error("failed to scan quality row: %v", err)
			return err
		}
		if q >= 0 && q <= models.MaxQuality {
			stats.CountByQuality[q] = n
		}
	}
	return rows.Err()
}

func (r *reviewRepository) struggling(ctx context.Context, filter models.ReviewFilter) ([]models.CardFailures, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultStruggling
	}

	query, args, err := applyFilter(sqlBuilder.Select("card_path").
		Column(squirrel.Expr("SUM(CASE WHEN quality < ? THEN 1 ELSE 0 END) AS failures", models.PassThreshold)).
		Column("COUNT(*)").
		From("reviews"), filter).
		GroupBy("card_path").
		Having("failures > 0").
		OrderBy("failures DESC", "card_path ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query struggling cards: %v", err)
		return nil, err
	}
	defer rows.Close()
	var out []models.CardFailures
	for rows.Next() {
		var cf models.CardFailures
		if err := rows.Scan(&cf.CardPath, &cf.Failures, &cf.Reviews); err != nil {
			log.Error("failed to scan struggling row: %v", err)
			return nil, err
		}
		out = append(out, cf)
	}
	return out, rows.Err()
}
