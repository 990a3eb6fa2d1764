package models

import "time"

// Review is one journal entry written after a card was marked and saved.
type Review struct {
	ID              int64     `json:"id"`
	CardPath        string    `json:"card_path"`
	Quality         int       `json:"quality"`
	Repetitions     int       `json:"repetitions"`
	Interval        float64   `json:"interval"`
	Easiness        float64   `json:"easiness"`
	NextSession     int64     `json:"next_session"`
	DurationSeconds float64   `json:"duration_seconds"`
	ReviewedAt      time.Time `json:"reviewed_at"`
}

// ReviewFilter narrows journal queries. Zero values mean "no constraint".
type ReviewFilter struct {
	PathPrefix string
	Since      *time.Time
	MaxQuality *int
	Limit      int
}

// CardFailures counts failed reviews of a single card.
type CardFailures struct {
	CardPath string `json:"card_path"`
	Failures int    `json:"failures"`
	Reviews  int    `json:"reviews"`
}

// ReviewStats aggregates the journal.
type ReviewStats struct {
	TotalReviews     int                 `json:"total_reviews"`
	ReviewsLast7Days int                 `json:"reviews_last_7_days"`
	DistinctCards    int                 `json:"distinct_cards"`
	AverageQuality   float64             `json:"average_quality"`
	AvgDuration      float64             `json:"avg_duration_seconds"`
	CountByQuality   [MaxQuality + 1]int `json:"count_by_quality"`
	Struggling       []CardFailures      `json:"struggling"`
}

// ReviewFromState builds the journal entry for a card that was just marked.
func ReviewFromState(path string, quality int, st CardState, duration time.Duration, at time.Time) Review {
	return Review{
		CardPath:        path,
		Quality:         quality,
		Repetitions:     st.Repetitions,
		Interval:        st.Interval,
		Easiness:        st.Easiness,
		NextSession:     st.NextSession,
		DurationSeconds: duration.Seconds(),
		ReviewedAt:      at,
	}
}
