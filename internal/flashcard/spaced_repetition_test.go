package flashcard_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/flashcard"
	"github.com/vytor/sbx/internal/models"
)

var start = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

func TestSM2_Scenario345(t *testing.T) {
	st := models.NewCardState()
	alg := flashcard.SM2{}

	alg.Mark(&st, 3, start)
	assert.Equal(t, 1, st.Repetitions)
	assert.Equal(t, 1.0, st.Interval)
	assert.Equal(t, start.Unix(), st.LastSession)
	assert.Equal(t, clock.InDays(start.Unix(), 1), st.NextSession)

	later := start.Add(time.Hour)
	alg.Mark(&st, 4, later)
	assert.Equal(t, 2, st.Repetitions)
	assert.Equal(t, 6.0, st.Interval)
	assert.Equal(t, later.Unix(), st.LastSession)

	alg.Mark(&st, 5, later.Add(time.Hour))
	assert.Equal(t, 3, st.Repetitions)
	assert.InDelta(t, 6*st.Easiness, st.Interval, 1e-9)
	assert.Equal(t, []int{3, 4, 5}, st.PastQuality)
	assert.Equal(t, 3, st.ActualRepetitions)
}

func TestSM2_EasinessUpdate(t *testing.T) {
	tests := []struct {
		quality int
		want    float64
	}{
		{5, 2.6},
		{4, 2.5},
		{3, 2.36},
		{2, 2.18},
		{1, 1.96},
		{0, 1.7},
	}
	for _, tt := range tests {
		st := models.NewCardState()
		flashcard.SM2{}.Mark(&st, tt.quality, start)
		assert.InDelta(t, tt.want, st.Easiness, 1e-9, "quality %d", tt.quality)
	}
}

func TestSM2_EasinessFloor(t *testing.T) {
	st := models.NewCardState()
	for i := 0; i < 10; i++ {
		flashcard.SM2{}.Mark(&st, 0, start.Add(time.Duration(i)*24*time.Hour))
	}
	assert.Equal(t, models.MinEasiness, st.Easiness)
}

func TestSM2_FloorAppliesToIntervalMultiplier(t *testing.T) {
	st := models.NewCardState()
	st.Repetitions = 2
	st.Interval = 6
	st.Easiness = 1.3

	flashcard.SM2{}.Mark(&st, 3, start)

	// 1.3 - 0.14 would be 1.16 before the floor.
	assert.Equal(t, 1.3, st.Easiness)
	assert.InDelta(t, 7.8, st.Interval, 1e-9)
	assert.Equal(t, clock.InDays(start.Unix(), 7), st.NextSession)
}

func TestSM2_MonotonicGrowthOnSuccess(t *testing.T) {
	for _, seq := range [][]int{
		{3, 3, 3, 3, 3, 3, 3, 3},
		{3, 4, 4, 5, 5, 5, 5},
		{5, 5, 5, 5, 5, 5},
		{4, 4, 4, 4, 4, 4, 4},
	} {
		st := models.NewCardState()
		now := start
		prevGap := int64(-1)
		for _, q := range seq {
			flashcard.SM2{}.Mark(&st, q, now)
			gap := st.NextSession - st.LastSession
			assert.Greater(t, gap, prevGap, "sequence %v", seq)
			prevGap = gap
			now = time.Unix(st.NextSession, 0).UTC()
		}
	}
}

func TestSM2_LongStreakStaysInRange(t *testing.T) {
	st := models.NewCardState()
	now := start
	prevGap := int64(0)
	for i := range 60 {
		// Marked daily regardless of the schedule, as `study -i` allows.
		flashcard.SM2{}.Mark(&st, 5, now)

		require.Greater(t, st.NextSession, st.LastSession, "mark %d", i+1)
		gap := st.NextSession - st.LastSession
		require.GreaterOrEqual(t, gap, prevGap, "mark %d", i+1)
		require.False(t, clock.IsTodayOrEarlier(st.NextSession, now), "mark %d", i+1)
		prevGap = gap
		now = now.AddDate(0, 0, 1)
	}

	assert.Equal(t, float64(clock.MaxDays), st.Interval)
	assert.Equal(t, int64(clock.MaxDays)*clock.DaySeconds, prevGap)
	_, err := json.Marshal(st)
	assert.NoError(t, err)
}

func TestSM2_FailResetsRepetitions(t *testing.T) {
	st := models.NewCardState()
	now := start
	for _, q := range []int{5, 5, 5, 4} {
		flashcard.SM2{}.Mark(&st, q, now)
		now = time.Unix(st.NextSession, 0)
	}
	require.Equal(t, 4, st.Repetitions)
	require.Greater(t, st.Interval, 6.0)

	flashcard.SM2{}.Mark(&st, 2, now)
	assert.Equal(t, 0, st.Repetitions)
	assert.Equal(t, 1.0, st.Interval)

	flashcard.SM2{}.Mark(&st, 4, now.Add(24*time.Hour))
	assert.Equal(t, 1, st.Repetitions)
	assert.Equal(t, 1.0, st.Interval)
	assert.Equal(t, 6, st.ActualRepetitions)
}

func TestSM2_NextSessionCountsFromLaterOfLastAndNow(t *testing.T) {
	st := models.NewCardState()
	future := start.Add(72 * time.Hour).Unix()
	st.LastSession = future

	flashcard.SM2{}.Mark(&st, 4, start)

	assert.Equal(t, clock.InDays(future, 1), st.NextSession)
	assert.Equal(t, start.Unix(), st.LastSession)
}

func TestSM2_HistoryCappedAtTwenty(t *testing.T) {
	st := models.NewCardState()
	for i := 0; i < 30; i++ {
		flashcard.SM2{}.Mark(&st, i%6, start)
	}
	assert.Len(t, st.PastQuality, models.PastQualityLimit)
	assert.Equal(t, 30, st.ActualRepetitions)
	assert.Equal(t, 29%6, st.PastQuality[19])
}

func TestSM2_PanicsOutOfRange(t *testing.T) {
	st := models.NewCardState()
	assert.Panics(t, func() { flashcard.SM2{}.Mark(&st, 6, start) })
	assert.Panics(t, func() { flashcard.SM2{}.Mark(&st, -1, start) })
	assert.Equal(t, models.NewCardState(), st)
}

func TestForID(t *testing.T) {
	assert.Equal(t, "sm2", flashcard.ForID("sm2").ID())
	assert.Equal(t, "sm2", flashcard.ForID("fsrs").ID())
}
