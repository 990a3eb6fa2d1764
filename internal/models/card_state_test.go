package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/models"
)

var now = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func TestNewCardState_Defaults(t *testing.T) {
	st := models.NewCardState()

	assert.Equal(t, 0, st.Repetitions)
	assert.Equal(t, 1.0, st.Interval)
	assert.Equal(t, 2.5, st.Easiness)
	assert.Equal(t, clock.Unset, st.LastSession)
	assert.Equal(t, clock.Unset, st.NextSession)
	assert.Empty(t, st.PastQuality)
	assert.Equal(t, "sm2", st.Algorithm)
	assert.Equal(t, "v1", st.Version)
}

func TestUnmarshal_ReferenceHeader(t *testing.T) {
	header := `{"a":0,"b":1,"c":2.5,"next":-1,"last":-1,"pastq":"","reps":0,"algo":"sm2","sbx":"v1"}`

	var st models.CardState
	require.NoError(t, json.Unmarshal([]byte(header), &st))

	assert.Equal(t, models.NewCardState(), st)
	assert.True(t, st.DueAt(now))
}

func TestUnmarshal_MissingRequiredKey(t *testing.T) {
	for _, key := range []string{"next", "last", "pastq", "reps", "algo", "sbx"} {
		t.Run(key, func(t *testing.T) {
			full := map[string]any{"next": -1, "last": -1, "pastq": "", "reps": 0, "algo": "sm2", "sbx": "v1"}
			delete(full, key)
			data, err := json.Marshal(full)
			require.NoError(t, err)

			var st models.CardState
			err = json.Unmarshal(data, &st)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrMissingKey)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestUnmarshal_AlgorithmKeysOptional(t *testing.T) {
	var st models.CardState
	require.NoError(t, json.Unmarshal([]byte(`{"next":-1,"last":-1,"pastq":"12","reps":2,"algo":"sm2","sbx":"v1"}`), &st))

	assert.Equal(t, 0, st.Repetitions)
	assert.Equal(t, 1.0, st.Interval)
	assert.Equal(t, 2.5, st.Easiness)
	assert.Equal(t, []int{1, 2}, st.PastQuality)
	assert.Equal(t, 2, st.ActualRepetitions)
}

func TestUnmarshal_Rejects(t *testing.T) {
	tests := map[string]string{
		"not json":        `{"next":`,
		"array":           `[1,2,3]`,
		"null":            `null`,
		"quality too big": `{"next":-1,"last":-1,"pastq":"126","reps":3,"algo":"sm2","sbx":"v1"}`,
		"quality letter":  `{"next":-1,"last":-1,"pastq":"1x","reps":2,"algo":"sm2","sbx":"v1"}`,
		"wrong type":      `{"next":"soon","last":-1,"pastq":"","reps":0,"algo":"sm2","sbx":"v1"}`,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			var st models.CardState
			assert.Error(t, json.Unmarshal([]byte(header), &st))
		})
	}
}

func TestUnmarshal_NormalizesHandEdits(t *testing.T) {
	var st models.CardState
	require.NoError(t, json.Unmarshal([]byte(`{"a":-2,"b":0,"c":0.5,"next":-1,"last":-1,"pastq":"","reps":-1,"algo":"sm2","sbx":"v1"}`), &st))

	assert.Equal(t, 0, st.Repetitions)
	assert.Equal(t, 1.0, st.Interval)
	assert.Equal(t, 1.3, st.Easiness)
	assert.Equal(t, 0, st.ActualRepetitions)
}

func TestUnmarshal_TruncatesFractionalCounts(t *testing.T) {
	var st models.CardState
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.0,"b":6,"c":2.5,"next":-1,"last":-1,"pastq":"4","reps":3.7,"algo":"sm2","sbx":"v1"}`), &st))

	assert.Equal(t, 1, st.Repetitions)
	assert.Equal(t, 3, st.ActualRepetitions)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"one","next":-1,"last":-1,"pastq":"","reps":0,"algo":"sm2","sbx":"v1"}`), &st))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1e30,"next":-1,"last":-1,"pastq":"","reps":0,"algo":"sm2","sbx":"v1"}`), &st))
}

func TestRoundTrip_PreservesExtraKeys(t *testing.T) {
	in := `{"a":3,"b":15.6,"c":2.6,"next":1709900000,"last":1709600000,"pastq":"345","reps":7,"algo":"sm2","sbx":"v1","fsrs":{"s":1.5,"d":[1,2]},"note":"keep me"}`

	var st models.CardState
	require.NoError(t, json.Unmarshal([]byte(in), &st))
	require.Len(t, st.Extra, 2)

	out, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))

	var again models.CardState
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, st, again)
}

func TestUnmarshal_KeepsOnlyLastTwentyQualities(t *testing.T) {
	header := `{"next":-1,"last":-1,"pastq":"0000011111222223333344","reps":22,"algo":"sm2","sbx":"v1"}`

	var st models.CardState
	require.NoError(t, json.Unmarshal([]byte(header), &st))

	require.Len(t, st.PastQuality, models.PastQualityLimit)
	assert.Equal(t, 0, st.PastQuality[0])
	assert.Equal(t, 4, st.PastQuality[19])
}

func TestRecordQuality_DropsOldestFirst(t *testing.T) {
	st := models.NewCardState()
	for i := 0; i < 45; i++ {
		st.RecordQuality(i % 6)
		assert.LessOrEqual(t, len(st.PastQuality), models.PastQualityLimit)
	}
	// Entries 25..44 survive.
	assert.Equal(t, 25%6, st.PastQuality[0])
	assert.Equal(t, 44%6, st.PastQuality[19])
}

func TestReset_KeepsActualRepetitions(t *testing.T) {
	st := models.NewCardState()
	st.Repetitions = 4
	st.Interval = 40
	st.Easiness = 1.9
	st.LastSession = now.Unix()
	st.NextSession = now.Unix() + 86400
	st.PastQuality = []int{5, 5, 1}
	st.ActualRepetitions = 12
	st.Extra = map[string]json.RawMessage{"x": json.RawMessage(`1`)}

	st.Reset()

	expected := models.NewCardState()
	expected.ActualRepetitions = 12
	assert.Equal(t, expected, st)
}

func TestIsLeech(t *testing.T) {
	tests := []struct {
		name string
		past []int
		want bool
	}{
		{"empty", nil, false},
		{"two failures", []int{0, 1}, false},
		{"three failures", []int{0, 1, 2}, true},
		{"failures after pass", []int{5, 2, 2, 0}, true},
		{"pass at end", []int{0, 1, 2, 3}, false},
		{"pass in window", []int{0, 0, 4, 0, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := models.NewCardState()
			st.PastQuality = tt.past
			assert.Equal(t, tt.want, st.IsLeech())
		})
	}
}

func TestIsLastZero(t *testing.T) {
	st := models.NewCardState()
	assert.False(t, st.IsLastZero())

	st.PastQuality = []int{0, 3}
	assert.False(t, st.IsLastZero())

	st.PastQuality = []int{3, 0}
	assert.True(t, st.IsLastZero())
}

func TestDueAt(t *testing.T) {
	day := int64(86400)
	tests := []struct {
		name string
		last int64
		next int64
		reps int
		want bool
	}{
		{"never reviewed", clock.Unset, clock.Unset, 0, true},
		{"reviewed today, next in past", now.Unix() - 60, now.Unix() - day, 3, false},
		{"reviewed today, never scheduled", now.Unix() - 60, clock.Unset, 0, false},
		{"next is today", now.Unix() - 6*day, now.Unix() + 3600, 2, true},
		{"next was yesterday", now.Unix() - 6*day, now.Unix() - day, 2, true},
		{"next is tomorrow", now.Unix() - 6*day, now.Unix() + day, 2, false},
		{"no recorded reviews", now.Unix() - 6*day, now.Unix() + 9*day, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := models.NewCardState()
			st.LastSession = tt.last
			st.NextSession = tt.next
			st.ActualRepetitions = tt.reps
			assert.Equal(t, tt.want, st.DueAt(now))
		})
	}
}

func TestPackQualities(t *testing.T) {
	assert.Equal(t, "", models.PackQualities(nil))
	assert.Equal(t, "05123", models.PackQualities([]int{0, 5, 1, 2, 3}))

	qs, err := models.UnpackQualities("05123")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5, 1, 2, 3}, qs)
}

func TestClone_IsDeep(t *testing.T) {
	st := models.NewCardState()
	st.PastQuality = []int{1, 2}
	st.Extra = map[string]json.RawMessage{"k": json.RawMessage(`"v"`)}

	cp := st.Clone()
	cp.PastQuality[0] = 5
	cp.Extra["k"][1] = 'X'

	assert.Equal(t, 1, st.PastQuality[0])
	assert.Equal(t, `"v"`, string(st.Extra["k"]))
}
