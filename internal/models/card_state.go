package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vytor/sbx/internal/clock"
)

const (
	// PassThreshold is the lowest quality that counts as a successful recall.
	PassThreshold = 3
	// MaxQuality is the highest quality a review can be rated with.
	MaxQuality = 5
	// PastQualityLimit caps the quality history kept per card.
	PastQualityLimit = 20
	// LeechRun is how many consecutive failures make a card a leech.
	LeechRun = 3

	MinEasiness     = 1.3
	DefaultEasiness = 2.5
	DefaultInterval = 1.0

	DefaultAlgorithm = "sm2"
	FormatVersion    = "v1"
)

// Metadata keys in the card header.
const (
	keyRepetitions = "a"
	keyInterval    = "b"
	keyEasiness    = "c"
	keyNext        = "next"
	keyLast        = "last"
	keyPastQuality = "pastq"
	keyActualReps  = "reps"
	keyAlgorithm   = "algo"
	keyVersion     = "sbx"
)

// ErrMissingKey is returned when a required header key is absent.
var ErrMissingKey = errors.New("missing required key")

// CardState is the persisted scheduling record of one card.
type CardState struct {
	Repetitions       int
	Interval          float64
	Easiness          float64
	LastSession       int64
	NextSession       int64
	PastQuality       []int
	ActualRepetitions int
	Algorithm         string
	Version           string

	// Extra holds header keys this version does not know about. They are
	// written back untouched.
	Extra map[string]json.RawMessage
}

// NewCardState returns the state of a card that was never reviewed.
func NewCardState() CardState {
	return CardState{
		Repetitions: 0,
		Interval:    DefaultInterval,
		Easiness:    DefaultEasiness,
		LastSession: clock.Unset,
		NextSession: clock.Unset,
		PastQuality: []int{},
		Algorithm:   DefaultAlgorithm,
		Version:     FormatVersion,
	}
}

// Reset drops all scheduling state. ActualRepetitions, the algorithm tag and
// the format version survive.
func (s *CardState) Reset() {
	fresh := NewCardState()
	fresh.ActualRepetitions = s.ActualRepetitions
	if s.Algorithm != "" {
		fresh.Algorithm = s.Algorithm
	}
	if s.Version != "" {
		fresh.Version = s.Version
	}
	*s = fresh
}

// Clone returns a deep copy.
func (s CardState) Clone() CardState {
	out := s
	out.PastQuality = append([]int{}, s.PastQuality...)
	if s.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// RecordQuality appends q to the history, dropping the oldest entries past
// PastQualityLimit.
func (s *CardState) RecordQuality(q int) {
	s.PastQuality = append(s.PastQuality, q)
	if n := len(s.PastQuality); n > PastQualityLimit {
		s.PastQuality = append([]int{}, s.PastQuality[n-PastQualityLimit:]...)
	}
}

// DueAt reports whether the card should be studied at now. A card reviewed
// earlier on the same UTC day is never due again that day.
func (s CardState) DueAt(now time.Time) bool {
	if s.LastSession != clock.Unset && clock.IsToday(s.LastSession, now) {
		return false
	}
	if s.NextSession == clock.Unset || s.ActualRepetitions == 0 {
		return true
	}
	return clock.IsTodayOrEarlier(s.NextSession, now)
}

// IsLeech reports whether the last LeechRun reviews all failed.
func (s CardState) IsLeech() bool {
	n := len(s.PastQuality)
	if n < LeechRun {
		return false
	}
	for _, q := range s.PastQuality[n-LeechRun:] {
		if q >= PassThreshold {
			return false
		}
	}
	return true
}

// IsLastZero reports whether the most recent review was rated 0.
func (s CardState) IsLastZero() bool {
	n := len(s.PastQuality)
	return n > 0 && s.PastQuality[n-1] == 0
}

// PackQualities encodes qualities as one digit per entry.
func PackQualities(qs []int) string {
	var sb strings.Builder
	sb.Grow(len(qs))
	for _, q := range qs {
		sb.WriteByte(byte('0' + q))
	}
	return sb.String()
}

// UnpackQualities decodes a digit string written by PackQualities.
func UnpackQualities(packed string) ([]int, error) {
	qs := make([]int, 0, len(packed))
	for i, r := range packed {
		if r < '0' || r > '0'+MaxQuality {
			return nil, fmt.Errorf("invalid quality %q at position %d", r, i)
		}
		qs = append(qs, int(r-'0'))
	}
	return qs, nil
}

// MarshalJSON writes the typed fields over the preserved extra keys.
func (s CardState) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+9)
	for k, v := range s.Extra {
		out[k] = v
	}
	out[keyRepetitions] = s.Repetitions
	out[keyInterval] = s.Interval
	out[keyEasiness] = s.Easiness
	out[keyNext] = s.NextSession
	out[keyLast] = s.LastSession
	out[keyPastQuality] = PackQualities(s.PastQuality)
	out[keyActualReps] = s.ActualRepetitions
	out[keyAlgorithm] = s.Algorithm
	out[keyVersion] = s.Version
	return json.Marshal(out)
}

// UnmarshalJSON decodes a header object. next, last, pastq, reps, algo and
// sbx are required; a, b and c fall back to fresh-card values.
func (s *CardState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("header is not a JSON object")
	}

	st := NewCardState()
	var packed string
	fields := []struct {
		key      string
		dst      any
		required bool
	}{
		{keyRepetitions, (*wholeNumber)(&st.Repetitions), false},
		{keyInterval, &st.Interval, false},
		{keyEasiness, &st.Easiness, false},
		{keyNext, &st.NextSession, true},
		{keyLast, &st.LastSession, true},
		{keyPastQuality, &packed, true},
		{keyActualReps, (*wholeNumber)(&st.ActualRepetitions), true},
		{keyAlgorithm, &st.Algorithm, true},
		{keyVersion, &st.Version, true},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			if f.required {
				return fmt.Errorf("%w: %q", ErrMissingKey, f.key)
			}
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("key %q: %w", f.key, err)
		}
		delete(raw, f.key)
	}

	qs, err := UnpackQualities(packed)
	if err != nil {
		return fmt.Errorf("key %q: %w", keyPastQuality, err)
	}
	st.PastQuality = qs
	if n := len(qs); n > PastQualityLimit {
		st.PastQuality = qs[n-PastQualityLimit:]
	}
	if len(raw) > 0 {
		st.Extra = raw
	}
	st.normalize()

	*s = st
	return nil
}

// wholeNumber accepts any JSON number and truncates it, so hand-edited
// values like 3.0 still load.
type wholeNumber int

func (n *wholeNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("number %s out of range", data)
	}
	*n = wholeNumber(math.Trunc(f))
	return nil
}

// normalize pulls hand-edited values back into range.
func (s *CardState) normalize() {
	if s.Repetitions < 0 {
		s.Repetitions = 0
	}
	if s.ActualRepetitions < 0 {
		s.ActualRepetitions = 0
	}
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	if s.Easiness < MinEasiness {
		s.Easiness = MinEasiness
	}
}
