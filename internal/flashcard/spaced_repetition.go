package flashcard

import (
	"fmt"
	"time"

	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/models"
)

// Algorithm schedules a card after a review. Mark mutates state in place and
// expects quality to be already validated.
type Algorithm interface {
	ID() string
	Mark(state *models.CardState, quality int, now time.Time)
}

// SM2 is the SuperMemo 2 variant used by default.
type SM2 struct{}

var _ Algorithm = SM2{}

// ID returns the header tag of the algorithm.
func (SM2) ID() string { return models.DefaultAlgorithm }

// Mark applies one SM-2 review to state. Quality outside 0..5 panics.
func (SM2) Mark(state *models.CardState, quality int, now time.Time) {
	if quality < 0 || quality > models.MaxQuality {
		panic(fmt.Sprintf("flashcard: quality %d out of range", quality))
	}

	q := float64(quality)
	ef := state.Easiness - 0.8 + 0.28*q - 0.02*q*q
	if ef < models.MinEasiness {
		ef = models.MinEasiness
	}

	if quality < models.PassThreshold {
		state.Repetitions = 0
	} else {
		state.Repetitions++
	}

	switch {
	case state.Repetitions <= 1:
		state.Interval = 1
	case state.Repetitions == 2:
		state.Interval = 6
	default:
		state.Interval = min(state.Interval*ef, clock.MaxDays)
	}
	state.Easiness = ef
	state.RecordQuality(quality)

	ts := now.Unix()
	state.NextSession = clock.InDays(max(state.LastSession, ts), clock.WholeDays(state.Interval))
	state.LastSession = ts
	state.ActualRepetitions++
}

var registry = map[string]Algorithm{
	models.DefaultAlgorithm: SM2{},
}

// ForID returns the algorithm registered for a header tag. Unknown tags fall
// back to SM-2; the tag itself is left on the card untouched.
func ForID(id string) Algorithm {
	if alg, ok := registry[id]; ok {
		return alg
	}
	return SM2{}
}
