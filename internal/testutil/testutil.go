package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vytor/sbx/internal/db"
	"github.com/vytor/sbx/internal/models"
)

// Now is the fixed instant used by tests that pin the clock.
var Now = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

// Clock returns Now.
func Clock() time.Time { return Now }

// NewTestDB creates an in-memory journal database with all migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	return d
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// WriteCard writes a card file with the given state under dir and returns its
// path. Parent directories are created.
func WriteCard(t *testing.T, dir, name string, state models.CardState, front, back string) string {
	t.Helper()
	header, err := json.Marshal(state)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := fmt.Sprintf("<!-- | %s | -->\n<!-- [[FRONT]] -->\n%s\n<!-- [[BACK]] -->\n%s\n", header, front, back)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteFile writes raw content under dir and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// DueState is a card that was last reviewed days ago and is due at Now.
func DueState() models.CardState {
	st := models.NewCardState()
	st.Repetitions = 2
	st.Interval = 6
	st.LastSession = Now.Add(-7 * 24 * time.Hour).Unix()
	st.NextSession = Now.Add(-24 * time.Hour).Unix()
	st.PastQuality = []int{4, 4}
	st.ActualRepetitions = 2
	return st
}

// ScheduledState is a card that is not due until after Now.
func ScheduledState() models.CardState {
	st := DueState()
	st.NextSession = Now.Add(5 * 24 * time.Hour).Unix()
	return st
}

// StudiedTodayState is a card that was already reviewed on Now's day.
func StudiedTodayState() models.CardState {
	st := DueState()
	st.LastSession = Now.Add(-time.Hour).Unix()
	return st
}

// WithHistory returns st with the given quality history.
func WithHistory(st models.CardState, qualities ...int) models.CardState {
	st.PastQuality = append([]int{}, qualities...)
	st.ActualRepetitions = len(qualities)
	return st
}
