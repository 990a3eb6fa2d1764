package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/sbx/internal/db"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	d, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	defer d.Close()

	var count int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)

	_, err = d.Exec(`INSERT INTO reviews (card_path, quality, repetitions, interval_days, easiness, next_session) VALUES ('a.md', 3, 1, 1, 2.36, 0)`)
	assert.NoError(t, err)
}

func TestOpen_RejectsOutOfRangeQuality(t *testing.T) {
	d, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Exec(`INSERT INTO reviews (card_path, quality, repetitions, interval_days, easiness, next_session) VALUES ('a.md', 9, 1, 1, 2.36, 0)`)
	assert.Error(t, err)
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	first, err := db.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := db.Open(path)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)
}
