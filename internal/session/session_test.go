package session_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/sbx/internal/card"
	"github.com/vytor/sbx/internal/errors"
	"github.com/vytor/sbx/internal/models"
	"github.com/vytor/sbx/internal/services"
	"github.com/vytor/sbx/internal/session"
	"github.com/vytor/sbx/internal/testutil"
)

func keepOrder([]*card.Card) {}

func openCards(t *testing.T, names ...string) []*card.Card {
	t.Helper()
	dir := t.TempDir()
	var cards []*card.Card
	for _, name := range names {
		path := testutil.WriteCard(t, dir, name, testutil.DueState(), "front of "+name, "back of "+name)
		c, err := card.Open(path, card.WithClock(testutil.Clock))
		require.NoError(t, err)
		cards = append(cards, c)
	}
	return cards
}

func run(t *testing.T, cards []*card.Card, svc services.ReviewService, input string) (session.Summary, string, error) {
	t.Helper()
	var out bytes.Buffer
	s := session.New(cards, svc, strings.NewReader(input), &out,
		session.WithShuffle(keepOrder),
		session.WithClock(testutil.Clock))
	sum, err := s.Run(context.Background())
	return sum, out.String(), err
}

func reload(t *testing.T, c *card.Card) models.CardState {
	t.Helper()
	again, err := card.Open(c.Path())
	require.NoError(t, err)
	return again.State()
}

func TestRun_StudiesEveryCard(t *testing.T) {
	cards := openCards(t, "a.md", "b.md")
	svc := services.NewReviewService(nil, testutil.Clock)

	sum, out, err := run(t, cards, svc, "\n4\n\n2\n")
	require.NoError(t, err)

	assert.Equal(t, session.Summary{Total: 2, Reviewed: 2, Failed: 1}, sum)
	assert.Contains(t, out, "[Flashcard Front]\nfront of a.md")
	assert.Contains(t, out, "[Flashcard Back]\nback of b.md")
	assert.Contains(t, out, "(2/2)")
	assert.Contains(t, out, "You have completed all the cards for today.")

	assert.Equal(t, []int{4, 4, 4}, reload(t, cards[0]).PastQuality)
	assert.Equal(t, []int{4, 4, 2}, reload(t, cards[1]).PastQuality)
	assert.Equal(t, 0, reload(t, cards[1]).Repetitions)
}

func TestRun_BackHiddenUntilRevealed(t *testing.T) {
	cards := openCards(t, "a.md")
	svc := services.NewReviewService(nil, testutil.Clock)

	_, out, err := run(t, cards, svc, "q\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "back of a.md")
}

func TestRun_QuitKeepsEarlierReviews(t *testing.T) {
	cards := openCards(t, "a.md", "b.md")
	svc := services.NewReviewService(nil, testutil.Clock)

	sum, out, err := run(t, cards, svc, "\n5\nq\n")
	require.NoError(t, err)

	assert.True(t, sum.Quit)
	assert.Equal(t, 1, sum.Reviewed)
	assert.Contains(t, out, "Reviewed 1 of 2 cards")
	assert.Equal(t, 3, reload(t, cards[0]).ActualRepetitions)
	assert.Equal(t, 2, reload(t, cards[1]).ActualRepetitions)
}

func TestRun_EndOfInputQuits(t *testing.T) {
	cards := openCards(t, "a.md")
	svc := services.NewReviewService(nil, testutil.Clock)

	sum, _, err := run(t, cards, svc, "\n")
	require.NoError(t, err)
	assert.True(t, sum.Quit)
	assert.Equal(t, 0, sum.Reviewed)
	assert.Equal(t, 2, reload(t, cards[0]).ActualRepetitions)
}

func TestRun_RejectsBadRatings(t *testing.T) {
	cards := openCards(t, "a.md")
	svc := services.NewReviewService(nil, testutil.Clock)

	sum, out, err := run(t, cards, svc, "\n9\nabc\n-1\n3\n")
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Reviewed)
	assert.Equal(t, 3, strings.Count(out, "Please enter a number between 0 and 5."))
	assert.Equal(t, []int{4, 4, 3}, reload(t, cards[0]).PastQuality)
}

func TestRun_HelpAndInfo(t *testing.T) {
	cards := openCards(t, "a.md")
	svc := services.NewReviewService(nil, testutil.Clock)

	_, out, err := run(t, cards, svc, "h\ni\nwhat\n\nh\n4\n")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "I think I have memorised this, very easy."))
	assert.Contains(t, out, "Repetitions: 2")
	assert.Contains(t, out, `Unknown command "what"`)
}

func TestRun_Empty(t *testing.T) {
	svc := services.NewReviewService(nil, testutil.Clock)

	_, _, err := run(t, nil, svc, "")
	assert.ErrorIs(t, err, session.ErrNothingToStudy)
}

func TestRun_ShuffleWorksOnCopy(t *testing.T) {
	cards := openCards(t, "a.md", "b.md")
	svc := services.NewReviewService(nil, testutil.Clock)
	var shuffled []string

	s := session.New(cards, svc, strings.NewReader("q\n"), &bytes.Buffer{},
		session.WithShuffle(func(cs []*card.Card) {
			cs[0], cs[1] = cs[1], cs[0]
			for _, c := range cs {
				shuffled = append(shuffled, filepath.Base(c.Path()))
			}
		}))
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"b.md", "a.md"}, shuffled)
	assert.Equal(t, "a.md", filepath.Base(cards[0].Path()), "caller slice is not reordered")
}

// flakyService fails the first save and then succeeds.
type flakyService struct {
	services.ReviewService
	reviews  int
	persists int
}

func (f *flakyService) Review(ctx context.Context, c *card.Card, quality int, d time.Duration) error {
	f.reviews++
	if err := c.Mark(quality); err != nil {
		return err
	}
	return errors.NewIOError("write", c.Path(), os.ErrPermission)
}

func (f *flakyService) Persist(ctx context.Context, c *card.Card, quality int, d time.Duration) error {
	f.persists++
	return c.Save()
}

func TestRun_RetriesFailedSave(t *testing.T) {
	cards := openCards(t, "a.md")
	svc := &flakyService{}

	sum, out, err := run(t, cards, svc, "\n4\ny\n")
	require.NoError(t, err)

	assert.Equal(t, 1, svc.reviews)
	assert.Equal(t, 1, svc.persists)
	assert.Equal(t, 1, sum.Reviewed)
	assert.Contains(t, out, "Failed to update flash card")
	assert.Equal(t, 3, reload(t, cards[0]).ActualRepetitions)
}

func TestRun_DeclinedRetryCountsUnsaved(t *testing.T) {
	cards := openCards(t, "a.md", "b.md")
	svc := &flakyService{}

	sum, _, err := run(t, cards, svc, "\n4\nn\nq\n")
	require.NoError(t, err)

	assert.Equal(t, 0, svc.persists)
	assert.Equal(t, 1, sum.Unsaved)
	assert.Equal(t, 0, sum.Reviewed)
	assert.Equal(t, 2, reload(t, cards[0]).ActualRepetitions)
}
