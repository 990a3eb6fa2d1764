// Package session runs an interactive, line oriented study session over a set
// of cards.
package session

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/vytor/sbx/internal/card"
	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/errors"
	"github.com/vytor/sbx/internal/logger"
	"github.com/vytor/sbx/internal/models"
	"github.com/vytor/sbx/internal/services"
)

// Title heads every card shown.
const Title = "---- SBX - Flashcards ----"

// NothingToStudy is shown when a study command selects no cards.
const NothingToStudy = "Nothing to study now, try again later. Or use -i option."

// ErrNothingToStudy is returned by Run when there are no cards.
var ErrNothingToStudy = stderrors.New("nothing to study")

const helpText = `Study
-----------
Enter          - Reveal the back of the card
i              - Display card stat/meta data
h              - Show this help
q              - Quit (progress so far is saved)

Voting (after the back is revealed)
-----------
0              - I have no idea what this is?
1              - I have a vague memory
2              - I don't remember answer fully
3              - I got the answer correct (about 80%)
4              - I got the answer correct (100%)
5              - I think I have memorised this, very easy.`

// Summary counts what happened during a session.
type Summary struct {
	Total    int
	Reviewed int
	Failed   int
	Unsaved  int
	Quit     bool
}

// Session walks the user through cards one at a time.
type Session struct {
	cards   []*card.Card
	svc     services.ReviewService
	in      *bufio.Scanner
	out     io.Writer
	now     clock.Func
	shuffle func([]*card.Card)
	log     *logger.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used to time answers.
func WithClock(now clock.Func) Option {
	return func(s *Session) { s.now = now }
}

// WithShuffle replaces the random ordering of cards.
func WithShuffle(fn func([]*card.Card)) Option {
	return func(s *Session) { s.shuffle = fn }
}

// WithLogger sets the session logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New creates a session over cards. The slice is copied before shuffling.
func New(cards []*card.Card, svc services.ReviewService, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		cards: append([]*card.Card(nil), cards...),
		svc:   svc,
		in:    bufio.NewScanner(in),
		out:   out,
		now:   clock.System,
		shuffle: func(cs []*card.Card) {
			rand.Shuffle(len(cs), func(i, j int) { cs[i], cs[j] = cs[j], cs[i] })
		},
		log: logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithPrefix("session")
	return s
}

// Run studies every card once in random order. It returns when the cards are
// done, the user quits or input ends.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Total: len(s.cards)}
	if len(s.cards) == 0 {
		return sum, ErrNothingToStudy
	}
	s.shuffle(s.cards)

	for i, c := range s.cards {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		quit, err := s.study(ctx, c, i+1, &sum)
		if err != nil {
			return sum, err
		}
		if quit {
			sum.Quit = true
			s.printf("\nBye! Reviewed %d of %d cards.\n", sum.Reviewed, sum.Total)
			return sum, nil
		}
	}
	s.printf("\nYou have completed all the cards for today.\n")
	return sum, nil
}

func (s *Session) study(ctx context.Context, c *card.Card, pos int, sum *Summary) (bool, error) {
	front, err := c.Front()
	if err != nil {
		s.log.Warn("skipping unreadable card %s: %v", c.Path(), err)
		s.printf("\nCould not read %s, skipping.\n", c.Path())
		return false, nil
	}
	back, err := c.Back()
	if err != nil {
		s.log.Warn("skipping unreadable card %s: %v", c.Path(), err)
		s.printf("\nCould not read %s, skipping.\n", c.Path())
		return false, nil
	}

	s.printf("\n%s\n[%s] (%d/%d)\n\n[Flashcard Front]\n%s\n", Title, card.ShortPath(c.Path()), pos, sum.Total, front)
	shown := s.now()

	for revealed := false; !revealed; {
		line, ok := s.prompt("\nPress Enter to reveal (h help, i info, q quit): ")
		if !ok {
			return true, nil
		}
		switch strings.ToLower(line) {
		case "", "r", "s", "show":
			revealed = true
		case "h", "help", "?":
			s.printf("%s\n", helpText)
		case "i", "info":
			s.printf("%s", c.Info())
		case "q", "quit", "exit":
			return true, nil
		default:
			s.printf("Unknown command %q, press h for help.\n", line)
		}
	}

	s.printf("\n[Flashcard Back]\n%s\n", back)

	for {
		line, ok := s.prompt("\nHow good were you? [0-5] (h help, i info, q quit): ")
		if !ok {
			return true, nil
		}
		switch strings.ToLower(line) {
		case "h", "help", "?":
			s.printf("%s\n", helpText)
			continue
		case "i", "info":
			s.printf("%s", c.Info())
			continue
		case "q", "quit", "exit":
			return true, nil
		}

		quality, err := strconv.Atoi(line)
		if err != nil || quality < 0 || quality > models.MaxQuality {
			s.printf("Please enter a number between 0 and 5.\n")
			continue
		}
		return s.rate(ctx, c, quality, s.now().Sub(shown), sum)
	}
}

// rate marks and saves the card. Save failures are offered for retry; the
// mark itself is never applied twice.
func (s *Session) rate(ctx context.Context, c *card.Card, quality int, elapsed time.Duration, sum *Summary) (bool, error) {
	err := s.svc.Review(ctx, c, quality, elapsed)
	for err != nil {
		if !errors.IsIO(err) {
			return false, err
		}
		s.printf("Failed to update flash card\nFile = %q\n", c.Path())
		line, ok := s.prompt("Retry saving? [Y/n]: ")
		if !ok {
			sum.Unsaved++
			return true, nil
		}
		if a := strings.ToLower(line); a == "n" || a == "no" {
			sum.Unsaved++
			return false, nil
		}
		err = s.svc.Persist(ctx, c, quality, elapsed)
	}

	sum.Reviewed++
	if quality < models.PassThreshold {
		sum.Failed++
	}
	return false, nil
}

func (s *Session) prompt(msg string) (string, bool) {
	s.printf("%s", msg)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
