// Package card reads and writes flashcard files.
//
// A card file is line oriented UTF-8 text:
//
//	<!-- | {"a":0,"b":1,"c":2.5,"next":-1,...} | -->
//	<!-- [[FRONT]] -->
//	front text
//	<!-- [[BACK]] -->
//	back text
//
// The header line is decoded when the card is opened. Front and back are read
// on first access.
package card

import (
	"bufio"
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"github.com/natefinch/atomic"
	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/errors"
	"github.com/vytor/sbx/internal/flashcard"
	"github.com/vytor/sbx/internal/models"
)

const (
	headerOpen  = "<!-- | "
	headerClose = " | -->"
	frontMarker = "<!-- [[FRONT]] -->"
	backMarker  = "<!-- [[BACK]] -->"

	frontTag = "[[FRONT]]"
	backTag  = "[[BACK]]"

	// FileMode is applied to card files created by Save.
	FileMode fs.FileMode = 0o644

	maxLineSize = 1024 * 1024
)

// Card is one flashcard file. A Card is not safe for concurrent use.
type Card struct {
	path   string
	front  string
	back   string
	state  models.CardState
	loaded bool

	algo flashcard.Algorithm
	now  clock.Func
}

// Option configures a Card at Open.
type Option func(*Card)

// WithAlgorithm overrides the algorithm picked from the header's algo tag.
func WithAlgorithm(a flashcard.Algorithm) Option {
	return func(c *Card) {
		c.algo = a
	}
}

// WithClock sets the time source used by Mark and DueNow.
func WithClock(now clock.Func) Option {
	return func(c *Card) {
		c.now = now
	}
}

// Open reads the header of the card at path. A missing file yields a fresh
// card with default state; a header that cannot be decoded yields an
// INVALID_CARD error.
func Open(path string, opts ...Option) (*Card, error) {
	c := &Card{
		path:  path,
		state: models.NewCardState(),
		now:   clock.System,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.loadHeader(); err != nil {
		return nil, err
	}
	if c.algo == nil {
		c.algo = flashcard.ForID(c.state.Algorithm)
	}
	return c, nil
}

// Path returns the file path the card was opened with.
func (c *Card) Path() string { return c.path }

// State returns a copy of the scheduling state.
func (c *Card) State() models.CardState { return c.state.Clone() }

// Loaded reports whether front and back have been read.
func (c *Card) Loaded() bool { return c.loaded }

// Front returns the front text, reading the body if needed.
func (c *Card) Front() (string, error) {
	if err := c.ensureLoaded(); err != nil {
		return "", err
	}
	return c.front, nil
}

// Back returns the back text, reading the body if needed.
func (c *Card) Back() (string, error) {
	if err := c.ensureLoaded(); err != nil {
		return "", err
	}
	return c.back, nil
}

// SetFront replaces the front text. Empty text is rejected.
func (c *Card) SetFront(text string) error {
	if text == "" {
		return errors.NewValidationError("front", "cannot be empty")
	}
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.front = text
	return nil
}

// SetBack replaces the back text. Empty text is rejected.
func (c *Card) SetBack(text string) error {
	if text == "" {
		return errors.NewValidationError("back", "cannot be empty")
	}
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.back = text
	return nil
}

// Mark records a review with quality 0..5 and reschedules the card. The
// change is in memory only until Save.
func (c *Card) Mark(quality int) error {
	if quality < 0 || quality > models.MaxQuality {
		return errors.NewValidationError("quality", fmt.Sprintf("must be between 0 and %d, got %d", models.MaxQuality, quality))
	}
	c.algo.Mark(&c.state, quality, c.now())
	return nil
}

// Reset discards scheduling state. Front and back are kept.
func (c *Card) Reset() {
	c.state.Reset()
}

// DueNow reports whether the card should be studied now.
func (c *Card) DueNow() bool { return c.state.DueAt(c.now()) }

// IsLeech reports whether the last three reviews all failed.
func (c *Card) IsLeech() bool { return c.state.IsLeech() }

// IsLastZero reports whether the last review was rated 0.
func (c *Card) IsLastZero() bool { return c.state.IsLastZero() }

// Save writes the whole card, replacing the file atomically. The body is
// loaded first so saving a card whose body was never read keeps it intact.
func (c *Card) Save() error {
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	data, err := c.encode()
	if err != nil {
		return errors.NewInternalError(err)
	}

	_, statErr := os.Stat(c.path)
	created := stderrors.Is(statErr, fs.ErrNotExist)

	if err := atomic.WriteFile(c.path, bytes.NewReader(data)); err != nil {
		return errors.NewIOError("write", c.path, err)
	}
	if created {
		if err := os.Chmod(c.path, FileMode); err != nil {
			return errors.NewIOError("chmod", c.path, err)
		}
	}
	return nil
}

func (c *Card) encode() ([]byte, error) {
	header, err := json.Marshal(c.state)
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	// '|' only occurs inside JSON strings, where the escape is equivalent.
	header = bytes.ReplaceAll(header, []byte("|"), []byte(`\u007c`))

	var buf bytes.Buffer
	buf.WriteString(headerOpen)
	buf.Write(header)
	buf.WriteString(headerClose)
	buf.WriteByte('\n')
	buf.WriteString(frontMarker)
	buf.WriteByte('\n')
	buf.WriteString(c.front)
	buf.WriteByte('\n')
	buf.WriteString(backMarker)
	buf.WriteByte('\n')
	buf.WriteString(c.back)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (c *Card) loadHeader() error {
	f, err := os.Open(c.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			c.loaded = true
			return nil
		}
		return errors.NewIOError("open", c.path, err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.NewIOError("read", c.path, err)
	}
	state, err := decodeHeader(line)
	if err != nil {
		return errors.NewInvalidCardError(c.path, err)
	}
	c.state = state
	return nil
}

func decodeHeader(line string) (models.CardState, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 3 {
		return models.CardState{}, fmt.Errorf("header has %d '|' separated parts, want 3", len(parts))
	}
	var st models.CardState
	if err := json.Unmarshal([]byte(strings.TrimSpace(parts[1])), &st); err != nil {
		return models.CardState{}, fmt.Errorf("decode header: %w", err)
	}
	return st, nil
}

func (c *Card) ensureLoaded() error {
	if c.loaded {
		return nil
	}
	f, err := os.Open(c.path)
	if err != nil {
		return errors.NewIOError("open", c.path, err)
	}
	defer f.Close()

	front, back, err := parseBody(f)
	if err != nil {
		return errors.NewIOError("read", c.path, err)
	}
	c.front, c.back = front, back
	c.loaded = true
	return nil
}

type section int

const (
	preamble section = iota
	inFront
	inBack
)

// parseBody skips the header line, drops everything before the front marker
// and splits the rest at the first back marker after it. Lines are right
// trimmed.
func parseBody(r io.Reader) (string, string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var front, back []string
	mode := preamble
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		line := sc.Text()
		switch mode {
		case preamble:
			if strings.Contains(line, frontTag) {
				mode = inFront
			}
		case inFront:
			if strings.Contains(line, backTag) {
				mode = inBack
				continue
			}
			front = append(front, strings.TrimRightFunc(line, unicode.IsSpace))
		case inBack:
			// A later front marker is kept as back text.
			back = append(back, strings.TrimRightFunc(line, unicode.IsSpace))
		}
	}
	if err := sc.Err(); err != nil {
		return "", "", err
	}
	return strings.Join(front, "\n"), strings.Join(back, "\n"), nil
}
