package card

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/models"
)

// ANSI colour codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

const (
	histogramWidth = models.PastQualityLimit
	maxPathLen     = 30
)

// Health describes problems with the card's review history, or "OK".
func (c *Card) Health() string {
	var bad []string
	if c.IsLeech() {
		bad = append(bad, "leech")
	}
	if c.IsLastZero() {
		bad = append(bad, "last quality was zero")
	}
	if len(bad) == 0 {
		return "OK"
	}
	return strings.Join(bad, " & ")
}

// Info returns a multi-line human summary of the card's schedule and history.
func (c *Card) Info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Next Session: %s\n", clock.Format(c.state.NextSession))
	fmt.Fprintf(&b, "Last Session: %s\n", clock.Format(c.state.LastSession))
	fmt.Fprintf(&b, "Repetitions: %d\n", c.state.ActualRepetitions)
	fmt.Fprintf(&b, "Health: %s\n", c.Health())
	b.WriteString("------------------------\n")
	b.WriteString("Past Quality (last 20):\n")
	b.WriteString("------------------------\n")
	b.WriteString(Histogram(c.state.PastQuality))
	b.WriteString("\n")
	return b.String()
}

// Histogram draws qualities as a 6 row chart, one column per review, oldest
// on the left.
func Histogram(qualities []int) string {
	if len(qualities) == 0 {
		return "No information available"
	}
	if len(qualities) > histogramWidth {
		qualities = qualities[len(qualities)-histogramWidth:]
	}

	var rows [models.MaxQuality + 1][histogramWidth]byte
	for q := range rows {
		for i := range rows[q] {
			rows[q][i] = ' '
		}
	}
	for i, q := range qualities {
		if q >= 0 && q <= models.MaxQuality {
			rows[q][i] = '*'
		}
	}

	label := "quality"
	var b strings.Builder
	b.WriteString("q  |\n")
	for q := models.MaxQuality; q >= 0; q-- {
		fmt.Fprintf(&b, "%c %d|%s\n", label[models.MaxQuality+1-q], q, rows[q][:])
	}
	b.WriteString("------------------------\n")
	b.WriteString("rep 1       10        20")
	return b.String()
}

// headline is the first two lines of the front, trimmed.
func (c *Card) headline() string {
	front, err := c.Front()
	if err != nil {
		return ""
	}
	lines := strings.Split(front, "\n")
	if len(lines) > 2 {
		lines = lines[:2]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// String renders the card for listings: headline, last and next session and
// the path.
func (c *Card) String() string {
	return fmt.Sprintf("%s\nlast=%s\nnext=%s\npath=%s",
		c.headline(),
		clock.Format(c.state.LastSession),
		clock.Format(c.state.NextSession),
		c.path)
}

// Formatted is String with ANSI colours. The next session is red when the
// card is due and green otherwise.
func (c *Card) Formatted() string {
	next := colorGreen
	if c.DueNow() {
		next = colorRed
	}
	var b strings.Builder
	b.WriteString(colorYellow + c.headline() + colorReset + "\n")
	b.WriteString(colorCyan + "last" + colorReset + "=" + clock.Format(c.state.LastSession) + "\n")
	b.WriteString(colorCyan + "next" + colorReset + "=" + next + clock.Format(c.state.NextSession) + colorReset + "\n")
	b.WriteString(colorCyan + "path" + colorReset + "=" + c.path)
	return b.String()
}

// ShortPath shortens path for display to at most 30 characters. Intermediate
// directories are cut to their first letter, then the head is dropped.
func ShortPath(path string) string {
	rel := displayPath(path)
	if utf8.RuneCountInString(rel) <= maxPathLen {
		return rel
	}
	base := filepath.Base(rel)
	if utf8.RuneCountInString(base) >= maxPathLen {
		return lastRunes(base, maxPathLen)
	}
	return lastRunes(filepath.Join(shortenDir(filepath.Dir(rel)), base), maxPathLen)
}

func displayPath(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil {
		return path
	}
	return rel
}

func shortenDir(dir string) string {
	parts := strings.Split(dir, string(filepath.Separator))
	last := len(parts) - 1
	for i, p := range parts {
		if i == 0 || i == last || p == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(p)
		parts[i] = string(r)
	}
	return strings.Join(parts, string(filepath.Separator))
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
