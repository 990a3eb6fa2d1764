package api

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/russross/blackfriday/v2"
	"github.com/vytor/sbx/internal/card"
	"github.com/vytor/sbx/internal/errors"
)

type cardSummary struct {
	Path        string  `json:"path"`
	Due         bool    `json:"due"`
	Leech       bool    `json:"leech"`
	LastZero    bool    `json:"last_zero"`
	Health      string  `json:"health"`
	NextSession int64   `json:"next_session"`
	LastSession int64   `json:"last_session"`
	Repetitions int     `json:"repetitions"`
	Interval    float64 `json:"interval"`
	Easiness    float64 `json:"easiness"`
	PastQuality []int   `json:"past_quality"`
}

type cardDetail struct {
	cardSummary
	Front     string `json:"front"`
	Back      string `json:"back"`
	FrontHTML string `json:"front_html"`
	BackHTML  string `json:"back_html"`
}

func (s *Server) summarize(c *card.Card) cardSummary {
	st := c.State()
	pastq := st.PastQuality
	if pastq == nil {
		pastq = []int{}
	}
	return cardSummary{
		Path:        s.relative(c.Path()),
		Due:         c.DueNow(),
		Leech:       c.IsLeech(),
		LastZero:    c.IsLastZero(),
		Health:      c.Health(),
		NextSession: st.NextSession,
		LastSession: st.LastSession,
		Repetitions: st.ActualRepetitions,
		Interval:    st.Interval,
		Easiness:    st.Easiness,
		PastQuality: pastq,
	}
}

func (s *Server) detail(c *card.Card) (cardDetail, error) {
	front, err := c.Front()
	if err != nil {
		return cardDetail{}, err
	}
	back, err := c.Back()
	if err != nil {
		return cardDetail{}, err
	}
	return cardDetail{
		cardSummary: s.summarize(c),
		Front:       front,
		Back:        back,
		FrontHTML:   renderMarkdown(front),
		BackHTML:    renderMarkdown(back),
	}, nil
}

// renderMarkdown drops raw HTML from card text and neutralizes links with
// unsafe schemes.
func renderMarkdown(text string) string {
	r := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.Safelink,
	})
	return string(blackfriday.Run([]byte(text), blackfriday.WithRenderer(r)))
}

// resolve maps a slash separated path relative to the root onto the
// filesystem, rejecting anything outside the root.
func (s *Server) resolve(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", errors.NewBadRequestError("card path is required")
	}
	native := filepath.FromSlash(rel)
	if filepath.IsAbs(native) {
		return "", errors.NewBadRequestError("card path must be relative to the card root")
	}
	full := filepath.Join(s.Root, native)
	inside, err := filepath.Rel(s.Root, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", errors.NewBadRequestError("card path escapes the card root")
	}
	return full, nil
}

func (s *Server) relative(path string) string {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func parseBool(raw string, name string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.NewBadRequestError("invalid " + name + ": " + raw)
	}
	return v, nil
}
