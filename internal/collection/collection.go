// Package collection turns a directory of card files into a filtered study
// queue.
package collection

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/vytor/sbx/internal/card"
	"github.com/vytor/sbx/internal/errors"
	"github.com/vytor/sbx/internal/logger"
)

// Pattern matches card file names.
const Pattern = "*.md"

// Filter selects cards. All conditions must hold.
type Filter struct {
	// IncludeUnscheduled keeps cards that are not due yet.
	IncludeUnscheduled bool
	// LeechOnly keeps only cards whose last three reviews failed.
	LeechOnly bool
	// ZeroOnly keeps only cards whose last review was rated 0.
	ZeroOnly bool
}

// Match reports whether c passes the filter.
func (f Filter) Match(c *card.Card) bool {
	if !f.IncludeUnscheduled && !c.DueNow() {
		return false
	}
	if f.LeechOnly && !c.IsLeech() {
		return false
	}
	if f.ZeroOnly && !c.IsLastZero() {
		return false
	}
	return true
}

// Collection is a lazily scanned set of cards under a root directory.
type Collection struct {
	root      string
	recursive bool
	filter    Filter
	cardOpts  []card.Option
	log       *logger.Logger
}

// Option configures a Collection.
type Option func(*Collection)

// WithCardOptions passes options to every card.Open call.
func WithCardOptions(opts ...card.Option) Option {
	return func(c *Collection) {
		c.cardOpts = append(c.cardOpts, opts...)
	}
}

// WithLogger sets the logger used to report skipped files.
func WithLogger(l *logger.Logger) Option {
	return func(c *Collection) {
		c.log = l
	}
}

// New creates a collection over root. Nothing is read until Cards is ranged
// over.
func New(root string, recursive bool, filter Filter, opts ...Option) *Collection {
	c := &Collection{
		root:      root,
		recursive: recursive,
		filter:    filter,
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithPrefix("collection")
	return c
}

// Root returns the scanned directory.
func (c *Collection) Root() string { return c.root }

// Cards yields every matching card, in lexical path order. Files whose header
// cannot be decoded are skipped. Any other error is yielded once and ends the
// sequence.
func (c *Collection) Cards() iter.Seq2[*card.Card, error] {
	return func(yield func(*card.Card, error) bool) {
		paths, err := c.candidates()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, path := range paths {
			crd, err := card.Open(path, c.cardOpts...)
			if err != nil {
				if errors.IsInvalidCard(err) {
					c.log.Debug("Skipping %s: %v", path, err)
					continue
				}
				yield(nil, err)
				return
			}
			if !c.filter.Match(crd) {
				continue
			}
			if !yield(crd, nil) {
				return
			}
		}
	}
}

// Collect drains Cards into a slice.
func (c *Collection) Collect() ([]*card.Card, error) {
	var cards []*card.Card
	for crd, err := range c.Cards() {
		if err != nil {
			return nil, err
		}
		cards = append(cards, crd)
	}
	return cards, nil
}

func (c *Collection) candidates() ([]string, error) {
	var paths []string
	if c.recursive {
		if err := filepath.WalkDir(c.root, c.visit(&paths)); err != nil {
			return nil, errors.NewIOError("scan", c.root, err)
		}
	} else {
		entries, err := os.ReadDir(c.root)
		if err != nil {
			return nil, errors.NewIOError("scan", c.root, err)
		}
		for _, e := range entries {
			path := filepath.Join(c.root, e.Name())
			if isCard(path) {
				paths = append(paths, path)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// visit collects card paths during a recursive scan. Unreadable entries below
// the root are logged and skipped.
func (c *Collection) visit(paths *[]string) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == c.root {
				return err
			}
			c.log.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if isCard(path) {
			*paths = append(*paths, path)
		}
		return nil
	}
}

// isCard reports whether path names a regular *.md file. Symlinks are
// followed.
func isCard(path string) bool {
	if ok, _ := filepath.Match(Pattern, filepath.Base(path)); !ok {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
