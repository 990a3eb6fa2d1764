package api

import (
	"context"
	"sync"

	"github.com/vytor/sbx/internal/card"
	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/collection"
	"github.com/vytor/sbx/internal/services"
)

// Pinger reports whether the review journal is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server exposes the cards under Root over HTTP.
type Server struct {
	Root      string
	Reviews   services.ReviewService
	Journal   Pinger // nil when the journal is disabled
	Now       clock.Func
	StatsDays int

	// Reviews rewrite card files; one at a time.
	mu sync.Mutex
}

func (s *Server) now() clock.Func {
	if s.Now == nil {
		return clock.System
	}
	return s.Now
}

func (s *Server) cardOptions() []card.Option {
	return []card.Option{card.WithClock(s.now())}
}

func (s *Server) collection(recursive bool, filter collection.Filter) *collection.Collection {
	return collection.New(s.Root, recursive, filter, collection.WithCardOptions(s.cardOptions()...))
}
