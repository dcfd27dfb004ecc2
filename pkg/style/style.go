// Package style learns and adapts the user's own communication style from
// how they edit AI-drafted messages, with guardrails against over-fitting
// to a single emotional outburst and against drifting into manipulative
// patterns.
package style

import (
	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// Engine wraps a store.Storer with style-adaptation workflows.
type Engine struct {
	store store.Storer
	log   zerolog.Logger
}

// New creates an Engine bound to s.
func New(s store.Storer, log zerolog.Logger) *Engine {
	return &Engine{store: s, log: log}
}
