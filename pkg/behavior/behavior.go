// Package behavior mines recurring patterns from the event log (time-of-day
// habits, sequences, day-of-week routines, trigger-response pairs), builds
// the daily-rhythm matrix, and generates forward-looking predictions.
package behavior

import (
	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// Engine wraps a store.Storer with behavioral-mining workflows.
type Engine struct {
	store store.Storer
	log   zerolog.Logger
}

// New creates an Engine bound to s.
func New(s store.Storer, log zerolog.Logger) *Engine {
	return &Engine{store: s, log: log}
}
