// Package ctxboundary keeps a user's named life compartments (work,
// personal, family, health, …) separate, detects which one a session is
// currently operating in, and enforces cross-context read policy.
package ctxboundary

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// Engine wraps a store.Storer with context-boundary workflows.
type Engine struct {
	store store.Storer
	log   zerolog.Logger
}

// New creates an Engine bound to s.
func New(s store.Storer, log zerolog.Logger) *Engine {
	return &Engine{store: s, log: log}
}

// Sensitivity closes the set of cross-context leak-guard tiers.
type Sensitivity string

const (
	SensitivityHigh   Sensitivity = "high"
	SensitivityMedium Sensitivity = "medium"
	SensitivityLow    Sensitivity = "low"
)

// sensitiveMediumContexts are the contexts a medium-sensitivity work
// boundary is guarded against leaking into by default.
var sensitiveMediumContexts = map[string]bool{
	"personal": true,
	"family":   true,
	"health":   true,
}

// CanSeeContext reports whether a viewer in viewerContext may read data
// declared in dataContext, given dataContext's own visibility policy.
func CanSeeContext(viewerContext string, dataBoundary *store.ContextBoundary) bool {
	if dataBoundary == nil || viewerContext == dataBoundary.ContextName {
		return true
	}
	return dataBoundary.VisibilityPolicy[viewerContext]
}

// CrossContextAllowed applies the leak-guard tiers on top of CanSeeContext:
// "high" sensitivity blocks every cross-context read regardless of policy;
// "medium" blocks work reading into personal/family/health unless the
// policy explicitly permits it, and every other cross-context read under
// "medium" also follows the policy, so an undeclared pair in either
// direction is blocked; "low" defers entirely to the policy.
func CrossContextAllowed(viewerContext string, dataBoundary *store.ContextBoundary, sensitivity Sensitivity) bool {
	if dataBoundary == nil || viewerContext == dataBoundary.ContextName {
		return true
	}
	switch sensitivity {
	case SensitivityHigh:
		return false
	case SensitivityMedium:
		if viewerContext == "work" && sensitiveMediumContexts[dataBoundary.ContextName] {
			return dataBoundary.VisibilityPolicy[viewerContext]
		}
		return CanSeeContext(viewerContext, dataBoundary)
	default:
		return CanSeeContext(viewerContext, dataBoundary)
	}
}

// DeclareBoundary creates or updates a named context's visibility policy.
func (e *Engine) DeclareBoundary(b *store.ContextBoundary) error {
	if err := e.store.UpsertContextBoundary(b); err != nil {
		return fmt.Errorf("ctxboundary: declare boundary: %w", err)
	}
	return nil
}

// SetActiveContext persists the detected active context for a session.
func (e *Engine) SetActiveContext(sessionID, contextName string, confidence float64, signals string) error {
	a := &store.ActiveContext{
		SessionID:      sessionID,
		CurrentContext: contextName,
		DetectedAt:     time.Now().UnixMilli(),
		Signals:        signals,
		Confidence:     confidence,
	}
	if err := e.store.UpsertActiveContext(a); err != nil {
		return fmt.Errorf("ctxboundary: set active context: %w", err)
	}
	return nil
}

// ActiveContext returns the currently detected context for a session, or
// nil if none has been detected yet.
func (e *Engine) ActiveContext(sessionID string) (*store.ActiveContext, error) {
	a, err := e.store.GetActiveContext(sessionID)
	if err != nil {
		return nil, fmt.Errorf("ctxboundary: active context: %w", err)
	}
	return a, nil
}

// Boundary looks up a declared context by name.
func (e *Engine) Boundary(contextName string) (*store.ContextBoundary, error) {
	b, err := e.store.GetContextBoundary(contextName)
	if err != nil {
		return nil, fmt.Errorf("ctxboundary: boundary: %w", err)
	}
	return b, nil
}
