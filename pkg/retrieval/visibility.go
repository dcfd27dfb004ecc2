package retrieval

import (
	"github.com/buildingjoshbetter/kestrel/internal/store"
	"github.com/buildingjoshbetter/kestrel/pkg/ctxboundary"
)

// Sensitivity re-exports the ctxboundary leak-guard tier for callers that
// only import pkg/retrieval.
type Sensitivity = ctxboundary.Sensitivity

const (
	SensitivityHigh   = ctxboundary.SensitivityHigh
	SensitivityMedium = ctxboundary.SensitivityMedium
	SensitivityLow    = ctxboundary.SensitivityLow
)

// FilterVisible drops results whose declared context the viewer isn't
// allowed to cross into. A result with no known ContextName is left in:
// per the boundary model, undeclared context means visible.
func FilterVisible(s store.Storer, results []Result, viewerContext string, sensitivity Sensitivity) []Result {
	if viewerContext == "" {
		return results
	}

	boundaryCache := map[string]*store.ContextBoundary{}
	lookup := func(name string) *store.ContextBoundary {
		if b, ok := boundaryCache[name]; ok {
			return b
		}
		b, _ := s.GetContextBoundary(name)
		boundaryCache[name] = b
		return b
	}

	visible := make([]Result, 0, len(results))
	for _, r := range results {
		if r.ContextName == "" {
			visible = append(visible, r)
			continue
		}
		boundary := lookup(r.ContextName)
		if boundary == nil {
			visible = append(visible, r)
			continue
		}
		if ctxboundary.CrossContextAllowed(viewerContext, boundary, sensitivity) {
			visible = append(visible, r)
		}
	}
	return visible
}
