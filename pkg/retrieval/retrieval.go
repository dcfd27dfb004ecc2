// Package retrieval fuses three independent search primitives — full-text,
// vector, and graph-walk — into a single ranked result list, then filters
// the fused list by the viewer's active context boundary.
package retrieval

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// ResultType closes the set of entities a retrieval Result can point at.
type ResultType string

const (
	ResultMessage   ResultType = "message"
	ResultEntity    ResultType = "entity"
	ResultAssertion ResultType = "assertion"
)

// Result is one fused, deduplicated hit.
type Result struct {
	Type       ResultType
	ID         string
	Highlight  string
	FusedScore float64

	// ContextName is the best-known context this result belongs to, used
	// only for visibility filtering; empty means "unknown", which the
	// filter treats as visible.
	ContextName string
}

// VectorSearcher is implemented by the embedding/vector index backend.
// Retrieval depends only on this interface so it can be built and tested
// before a concrete vector index exists.
type VectorSearcher interface {
	SearchSimilar(ctx context.Context, query string, limit int) ([]VectorHit, error)
}

// VectorHit is one nearest-neighbor match from a VectorSearcher.
type VectorHit struct {
	MessageID string
	Score     float64 // cosine similarity, higher is better
	Snippet   string
}

// Engine runs the three search primitives and fuses their output.
type Engine struct {
	store   store.Storer
	vectors VectorSearcher
	log     zerolog.Logger
}

// New creates an Engine. vectors may be nil, in which case the vector
// primitive is skipped and fusion runs over FTS and graph-walk alone.
func New(s store.Storer, vectors VectorSearcher, log zerolog.Logger) *Engine {
	return &Engine{store: s, vectors: vectors, log: log}
}

const perPrimitiveLimit = 20

// Query is a single retrieval request.
type Query struct {
	Text          string
	ViewerContext string
	Sensitivity   Sensitivity
	Limit         int
}

// Search launches every primitive concurrently, fuses their rankings with
// Reciprocal Rank Fusion, and applies visibility filtering. Primitives that
// error are logged and treated as empty rather than failing the whole
// search, since a partial result set beats none.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	var (
		wg                                   sync.WaitGroup
		ftsMessages, ftsEntities, ftsAsserts []Result
		vectorHits                           []Result
		graphHits                            []Result
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		r, err := e.searchMessagesFTS(q.Text)
		if err != nil {
			e.log.Warn().Err(err).Msg("retrieval: message FTS failed")
			return
		}
		ftsMessages = r
	}()
	go func() {
		defer wg.Done()
		entities, asserts, err := e.searchEntitiesAndAssertions(q.Text)
		if err != nil {
			e.log.Warn().Err(err).Msg("retrieval: entity/assertion search failed")
			return
		}
		ftsEntities, ftsAsserts = entities, asserts
	}()
	go func() {
		defer wg.Done()
		if e.vectors == nil {
			return
		}
		r, err := e.searchVector(ctx, q.Text)
		if err != nil {
			e.log.Warn().Err(err).Msg("retrieval: vector search failed")
			return
		}
		vectorHits = r
	}()
	go func() {
		defer wg.Done()
		r, err := e.searchGraph(q.Text)
		if err != nil {
			e.log.Warn().Err(err).Msg("retrieval: graph walk failed")
			return
		}
		graphHits = r
	}()
	wg.Wait()

	fused := Fuse(ftsMessages, ftsEntities, ftsAsserts, vectorHits, graphHits)
	visible := FilterVisible(e.store, fused, q.ViewerContext, q.Sensitivity)

	limit := q.Limit
	if limit <= 0 || limit > len(visible) {
		limit = len(visible)
	}
	return visible[:limit], nil
}
