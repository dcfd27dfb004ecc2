package vectorindex

import (
	"context"
	"fmt"

	"github.com/buildingjoshbetter/kestrel/pkg/retrieval"
)

// embedder is satisfied by pkg/llm.EmbeddingClient; declared locally so
// this package doesn't import pkg/llm for a single method.
type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const defaultSearchLimit = 10

// RetrievalSearcher adapts an Index plus an embedder to pkg/retrieval's
// VectorSearcher interface, which takes query text rather than an
// already-embedded vector.
type RetrievalSearcher struct {
	index    Index
	embedder embedder
}

// NewRetrievalSearcher builds a RetrievalSearcher over index using
// embedder to turn query text into vectors. The result satisfies
// retrieval.VectorSearcher, so it plugs directly into retrieval.New.
func NewRetrievalSearcher(index Index, embedder embedder) *RetrievalSearcher {
	return &RetrievalSearcher{index: index, embedder: embedder}
}

// SearchSimilar embeds query and returns its nearest message matches,
// converting cosine distance (0 best) to a similarity score (1 best).
func (r *RetrievalSearcher) SearchSimilar(ctx context.Context, query string, limit int) ([]retrieval.VectorHit, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: embed query: %w", err)
	}

	matches, err := r.index.Search(ctx, vec, limit, Filters{SourceType: "message"})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}

	hits := make([]retrieval.VectorHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, retrieval.VectorHit{
			MessageID: m.SourceID,
			Score:     1 - float64(m.Distance)/2,
			Snippet:   m.Text,
		})
	}
	return hits, nil
}
