package retrieval

import (
	"context"
	"fmt"
)

// searchVector runs the cosine-similarity primitive over message embeddings
// via the injected VectorSearcher backend.
func (e *Engine) searchVector(ctx context.Context, query string) ([]Result, error) {
	hits, err := e.vectors.SearchSimilar(ctx, query, perPrimitiveLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieval: vector search: %w", err)
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			Type:      ResultMessage,
			ID:        h.MessageID,
			Highlight: h.Snippet,
		})
	}
	return results, nil
}
