package vectorindex

import (
	"context"
	"testing"
)

type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return f.vectors[text], nil
}

func TestRetrievalSearcherEmbedsQueryAndConvertsDistanceToScore(t *testing.T) {
	idx := NewMemory()
	ctx := context.Background()
	if _, err := idx.Store(ctx, Record{SourceType: "message", SourceID: "m1", Vector: []float32{1, 0}, Text: "roadmap review"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	embedder := fakeEmbedder{vectors: map[string][]float32{"roadmap": {1, 0}}}
	searcher := NewRetrievalSearcher(idx, embedder)

	hits, err := searcher.SearchSimilar(ctx, "roadmap", 5)
	if err != nil {
		t.Fatalf("SearchSimilar failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].MessageID != "m1" {
		t.Errorf("expected message id m1, got %q", hits[0].MessageID)
	}
	if hits[0].Score != 1 {
		t.Errorf("expected a perfect similarity score for an identical vector, got %v", hits[0].Score)
	}
	if hits[0].Snippet != "roadmap review" {
		t.Errorf("expected the stored text as a snippet, got %q", hits[0].Snippet)
	}
}

func TestRetrievalSearcherDefaultsLimitWhenNonPositive(t *testing.T) {
	idx := NewMemory()
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		if _, err := idx.Store(ctx, Record{SourceType: "message", SourceID: string(rune('a' + i)), Vector: []float32{1, 0}}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	embedder := fakeEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	searcher := NewRetrievalSearcher(idx, embedder)

	hits, err := searcher.SearchSimilar(ctx, "q", 0)
	if err != nil {
		t.Fatalf("SearchSimilar failed: %v", err)
	}
	if len(hits) != defaultSearchLimit {
		t.Errorf("expected the default search limit of %d, got %d", defaultSearchLimit, len(hits))
	}
}
