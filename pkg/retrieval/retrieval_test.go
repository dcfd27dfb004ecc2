package retrieval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.Storer) {
	t.Helper()
	s, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return New(s, nil, zerolog.Nop()), s
}

func TestFuseDeduplicatesAndSumsScores(t *testing.T) {
	listA := []Result{{Type: ResultMessage, ID: "m1", Highlight: "first"}}
	listB := []Result{{Type: ResultMessage, ID: "m1", Highlight: "second"}, {Type: ResultMessage, ID: "m2", Highlight: "only in B"}}

	fused := Fuse(listA, listB)
	if len(fused) != 2 {
		t.Fatalf("expected 2 deduplicated results, got %d", len(fused))
	}
	if fused[0].ID != "m1" {
		t.Fatalf("expected m1 (appears in both lists) to rank first, got %s", fused[0].ID)
	}
	if fused[0].Highlight != "first" {
		t.Errorf("expected the earliest-appearing highlight to survive, got %q", fused[0].Highlight)
	}
}

func TestFuseSortsByFusedScoreDescending(t *testing.T) {
	listA := []Result{
		{Type: ResultMessage, ID: "low", Highlight: "low"},
	}
	listB := []Result{
		{Type: ResultMessage, ID: "high", Highlight: "high"},
	}
	// Put "high" at rank 0 of both lists so it strictly dominates "low".
	fused := Fuse(listB, listB, listA)
	if fused[0].ID != "high" {
		t.Fatalf("expected higher-ranked-in-more-lists result first, got %s", fused[0].ID)
	}
}

func TestFilterVisibleKeepsUnknownContext(t *testing.T) {
	_, s := newTestEngine(t)
	results := []Result{{Type: ResultEntity, ID: "e1"}}
	visible := FilterVisible(s, results, "work", SensitivityMedium)
	if len(visible) != 1 {
		t.Fatalf("expected results with no declared context to remain visible")
	}
}

func TestFilterVisibleBlocksUndeclaredPolicyUnderMediumSensitivity(t *testing.T) {
	_, s := newTestEngine(t)
	if err := s.UpsertContextBoundary(&store.ContextBoundary{ContextName: "family", VisibilityPolicy: map[string]bool{}}); err != nil {
		t.Fatalf("UpsertContextBoundary failed: %v", err)
	}
	results := []Result{{Type: ResultEntity, ID: "e1", ContextName: "family"}}
	visible := FilterVisible(s, results, "work", SensitivityMedium)
	if len(visible) != 0 {
		t.Fatalf("expected work viewer to be blocked from family context under medium sensitivity")
	}
}

func TestFilterVisibleHonorsExplicitPolicy(t *testing.T) {
	_, s := newTestEngine(t)
	if err := s.UpsertContextBoundary(&store.ContextBoundary{ContextName: "family", VisibilityPolicy: map[string]bool{"work": true}}); err != nil {
		t.Fatalf("UpsertContextBoundary failed: %v", err)
	}
	results := []Result{{Type: ResultEntity, ID: "e1", ContextName: "family"}}
	visible := FilterVisible(s, results, "work", SensitivityMedium)
	if len(visible) != 1 {
		t.Fatalf("expected explicit policy to permit work viewer into family context")
	}
}

func TestParsePossessiveExtractsPossessorAndRelation(t *testing.T) {
	possessor, relation, ok := parsePossessive("Alice's boss")
	if !ok {
		t.Fatalf("expected possessive pattern to parse")
	}
	if possessor != "Alice" || relation != "boss" {
		t.Errorf("got possessor=%q relation=%q", possessor, relation)
	}
}

func TestParsePossessiveRejectsNonPossessive(t *testing.T) {
	if _, _, ok := parsePossessive("find my notes about Alice"); ok {
		t.Fatalf("expected a non-possessive query not to parse")
	}
}

func seedEntity(t *testing.T, s store.Storer, name string, entityType store.EntityType) *store.Entity {
	t.Helper()
	e := &store.Entity{ID: uuid.NewString(), CanonicalName: name, EntityType: entityType}
	if err := s.UpsertEntity(e); err != nil {
		t.Fatalf("UpsertEntity failed: %v", err)
	}
	return e
}

func TestSearchGraphWalksPossessiveToConnectedEntity(t *testing.T) {
	e, s := newTestEngine(t)

	alice := seedEntity(t, s, "Alice Chen", store.EntityPerson)
	carla := seedEntity(t, s, "Carla Nguyen", store.EntityPerson)

	if err := s.UpsertEdge(&store.GraphEdge{
		ID: uuid.NewString(), FromEntityID: alice.ID, ToEntityID: carla.ID,
		EdgeType: store.EdgeReportsTo, Strength: 1,
	}); err != nil {
		t.Fatalf("UpsertEdge failed: %v", err)
	}

	results, err := e.searchGraph("Alice's boss")
	if err != nil {
		t.Fatalf("searchGraph failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != carla.ID {
		t.Fatalf("expected graph walk to find Carla as Alice's boss, got %+v", results)
	}
}

func TestSearchGraphFallsBackToDirectMentionWhenNotPossessive(t *testing.T) {
	e, s := newTestEngine(t)
	seedEntity(t, s, "Alice Chen", store.EntityPerson)

	results, err := e.searchGraph("anything from Alice Chen lately?")
	if err != nil {
		t.Fatalf("searchGraph failed: %v", err)
	}
	if len(results) != 1 || results[0].Highlight != "Alice Chen" {
		t.Fatalf("expected stopword-stripped query to match Alice Chen directly, got %+v", results)
	}
}

func TestSearchGraphDirectMentionIgnoresWeakMatches(t *testing.T) {
	e, s := newTestEngine(t)
	seedEntity(t, s, "Alice Chen", store.EntityPerson)

	results, err := e.searchGraph("what is the weather like today")
	if err != nil {
		t.Fatalf("searchGraph failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no match for an unrelated query, got %+v", results)
	}
}

func TestSearchMessagesFTSFindsMatch(t *testing.T) {
	e, s := newTestEngine(t)
	if err := s.InsertMessage(&store.Message{
		ID: uuid.NewString(), SourceType: "email", SourceID: "src1",
		Subject: "quarterly planning doc", BodyText: "let's align on Q3 goals",
		Timestamp: 1,
	}); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	results, err := e.searchMessagesFTS("quarterly")
	if err != nil {
		t.Fatalf("searchMessagesFTS failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 FTS hit, got %d", len(results))
	}
}

type fakeVectorSearcher struct {
	hits []VectorHit
}

func (f fakeVectorSearcher) SearchSimilar(ctx context.Context, query string, limit int) ([]VectorHit, error) {
	return f.hits, nil
}

func TestSearchFusesAcrossPrimitivesConcurrently(t *testing.T) {
	s, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := s.InsertMessage(&store.Message{
		ID: "msg1", SourceType: "email", SourceID: "src1",
		Subject: "roadmap", BodyText: "roadmap review", Timestamp: 1,
	}); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	e := New(s, fakeVectorSearcher{hits: []VectorHit{{MessageID: "msg1", Score: 0.9, Snippet: "roadmap review"}}}, zerolog.Nop())

	results, err := e.Search(context.Background(), Query{Text: "roadmap", Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one fused result")
	}
	if results[0].ID != "msg1" {
		t.Fatalf("expected msg1 (present in both FTS and vector primitives) to rank first, got %+v", results)
	}
}
