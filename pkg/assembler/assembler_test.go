package assembler

import (
	"strings"
	"testing"
	"time"

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
	return New(s, zerolog.Nop()), s
}

func TestAssembleGathersFullBundle(t *testing.T) {
	e, s := newTestEngine(t)
	now := time.Now().UnixMilli()

	alice := &store.Entity{ID: uuid.NewString(), CanonicalName: "Alice Chen", EntityType: store.EntityPerson, TotalMentions: 3}
	bob := &store.Entity{ID: uuid.NewString(), CanonicalName: "Bob Ruiz", EntityType: store.EntityPerson}
	if err := s.UpsertEntity(alice); err != nil {
		t.Fatalf("UpsertEntity alice: %v", err)
	}
	if err := s.UpsertEntity(bob); err != nil {
		t.Fatalf("UpsertEntity bob: %v", err)
	}

	if err := s.UpsertEntityAttribute(&store.EntityAttribute{ID: uuid.NewString(), EntityID: alice.ID, AttrType: "email", AttrValue: "alice@co.com", CreatedAt: now}); err != nil {
		t.Fatalf("UpsertEntityAttribute: %v", err)
	}

	if err := s.UpsertEdge(&store.GraphEdge{ID: uuid.NewString(), FromEntityID: alice.ID, ToEntityID: bob.ID, EdgeType: store.EdgeWorksWith, Strength: 1}); err != nil {
		t.Fatalf("UpsertEdge: %v", err)
	}

	if err := s.InsertAssertion(&store.Assertion{ID: uuid.NewString(), SubjectEntityID: alice.ID, Predicate: "works_at", ObjectText: "Acme", Confidence: 0.9, ExtractedAt: now}); err != nil {
		t.Fatalf("InsertAssertion: %v", err)
	}

	if err := s.UpsertCommitment(&store.Commitment{ID: uuid.NewString(), Type: store.CommitmentPromise, Description: "send Alice the deck", OwnerEntityID: alice.ID, Status: store.CommitmentOpen, CreatedAt: now}); err != nil {
		t.Fatalf("UpsertCommitment: %v", err)
	}

	if err := s.UpsertGoal(&store.Goal{ID: uuid.NewString(), Description: "deepen partnership with Alice's team", GoalType: store.GoalShortTerm, Status: store.GoalActive, RelatedEntities: []string{alice.ID}, CreatedAt: now}); err != nil {
		t.Fatalf("UpsertGoal: %v", err)
	}

	if err := s.InsertMessage(&store.Message{ID: uuid.NewString(), SourceType: "email", SourceID: "m1", SenderEntityID: alice.ID, BodyText: "hi", Timestamp: now}); err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}

	bundle, err := e.Assemble(Request{EntityID: alice.ID})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if bundle.Primary == nil || bundle.Primary.Entity.ID != alice.ID {
		t.Fatalf("expected primary entity to be alice, got %+v", bundle.Primary)
	}
	if len(bundle.Primary.Attributes) != 1 {
		t.Errorf("expected 1 attribute, got %d", len(bundle.Primary.Attributes))
	}
	if bundle.Primary.InteractionCount != 1 {
		t.Errorf("expected interaction count 1, got %d", bundle.Primary.InteractionCount)
	}
	if len(bundle.RelatedEntities) != 1 || bundle.RelatedEntities[0].Entity.ID != bob.ID {
		t.Errorf("expected bob as a related entity, got %+v", bundle.RelatedEntities)
	}
	if len(bundle.TopAssertions) != 1 {
		t.Errorf("expected 1 assertion, got %d", len(bundle.TopAssertions))
	}
	if len(bundle.OpenCommitments) != 1 {
		t.Errorf("expected 1 open commitment, got %d", len(bundle.OpenCommitments))
	}
	if len(bundle.RelatedGoals) != 1 {
		t.Errorf("expected 1 related goal, got %d", len(bundle.RelatedGoals))
	}
	if bundle.AssemblyDuration < 0 {
		t.Errorf("expected a non-negative assembly duration")
	}

	rendered := bundle.Render()
	if !strings.Contains(rendered, "Alice Chen") {
		t.Errorf("expected rendered bundle to mention the primary entity, got %q", rendered)
	}
	if !strings.Contains(rendered, "Acme") {
		t.Errorf("expected rendered bundle to mention the top assertion, got %q", rendered)
	}
}

func TestAssembleUnknownEntityErrors(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Assemble(Request{EntityID: "does-not-exist"}); err == nil {
		t.Fatalf("expected an error for an unknown entity")
	}
}

func TestAssembleIncludesThreadMessagesWhenRequested(t *testing.T) {
	e, s := newTestEngine(t)
	now := time.Now().UnixMilli()

	alice := &store.Entity{ID: uuid.NewString(), CanonicalName: "Alice Chen", EntityType: store.EntityPerson}
	if err := s.UpsertEntity(alice); err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}
	if err := s.InsertMessage(&store.Message{
		ID: uuid.NewString(), SourceType: "email", SourceID: "src1", ThreadID: "t1",
		BodyText: "hello", IsFromUser: true, Timestamp: now,
	}); err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}

	bundle, err := e.Assemble(Request{EntityID: alice.ID, ThreadID: "t1"})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(bundle.ThreadMessages) != 1 {
		t.Fatalf("expected 1 thread message, got %d", len(bundle.ThreadMessages))
	}
}
