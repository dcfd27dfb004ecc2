package store

import (
	"testing"
	"time"
)

func TestEntityUpsertAndLookup(t *testing.T) {
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Now().UnixMilli()
	e := &Entity{
		ID:            "ent1",
		CanonicalName: "Jordan Ellis",
		EntityType:    EntityPerson,
		Aliases:       []string{"Jordy"},
		CreatedBy:     "user",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.UpsertEntity(e); err != nil {
		t.Fatalf("UpsertEntity failed: %v", err)
	}

	got, err := s.GetEntityByName("jordan ellis")
	if err != nil {
		t.Fatalf("GetEntityByName failed: %v", err)
	}
	if got == nil || got.ID != "ent1" {
		t.Fatalf("expected case-insensitive name lookup to find ent1, got %v", got)
	}
	if len(got.Aliases) != 1 || got.Aliases[0] != "Jordy" {
		t.Errorf("aliases not round-tripped: %v", got.Aliases)
	}

	list, err := s.ListEntities(string(EntityPerson))
	if err != nil {
		t.Fatalf("ListEntities failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 person entity, got %d", len(list))
	}
}

func TestEdgeUpsertBumpsEvidence(t *testing.T) {
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Now().UnixMilli()
	edge := &GraphEdge{
		ID:             "edge1",
		FromEntityID:   "ent1",
		ToEntityID:     "ent2",
		EdgeType:       "communicates_with",
		Strength:       1.0,
		EvidenceCount:  1,
		LastEvidenceAt: now,
		CreatedAt:      now,
	}
	if err := s.UpsertEdge(edge); err != nil {
		t.Fatalf("UpsertEdge failed: %v", err)
	}

	edge.LastEvidenceAt = now + 1000
	if err := s.UpsertEdge(edge); err != nil {
		t.Fatalf("second UpsertEdge failed: %v", err)
	}

	got, err := s.GetEdge("edge1")
	if err != nil {
		t.Fatalf("GetEdge failed: %v", err)
	}
	if got.EvidenceCount != 2 {
		t.Errorf("expected evidence_count to bump to 2 on re-assertion, got %d", got.EvidenceCount)
	}

	edges, err := s.ListEdgesForEntity("ent1")
	if err != nil {
		t.Fatalf("ListEdgesForEntity failed: %v", err)
	}
	if len(edges) != 1 {
		t.Errorf("expected 1 edge for ent1, got %d", len(edges))
	}
}

func TestMergeEntitiesFoldsEdgesAndDeletesAbsorbed(t *testing.T) {
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Now().UnixMilli()
	if err := s.UpsertEntity(&Entity{ID: "keep", CanonicalName: "Jordan Ellis", EntityType: EntityPerson, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("upsert keep: %v", err)
	}
	if err := s.UpsertEntity(&Entity{ID: "absorbed", CanonicalName: "J. Ellis", EntityType: EntityPerson, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("upsert absorbed: %v", err)
	}
	if err := s.UpsertEntity(&Entity{ID: "other", CanonicalName: "Priya Natarajan", EntityType: EntityPerson, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("upsert other: %v", err)
	}
	if err := s.UpsertEdge(&GraphEdge{ID: "e1", FromEntityID: "absorbed", ToEntityID: "other", EdgeType: EdgeKnows, Strength: 1, EvidenceCount: 2, CreatedAt: now}); err != nil {
		t.Fatalf("upsert edge: %v", err)
	}

	if err := s.MergeEntities("keep", "absorbed"); err != nil {
		t.Fatalf("MergeEntities failed: %v", err)
	}

	gone, err := s.GetEntity("absorbed")
	if err != nil {
		t.Fatalf("GetEntity failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected absorbed entity to be deleted")
	}

	keep, err := s.GetEntity("keep")
	if err != nil {
		t.Fatalf("GetEntity failed: %v", err)
	}
	if len(keep.MergeHistory) != 1 || keep.MergeHistory[0] != "absorbed" {
		t.Errorf("expected merge_history to record absorbed id, got %v", keep.MergeHistory)
	}

	edges, err := s.ListEdgesForEntity("keep")
	if err != nil {
		t.Fatalf("ListEdgesForEntity failed: %v", err)
	}
	if len(edges) != 1 || edges[0].ToEntityID != "other" {
		t.Fatalf("expected absorbed entity's edge to move to keep, got %v", edges)
	}
}
