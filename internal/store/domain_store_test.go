package store

import (
	"testing"
	"time"
)

func TestAssertionSupersessionChain(t *testing.T) {
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Now().UnixMilli()
	old := &Assertion{
		ID:              "a1",
		SubjectEntityID: "ent1",
		Predicate:       "lives_in",
		ObjectText:      "Austin",
		Confidence:      0.9,
		SourceType:      "message",
		SourceID:        "m1",
		ExtractedAt:     now,
		ValidFrom:       now,
	}
	if err := s.InsertAssertion(old); err != nil {
		t.Fatalf("InsertAssertion old failed: %v", err)
	}

	next := &Assertion{
		ID:              "a2",
		SubjectEntityID: "ent1",
		Predicate:       "lives_in",
		ObjectText:      "Denver",
		Confidence:      0.9,
		SourceType:      "message",
		SourceID:        "m2",
		ExtractedAt:     now + 1000,
		ValidFrom:       now + 1000,
		SupersedesID:    old.ID,
	}
	if err := s.InsertAssertion(next); err != nil {
		t.Fatalf("InsertAssertion next failed: %v", err)
	}

	old.ValidUntil = now + 1000
	old.SupersededByID = next.ID
	if err := s.UpdateAssertion(old); err != nil {
		t.Fatalf("UpdateAssertion failed: %v", err)
	}

	current, err := s.AssertionsAsOf("ent1", now+2000, "lives_in", false)
	if err != nil {
		t.Fatalf("AssertionsAsOf failed: %v", err)
	}
	if len(current) != 1 || current[0].ID != "a2" {
		t.Fatalf("expected only a2 as current, got %v", current)
	}

	historical, err := s.AssertionsAsOf("ent1", now+500, "lives_in", true)
	if err != nil {
		t.Fatalf("AssertionsAsOf historical failed: %v", err)
	}
	if len(historical) != 1 || historical[0].ID != "a1" {
		t.Fatalf("expected a1 to be valid at now+500, got %v", historical)
	}
}

func TestContradictionEscalationClearsPendingList(t *testing.T) {
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Now().UnixMilli()
	c := &BeliefContradiction{
		ID:                "c1",
		AssertionID1:      "a1",
		AssertionID2:      "a2",
		DetectedAt:        now,
		ContradictionType: ContradictionDirect,
		Severity:          0.95,
		ResolutionStatus:  ResolutionPending,
	}
	if err := s.InsertContradiction(c); err != nil {
		t.Fatalf("InsertContradiction failed: %v", err)
	}

	pending, err := s.ListPendingContradictions()
	if err != nil {
		t.Fatalf("ListPendingContradictions failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending contradiction, got %d", len(pending))
	}

	c.ResolutionStatus = ResolutionEscalated
	if err := s.UpdateContradiction(c); err != nil {
		t.Fatalf("UpdateContradiction failed: %v", err)
	}

	pending, err = s.ListPendingContradictions()
	if err != nil {
		t.Fatalf("ListPendingContradictions after escalation failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("escalated contradiction should no longer be pending, got %d", len(pending))
	}
}

func TestCommitmentDueReminders(t *testing.T) {
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Now().UnixMilli()
	c := &Commitment{
		ID:          "commit1",
		Type:        CommitmentDeadline,
		Description: "Send the proposal",
		DueDate:     now + 60_000,
		Status:      CommitmentOpen,
		CreatedAt:   now,
	}
	if err := s.UpsertCommitment(c); err != nil {
		t.Fatalf("UpsertCommitment failed: %v", err)
	}

	due, err := s.ListDueReminders(now, 120_000)
	if err != nil {
		t.Fatalf("ListDueReminders failed: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due reminder, got %d", len(due))
	}

	overdue, err := s.ListOverdueCommitments(now + 120_000)
	if err != nil {
		t.Fatalf("ListOverdueCommitments failed: %v", err)
	}
	if len(overdue) != 1 {
		t.Errorf("expected commitment to be overdue after its due date passes, got %d", len(overdue))
	}
}

func TestGoalChildrenDetachOnDelete(t *testing.T) {
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Now().UnixMilli()
	parent := &Goal{ID: "g1", Description: "Ship v2", GoalType: GoalProject, Status: GoalActive, CreatedAt: now}
	child := &Goal{ID: "g2", Description: "Write tests", GoalType: GoalShortTerm, Status: GoalActive, ParentGoalID: "g1", CreatedAt: now}
	if err := s.UpsertGoal(parent); err != nil {
		t.Fatalf("UpsertGoal parent failed: %v", err)
	}
	if err := s.UpsertGoal(child); err != nil {
		t.Fatalf("UpsertGoal child failed: %v", err)
	}

	if err := s.DetachGoalChildren("g1"); err != nil {
		t.Fatalf("DetachGoalChildren failed: %v", err)
	}

	got, err := s.GetGoal("g2")
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if got.ParentGoalID != "" {
		t.Errorf("expected detached child to have empty ParentGoalID, got %q", got.ParentGoalID)
	}
}

func TestPatternPromotionBySignature(t *testing.T) {
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Now().UnixMilli()
	p := &DetectedPattern{
		ID:              "p1",
		PatternType:     PatternHabit,
		Signature:       "morning-coffee-email",
		Occurrences:     1,
		FirstObservedAt: now,
		LastObservedAt:  now,
		Confidence:      0.4,
		HabitStrength:   0.2,
	}
	if err := s.UpsertPattern(p); err != nil {
		t.Fatalf("UpsertPattern failed: %v", err)
	}

	found, err := s.FindPatternBySignature(string(PatternHabit), "morning-coffee-email")
	if err != nil {
		t.Fatalf("FindPatternBySignature failed: %v", err)
	}
	if found == nil || found.ID != "p1" {
		t.Fatalf("expected to find pattern p1, got %v", found)
	}

	found.Occurrences = 5
	found.HabitStrength = 0.8
	if err := s.UpsertPattern(found); err != nil {
		t.Fatalf("UpsertPattern update failed: %v", err)
	}

	strong, err := s.ListPatterns(0.5)
	if err != nil {
		t.Fatalf("ListPatterns failed: %v", err)
	}
	if len(strong) != 1 {
		t.Errorf("expected 1 strong pattern, got %d", len(strong))
	}
}
