package commitment

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

func newTestTracker(t *testing.T) (*Tracker, store.Storer) {
	t.Helper()
	s, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return New(s, zerolog.Nop()), s
}

func TestCompleteMeetingViaCalendarSyncStampsDueDate(t *testing.T) {
	tr, _ := newTestTracker(t)
	due := time.Now().Add(time.Hour).UnixMilli()

	c, err := tr.Create(CreateInput{Type: store.CommitmentMeeting, Description: "Standup", DueDate: due})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := tr.Complete(c.ID, true); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	reloaded, err := tr.store.GetCommitment(c.ID)
	if err != nil {
		t.Fatalf("GetCommitment failed: %v", err)
	}
	if reloaded.CompletedAt != due {
		t.Errorf("expected calendar-synced meeting completion to stamp due date, got %d want %d", reloaded.CompletedAt, due)
	}
}

func TestOpenCommitmentsOrderedByDueDateNullsLast(t *testing.T) {
	tr, _ := newTestTracker(t)
	now := time.Now().UnixMilli()

	if _, err := tr.Create(CreateInput{Type: store.CommitmentAsk, Description: "no due date"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := tr.Create(CreateInput{Type: store.CommitmentPromise, Description: "later", DueDate: now + 100_000}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := tr.Create(CreateInput{Type: store.CommitmentPromise, Description: "sooner", DueDate: now + 1_000}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	open, err := tr.OpenCommitments()
	if err != nil {
		t.Fatalf("OpenCommitments failed: %v", err)
	}
	if len(open) != 3 {
		t.Fatalf("expected 3 open commitments, got %d", len(open))
	}
	if open[0].Description != "sooner" || open[1].Description != "later" {
		t.Fatalf("expected due-date ascending with nulls last, got order: %v, %v, %v", open[0].Description, open[1].Description, open[2].Description)
	}
	if open[2].Description != "no due date" {
		t.Fatalf("expected null due_date commitment last, got %v", open[2].Description)
	}
}

func TestGoalProgressLeafAndNonLeaf(t *testing.T) {
	tr, _ := newTestTracker(t)

	parent, err := tr.CreateGoal(CreateGoalInput{Description: "Ship v2", GoalType: store.GoalProject})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	child1, err := tr.CreateGoal(CreateGoalInput{Description: "Backend", GoalType: store.GoalProject, ParentGoalID: parent.ID})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	child2, err := tr.CreateGoal(CreateGoalInput{Description: "Frontend", GoalType: store.GoalProject, ParentGoalID: parent.ID})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	c1, err := tr.Create(CreateInput{Type: store.CommitmentDecision, Description: "pick db"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	c2, err := tr.Create(CreateInput{Type: store.CommitmentDecision, Description: "pick cache"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := tr.LinkCommitment(child1.ID, c1.ID); err != nil {
		t.Fatalf("LinkCommitment failed: %v", err)
	}
	if err := tr.LinkCommitment(child1.ID, c2.ID); err != nil {
		t.Fatalf("LinkCommitment failed: %v", err)
	}
	if err := tr.Complete(c1.ID, false); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	p1, err := tr.Progress(child1.ID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if p1 != 0.5 {
		t.Errorf("expected leaf progress 0.5 (1 of 2 commitments done), got %v", p1)
	}

	p2, err := tr.Progress(child2.ID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if p2 != 0 {
		t.Errorf("expected leaf with no linked commitments to be 0, got %v", p2)
	}

	parentProgress, err := tr.Progress(parent.ID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if parentProgress != 0.25 {
		t.Errorf("expected non-leaf progress to be mean of children (0.5+0)/2=0.25, got %v", parentProgress)
	}

	if err := tr.Abandon(child2.ID); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}
	parentProgress2, err := tr.Progress(parent.ID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if parentProgress2 != 0.25 {
		t.Errorf("expected abandoned child to contribute 0 to mean ((0.5+0)/2=0.25), got %v", parentProgress2)
	}
}
