package commitment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// CreateGoalInput is everything needed to add a goal to the hierarchy.
type CreateGoalInput struct {
	Description     string
	GoalType        store.GoalType
	ParentGoalID    string
	RelatedEntities []string
	TargetDate      int64
}

// CreateGoal adds a new active goal, optionally parented under an existing one.
func (t *Tracker) CreateGoal(in CreateGoalInput) (*store.Goal, error) {
	g := &store.Goal{
		ID:              uuid.NewString(),
		Description:     in.Description,
		GoalType:        in.GoalType,
		Status:          store.GoalActive,
		ParentGoalID:    in.ParentGoalID,
		RelatedEntities: in.RelatedEntities,
		CreatedAt:       time.Now().UnixMilli(),
		TargetDate:      in.TargetDate,
	}
	if err := t.store.UpsertGoal(g); err != nil {
		return nil, fmt.Errorf("commitment: create goal: %w", err)
	}
	return g, nil
}

// LinkCommitment associates a commitment with a goal, for use in leaf
// progress computation.
func (t *Tracker) LinkCommitment(goalID, commitmentID string) error {
	if err := t.store.LinkGoalCommitment(goalID, commitmentID); err != nil {
		return fmt.Errorf("commitment: link goal commitment: %w", err)
	}
	return nil
}

// Progress computes a goal's completion fraction in [0, 1]: a completed goal
// is 1, an abandoned goal is 0, a leaf goal (no children) is the fraction of
// its linked commitments that are completed (0 if it has none), and a
// non-leaf goal is the mean of its children's progress.
func (t *Tracker) Progress(goalID string) (float64, error) {
	g, err := t.store.GetGoal(goalID)
	if err != nil {
		return 0, fmt.Errorf("commitment: progress: load goal: %w", err)
	}
	if g == nil {
		return 0, fmt.Errorf("commitment: progress: goal %s not found", goalID)
	}

	switch g.Status {
	case store.GoalCompleted:
		return 1, nil
	case store.GoalAbandoned:
		return 0, nil
	}

	children, err := t.store.ListGoalChildren(goalID)
	if err != nil {
		return 0, fmt.Errorf("commitment: progress: list children: %w", err)
	}
	if len(children) > 0 {
		var sum float64
		for _, child := range children {
			p, err := t.Progress(child.ID)
			if err != nil {
				return 0, err
			}
			sum += p
		}
		return sum / float64(len(children)), nil
	}

	return t.leafProgress(goalID)
}

// leafProgress is the fraction of a leaf goal's linked commitments that are
// completed; a leaf with no linked commitments is treated as not yet
// started, since there's nothing completed to divide by.
func (t *Tracker) leafProgress(goalID string) (float64, error) {
	commitmentIDs, err := t.store.ListGoalCommitments(goalID)
	if err != nil {
		return 0, fmt.Errorf("commitment: leaf progress: list commitments: %w", err)
	}
	if len(commitmentIDs) == 0 {
		return 0, nil
	}

	completed := 0
	for _, id := range commitmentIDs {
		c, err := t.store.GetCommitment(id)
		if err != nil {
			return 0, fmt.Errorf("commitment: leaf progress: load commitment %s: %w", id, err)
		}
		if c != nil && c.Status == store.CommitmentCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(commitmentIDs)), nil
}

// Abandon marks a goal as abandoned without touching its children's own
// status or detaching them; call DetachGoal first if the hierarchy itself
// should be pruned.
func (t *Tracker) Abandon(goalID string) error {
	g, err := t.store.GetGoal(goalID)
	if err != nil {
		return fmt.Errorf("commitment: abandon: load: %w", err)
	}
	if g == nil {
		return fmt.Errorf("commitment: abandon: goal %s not found", goalID)
	}
	g.Status = store.GoalAbandoned
	if err := t.store.UpsertGoal(g); err != nil {
		return fmt.Errorf("commitment: abandon: save: %w", err)
	}
	return nil
}

// CompleteGoal marks a goal as completed.
func (t *Tracker) CompleteGoal(goalID string) error {
	g, err := t.store.GetGoal(goalID)
	if err != nil {
		return fmt.Errorf("commitment: complete goal: load: %w", err)
	}
	if g == nil {
		return fmt.Errorf("commitment: complete goal: goal %s not found", goalID)
	}
	g.Status = store.GoalCompleted
	g.CompletedAt = time.Now().UnixMilli()
	if err := t.store.UpsertGoal(g); err != nil {
		return fmt.Errorf("commitment: complete goal: save: %w", err)
	}
	return nil
}

// DetachGoal clears ParentGoalID on goalID's children so removing goalID
// itself later never leaves a child pointing at a dangling id.
func (t *Tracker) DetachGoal(goalID string) error {
	if err := t.store.DetachGoalChildren(goalID); err != nil {
		return fmt.Errorf("commitment: detach goal: detach children: %w", err)
	}
	return nil
}
