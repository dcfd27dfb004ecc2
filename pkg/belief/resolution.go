package belief

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

const (
	// autoEscalateSeverity is the severity at or above which a contradiction
	// is never auto-resolved, since guessing wrong at this severity is worse
	// than asking.
	autoEscalateSeverity = 0.8
	// autoResolveConfidenceDiff is the minimum confidence gap needed to let
	// the more-confident assertion win automatically.
	autoResolveConfidenceDiff = 0.3

	autoLoserConfidenceFactor = 0.5
	autoLoserConfidenceFloor  = 0.1

	userLoserConfidenceFactor = 0.2
	userLoserConfidenceFloor  = 0.05
)

// ResolveAuto applies the automatic resolution policy to a pending
// contradiction: a severity at or above autoEscalateSeverity always
// escalates; otherwise the assertion with the clearly higher confidence
// wins, falling back to the more recently sourced assertion, and failing
// that escalating rather than guessing. The losing assertion's confidence
// is discounted and the adjustment is logged.
func (b *Store) ResolveAuto(contradictionID string) error {
	c, err := b.store.GetContradiction(contradictionID)
	if err != nil {
		return fmt.Errorf("belief: resolve auto: load contradiction: %w", err)
	}
	if c == nil {
		return fmt.Errorf("belief: resolve auto: contradiction %s not found", contradictionID)
	}
	if c.ResolutionStatus != store.ResolutionPending {
		return fmt.Errorf("belief: resolve auto: contradiction %s is not pending", contradictionID)
	}

	a1, err := b.store.GetAssertion(c.AssertionID1)
	if err != nil {
		return fmt.Errorf("belief: resolve auto: load assertion 1: %w", err)
	}
	a2, err := b.store.GetAssertion(c.AssertionID2)
	if err != nil {
		return fmt.Errorf("belief: resolve auto: load assertion 2: %w", err)
	}
	if a1 == nil || a2 == nil {
		return fmt.Errorf("belief: resolve auto: contradiction references a missing assertion")
	}

	now := time.Now().UnixMilli()

	if c.Severity >= autoEscalateSeverity {
		return b.escalate(c, now)
	}

	winner, loser := pickByConfidence(a1, a2)
	if winner == nil {
		winner, loser = pickByRecency(a1, a2)
	}
	if winner == nil {
		return b.escalate(c, now)
	}

	if err := b.discountLoser(loser, autoLoserConfidenceFactor, autoLoserConfidenceFloor, "contradiction", contradictionID, now); err != nil {
		return err
	}

	c.ResolutionStatus = store.ResolutionResolved
	c.ResolvedAt = now
	c.ResolutionMethod = "auto"
	c.WinningAssertionID = winner.ID
	if err := b.store.UpdateContradiction(c); err != nil {
		return fmt.Errorf("belief: resolve auto: update contradiction: %w", err)
	}
	return nil
}

func (b *Store) escalate(c *store.BeliefContradiction, now int64) error {
	c.ResolutionStatus = store.ResolutionEscalated
	if err := b.store.UpdateContradiction(c); err != nil {
		return fmt.Errorf("belief: escalate: %w", err)
	}
	return nil
}

// pickByConfidence returns (winner, loser) if the two assertions' confidences
// differ by more than autoResolveConfidenceDiff, else (nil, nil).
func pickByConfidence(a1, a2 *store.Assertion) (winner, loser *store.Assertion) {
	diff := a1.Confidence - a2.Confidence
	if diff > autoResolveConfidenceDiff {
		return a1, a2
	}
	if -diff > autoResolveConfidenceDiff {
		return a2, a1
	}
	return nil, nil
}

// pickByRecency returns (winner, loser) favoring the more recently sourced
// assertion, or (nil, nil) if the source timestamps are equal (or both
// unset) and recency can't break the tie.
func pickByRecency(a1, a2 *store.Assertion) (winner, loser *store.Assertion) {
	if a1.SourceTimestamp > a2.SourceTimestamp {
		return a1, a2
	}
	if a2.SourceTimestamp > a1.SourceTimestamp {
		return a2, a1
	}
	return nil, nil
}

func (b *Store) discountLoser(loser *store.Assertion, factor, floor float64, reason, detail string, now int64) error {
	old := loser.Confidence
	next := old * factor
	if next < floor {
		next = floor
	}
	loser.Confidence = next
	if err := b.store.UpdateAssertion(loser); err != nil {
		return fmt.Errorf("belief: discount loser: update assertion: %w", err)
	}
	rev := &store.BeliefRevisionLog{
		ID:            uuid.NewString(),
		AssertionID:   loser.ID,
		OldConfidence: old,
		NewConfidence: next,
		Reason:        reason,
		Detail:        detail,
		RecordedAt:    now,
	}
	if err := b.store.InsertBeliefRevision(rev); err != nil {
		return fmt.Errorf("belief: discount loser: log revision: %w", err)
	}
	return nil
}

// ResolveUser applies a user's decision on a pending or escalated
// contradiction. If keepBoth is true, neither assertion is wrong; the
// older one (the loser, by convention the one not named winnerID) simply
// stops being valid where the winner's applies, so its ValidUntil is set
// to the winner's SourceTimestamp. Otherwise the loser is treated as
// mistaken and its confidence is discounted more aggressively than an
// automatic resolution would, since a human explicitly rejected it.
func (b *Store) ResolveUser(contradictionID, winnerID string, keepBoth bool) error {
	c, err := b.store.GetContradiction(contradictionID)
	if err != nil {
		return fmt.Errorf("belief: resolve user: load contradiction: %w", err)
	}
	if c == nil {
		return fmt.Errorf("belief: resolve user: contradiction %s not found", contradictionID)
	}
	if c.ResolutionStatus == store.ResolutionResolved {
		return fmt.Errorf("belief: resolve user: contradiction %s already resolved", contradictionID)
	}

	var loserID string
	switch winnerID {
	case c.AssertionID1:
		loserID = c.AssertionID2
	case c.AssertionID2:
		loserID = c.AssertionID1
	default:
		return fmt.Errorf("belief: resolve user: %s is not one of the contradicting assertions", winnerID)
	}

	winner, err := b.store.GetAssertion(winnerID)
	if err != nil {
		return fmt.Errorf("belief: resolve user: load winner: %w", err)
	}
	loser, err := b.store.GetAssertion(loserID)
	if err != nil {
		return fmt.Errorf("belief: resolve user: load loser: %w", err)
	}
	if winner == nil || loser == nil {
		return fmt.Errorf("belief: resolve user: contradiction references a missing assertion")
	}

	now := time.Now().UnixMilli()

	if keepBoth {
		loser.ValidUntil = winner.SourceTimestamp
		if err := b.store.UpdateAssertion(loser); err != nil {
			return fmt.Errorf("belief: resolve user: close loser validity: %w", err)
		}
	} else {
		if err := b.discountLoser(loser, userLoserConfidenceFactor, userLoserConfidenceFloor, "user_resolution", contradictionID, now); err != nil {
			return err
		}
	}

	c.ResolutionStatus = store.ResolutionResolved
	c.ResolvedAt = now
	if keepBoth {
		c.ResolutionMethod = "user_keep_both"
	} else {
		c.ResolutionMethod = "user"
	}
	c.WinningAssertionID = winnerID
	if err := b.store.UpdateContradiction(c); err != nil {
		return fmt.Errorf("belief: resolve user: update contradiction: %w", err)
	}
	return nil
}
