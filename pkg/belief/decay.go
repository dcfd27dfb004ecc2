package belief

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

const (
	// decayFactor is applied once per sweep to every assertion extracted
	// before the cutoff, modeling gradual staleness of unreconfirmed facts.
	decayFactor = 0.9
	decayFloor  = 0.1
)

// DecaySweep discounts the confidence of every assertion extracted before
// cutoff by decayFactor, floored at decayFloor, logging each adjustment.
// Intended to run periodically (e.g. daily) over assertions older than some
// fixed age, so unreconfirmed beliefs quietly lose weight over time.
func (b *Store) DecaySweep(cutoff int64) (int, error) {
	stale, err := b.store.ListAssertionsOlderThan(cutoff)
	if err != nil {
		return 0, fmt.Errorf("belief: decay sweep: list: %w", err)
	}

	now := time.Now().UnixMilli()
	decayed := 0
	for _, a := range stale {
		old := a.Confidence
		next := old * decayFactor
		if next < decayFloor {
			next = decayFloor
		}
		if next == old {
			continue
		}
		a.Confidence = next
		if err := b.store.UpdateAssertion(a); err != nil {
			return decayed, fmt.Errorf("belief: decay sweep: update assertion %s: %w", a.ID, err)
		}
		rev := &store.BeliefRevisionLog{
			ID:            uuid.NewString(),
			AssertionID:   a.ID,
			OldConfidence: old,
			NewConfidence: next,
			Reason:        "decay",
			RecordedAt:    now,
		}
		if err := b.store.InsertBeliefRevision(rev); err != nil {
			return decayed, fmt.Errorf("belief: decay sweep: log revision: %w", err)
		}
		decayed++
	}
	return decayed, nil
}
