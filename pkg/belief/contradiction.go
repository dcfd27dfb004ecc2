package belief

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

const (
	// confidenceSplitThreshold is how far apart two confidences must be
	// before a disagreement is classified by confidence alone rather than
	// by temporal or direct disagreement.
	confidenceSplitThreshold = 0.5

	confidenceSeverityBase   = 0.3
	confidenceSeverityWeight = 0.4
	temporalSeverity         = 0.7
	directSeverity           = 0.8
)

// DetectContradictions compares every pair of assertions for subject+predicate
// (both current and superseded, since a contradiction can exist historically
// between two overlapping validity windows even after one side has since
// been superseded) and returns the newly-found disagreements, persisting
// each as a pending BeliefContradiction.
func (b *Store) DetectContradictions(subjectEntityID, predicate string) ([]*store.BeliefContradiction, error) {
	all, err := b.store.ListAssertionsForSubject(subjectEntityID)
	if err != nil {
		return nil, fmt.Errorf("belief: detect contradictions: list: %w", err)
	}

	var found []*store.BeliefContradiction
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a1, a2 := all[i], all[j]
			if a1.Predicate != predicate || a2.Predicate != predicate {
				continue
			}
			if !disagree(a1, a2) {
				continue
			}
			if !overlaps(a1, a2) {
				continue
			}

			ctype, severity := classify(a1, a2)
			c := &store.BeliefContradiction{
				ID:                uuid.NewString(),
				AssertionID1:      a1.ID,
				AssertionID2:      a2.ID,
				DetectedAt:        time.Now().UnixMilli(),
				ContradictionType: ctype,
				Severity:          severity,
				ResolutionStatus:  store.ResolutionPending,
			}
			if err := b.store.InsertContradiction(c); err != nil {
				return nil, fmt.Errorf("belief: detect contradictions: insert: %w", err)
			}
			found = append(found, c)
		}
	}
	return found, nil
}

// disagree reports whether two assertions describe the same subject and
// predicate with a different object, i.e. a candidate disagreement.
func disagree(a1, a2 *store.Assertion) bool {
	if a1.ObjectEntityID != "" || a2.ObjectEntityID != "" {
		return a1.ObjectEntityID != a2.ObjectEntityID
	}
	return a1.ObjectText != a2.ObjectText
}

// overlaps reports whether two assertions' validity windows intersect,
// treating a zero ValidFrom as -infinity and a zero ValidUntil as +infinity.
func overlaps(a1, a2 *store.Assertion) bool {
	from1, until1 := openInterval(a1)
	from2, until2 := openInterval(a2)
	return from1 < until2 && from2 < until1
}

func openInterval(a *store.Assertion) (from, until int64) {
	from = a.ValidFrom
	if from == 0 {
		from = math.MinInt64
	}
	until = a.ValidUntil
	if until == 0 {
		until = math.MaxInt64
	}
	return from, until
}

// classify assigns a contradiction type and severity. A large confidence
// gap is classified as a confidence contradiction (one side is probably
// just wrong); otherwise, a pair where both sides carry a stated validity
// window is a temporal contradiction (they may simply both have been true
// at different times); anything else is a direct contradiction, the most
// severe case since neither confidence nor timing explains the conflict.
func classify(a1, a2 *store.Assertion) (store.ContradictionType, float64) {
	diff := math.Abs(a1.Confidence - a2.Confidence)
	if diff > confidenceSplitThreshold {
		return store.ContradictionConfidence, confidenceSeverityBase + confidenceSeverityWeight*(1-diff)
	}
	if a1.ValidFrom != 0 && a2.ValidFrom != 0 {
		return store.ContradictionTemporal, temporalSeverity
	}
	return store.ContradictionDirect, directSeverity
}
