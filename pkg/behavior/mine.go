package behavior

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

const (
	defaultOccurrenceThreshold = 3
	defaultConfidenceFloor     = 0.5

	habitStrengthStep = 0.05
	habitStrengthCap  = 1.0
	habitStrengthMin  = 0.1
	decayFactor       = 0.99

	sequenceMinGap = 1 * time.Minute
	sequenceMaxGap = 30 * time.Minute

	triggerResponseWindow = 60 * time.Second
)

// MinePatterns scans events for all four pattern classes and upserts a
// DetectedPattern row the moment each distinct signature first crosses the
// occurrence threshold, bumping habit strength on every later sighting.
func (e *Engine) MinePatterns(events []*store.Event) error {
	timeOfDay := newCandidateRegistry(defaultOccurrenceThreshold)
	dayOfWeek := newCandidateRegistry(defaultOccurrenceThreshold)
	sequences := newCandidateRegistry(defaultOccurrenceThreshold)
	triggerResponse := newCandidateRegistry(defaultOccurrenceThreshold)

	sorted := append([]*store.Event(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	timeOfDayDays := map[string]map[string]bool{}
	dayOfWeekWeeks := map[string]map[string]bool{}

	for _, ev := range sorted {
		t := time.UnixMilli(ev.Timestamp).UTC()

		todSig := fmt.Sprintf("tod:%s|%s|%d", ev.EventType, ev.ContextType, t.Hour())
		if isNewDistinctPeriod(timeOfDayDays, todSig, t.Format("2006-01-02")) {
			distinct := len(timeOfDayDays[todSig])
			if timeOfDay.observe(todSig) {
				if err := e.materializePattern(store.PatternHabit, todSig, distinct); err != nil {
					return err
				}
			} else if distinct > defaultOccurrenceThreshold {
				if err := e.bumpHabitStrength(store.PatternHabit, todSig); err != nil {
					return err
				}
			}
		}

		isoYear, isoWeek := t.ISOWeek()
		dowSig := fmt.Sprintf("dow:%s|%s", ev.EventType, t.Weekday())
		if isNewDistinctPeriod(dayOfWeekWeeks, dowSig, fmt.Sprintf("%d-%d", isoYear, isoWeek)) {
			distinct := len(dayOfWeekWeeks[dowSig])
			if dayOfWeek.observe(dowSig) {
				if err := e.materializePattern(store.PatternRoutine, dowSig, distinct); err != nil {
					return err
				}
			} else if distinct > defaultOccurrenceThreshold {
				if err := e.bumpHabitStrength(store.PatternRoutine, dowSig); err != nil {
					return err
				}
			}
		}
	}

	// Sequences: consecutive events (after sorting) within [1min, 30min].
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		gap := time.Duration(cur.Timestamp-prev.Timestamp) * time.Millisecond
		if gap < sequenceMinGap || gap > sequenceMaxGap {
			continue
		}
		sig := fmt.Sprintf("seq:%s->%s", categoryOf(prev), categoryOf(cur))
		if sequences.observe(sig) {
			if err := e.materializePattern(store.PatternRhythmSeq, sig, sequences.count(sig)); err != nil {
				return err
			}
		} else if sequences.count(sig) > defaultOccurrenceThreshold {
			if err := e.bumpHabitStrength(store.PatternRhythmSeq, sig); err != nil {
				return err
			}
		}
	}

	// Trigger-response: a response event within 60s of a trigger event type.
	for i := 0; i < len(sorted); i++ {
		trigger := sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			response := sorted[j]
			gap := time.Duration(response.Timestamp-trigger.Timestamp) * time.Millisecond
			if gap > triggerResponseWindow {
				break
			}
			if gap <= 0 {
				continue
			}
			sig := fmt.Sprintf("trig:%s->%s", trigger.EventType, response.EventType)
			if triggerResponse.observe(sig) {
				if err := e.materializePattern(store.PatternTriggerResponse, sig, triggerResponse.count(sig)); err != nil {
					return err
				}
			} else if triggerResponse.count(sig) > defaultOccurrenceThreshold {
				if err := e.bumpHabitStrength(store.PatternTriggerResponse, sig); err != nil {
					return err
				}
			}
			break
		}
	}

	return nil
}

func categoryOf(ev *store.Event) string {
	if ev.ContextType != "" {
		return ev.ContextType
	}
	return ev.EventType
}

// isNewDistinctPeriod records period under sig and reports whether it
// hadn't been seen for sig before, so callers only advance their occurrence
// counters once per distinct calendar day/week rather than once per event.
func isNewDistinctPeriod(seen map[string]map[string]bool, sig, period string) bool {
	if seen[sig] == nil {
		seen[sig] = make(map[string]bool)
	}
	if seen[sig][period] {
		return false
	}
	seen[sig][period] = true
	return true
}

// confidenceFor is a bounded rising function of distinct-period count: it
// starts at defaultConfidenceFloor once a pattern is first materialized and
// asymptotically approaches 1 as more distinct periods confirm it.
func confidenceFor(distinctPeriods int) float64 {
	floor := defaultConfidenceFloor
	return floor + (1-floor)*(1-math.Pow(0.5, float64(distinctPeriods)/float64(defaultOccurrenceThreshold)))
}

func (e *Engine) materializePattern(patternType store.PatternType, signature string, distinctPeriods int) error {
	now := time.Now().UnixMilli()
	p := &store.DetectedPattern{
		ID:              uuid.NewString(),
		PatternType:     patternType,
		Signature:       signature,
		Occurrences:     distinctPeriods,
		FirstObservedAt: now,
		LastObservedAt:  now,
		Confidence:      confidenceFor(distinctPeriods),
		HabitStrength:   habitStrengthStep,
	}
	if err := e.store.UpsertPattern(p); err != nil {
		return fmt.Errorf("behavior: materialize pattern: %w", err)
	}
	return nil
}

func (e *Engine) bumpHabitStrength(patternType store.PatternType, signature string) error {
	p, err := e.store.FindPatternBySignature(string(patternType), signature)
	if err != nil {
		return fmt.Errorf("behavior: bump habit strength: load: %w", err)
	}
	if p == nil {
		return nil
	}
	p.Occurrences++
	p.LastObservedAt = time.Now().UnixMilli()
	p.HabitStrength = math.Min(habitStrengthCap, p.HabitStrength+habitStrengthStep)
	p.Confidence = confidenceFor(p.Occurrences)
	if err := e.store.UpsertPattern(p); err != nil {
		return fmt.Errorf("behavior: bump habit strength: save: %w", err)
	}
	return nil
}

// DecayPatterns multiplies every pattern's habit strength by decayFactor,
// intended to run once per period (e.g. daily). Patterns that decay below
// habitStrengthMin are returned for the caller to consider pruning, rather
// than deleted here, since deletion is a storage-layer decision.
func (e *Engine) DecayPatterns() ([]*store.DetectedPattern, error) {
	patterns, err := e.store.ListPatterns(0)
	if err != nil {
		return nil, fmt.Errorf("behavior: decay patterns: list: %w", err)
	}

	var weak []*store.DetectedPattern
	for _, p := range patterns {
		p.HabitStrength *= decayFactor
		if err := e.store.UpsertPattern(p); err != nil {
			return nil, fmt.Errorf("behavior: decay patterns: save: %w", err)
		}
		if p.HabitStrength < habitStrengthMin {
			weak = append(weak, p)
		}
	}
	return weak, nil
}
