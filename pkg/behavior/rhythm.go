package behavior

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

const (
	// energyDenominatorMinutes normalizes average response time into an
	// inferred-energy score: a near-instant average response implies high
	// energy, a ten-minute-plus average implies none left.
	energyDenominatorMinutes = 10.0
)

type slotAccumulator struct {
	activity      map[string]int
	focusSum      float64
	focusCount    int
	responseSum   time.Duration
	responseCount int
	messageVolume int
	contextCounts map[string]int
}

func newSlotAccumulator() *slotAccumulator {
	return &slotAccumulator{activity: map[string]int{}, contextCounts: map[string]int{}}
}

// RebuildRhythms recomputes the 7x24 daily-rhythm matrix from events,
// replacing any existing slot on conflict (day_of_week, hour).
func (e *Engine) RebuildRhythms(events []*store.Event, responseTimes map[string]time.Duration) error {
	slots := make(map[[2]int]*slotAccumulator)

	for _, ev := range events {
		t := time.UnixMilli(ev.Timestamp).UTC()
		key := [2]int{int(t.Weekday()), t.Hour()}
		acc, ok := slots[key]
		if !ok {
			acc = newSlotAccumulator()
			slots[key] = acc
		}
		acc.activity[ev.EventType]++
		acc.messageVolume++
		if ev.ContextType != "" {
			acc.contextCounts[ev.ContextType]++
		}
		if rt, ok := responseTimes[ev.ID]; ok {
			acc.responseSum += rt
			acc.responseCount++
		}
		if focus, ok := ev.Payload["focus_score"].(float64); ok {
			acc.focusSum += focus
			acc.focusCount++
		}
	}

	now := time.Now().UnixMilli()
	for key, acc := range slots {
		activityJSON, err := json.Marshal(acc.activity)
		if err != nil {
			return fmt.Errorf("behavior: rebuild rhythms: marshal activity: %w", err)
		}

		energy := 0.0
		if acc.responseCount > 0 {
			avgMinutes := (acc.responseSum / time.Duration(acc.responseCount)).Minutes()
			energy = math.Max(0, 1-avgMinutes/energyDenominatorMinutes)
		}
		meanFocus := 0.0
		if acc.focusCount > 0 {
			meanFocus = acc.focusSum / float64(acc.focusCount)
		}

		slot := &store.RhythmSlot{
			DayOfWeek:            key[0],
			Hour:                 key[1],
			ActivityDistribution: string(activityJSON),
			MeanFocusScore:       meanFocus,
			InferredEnergy:       energy,
			MessageVolume:        acc.messageVolume,
			TypicalContext:       dominantContext(acc.contextCounts),
			UpdatedAt:            now,
		}
		if err := e.store.UpsertRhythmSlot(slot); err != nil {
			return fmt.Errorf("behavior: rebuild rhythms: save slot: %w", err)
		}
	}
	return nil
}

func dominantContext(counts map[string]int) string {
	best, bestCount := "", 0
	for ctx, n := range counts {
		if n > bestCount {
			best, bestCount = ctx, n
		}
	}
	return best
}
