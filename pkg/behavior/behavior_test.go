package behavior

import (
	"testing"
	"time"

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

func TestCandidateRegistryPromotesOnceAtThreshold(t *testing.T) {
	r := newCandidateRegistry(3)
	if r.observe("sig") {
		t.Fatalf("expected first observation not to promote")
	}
	if r.observe("sig") {
		t.Fatalf("expected second observation not to promote")
	}
	if !r.observe("sig") {
		t.Fatalf("expected third observation to promote")
	}
	if r.observe("sig") {
		t.Fatalf("expected a fourth observation not to re-promote")
	}
}

func dailyEventAtHour(t *testing.T, day int, hour int, eventType string) *store.Event {
	base := time.Date(2026, 1, 5, hour, 0, 0, 0, time.UTC) // a Monday
	ts := base.AddDate(0, 0, day)
	return &store.Event{ID: uuidLike(day, hour), EventType: eventType, Timestamp: ts.UnixMilli(), Payload: map[string]interface{}{}}
}

func uuidLike(a, b int) string {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, a).Format("20060102") + string(rune('a'+b))
}

func TestMinePatternsMaterializesTimeOfDayHabit(t *testing.T) {
	e, s := newTestEngine(t)

	var events []*store.Event
	for day := 0; day < 4; day++ {
		events = append(events, dailyEventAtHour(t, day, 9, "check_email"))
	}

	if err := e.MinePatterns(events); err != nil {
		t.Fatalf("MinePatterns failed: %v", err)
	}

	patterns, err := s.ListPatterns(0)
	if err != nil {
		t.Fatalf("ListPatterns failed: %v", err)
	}
	found := false
	for _, p := range patterns {
		if p.PatternType == store.PatternHabit {
			found = true
			if p.Confidence < defaultConfidenceFloor {
				t.Errorf("expected confidence at least the floor, got %v", p.Confidence)
			}
		}
	}
	if !found {
		t.Fatalf("expected a time-of-day habit to be materialized, got patterns: %+v", patterns)
	}
}

func TestDecayPatternsReducesStrength(t *testing.T) {
	e, s := newTestEngine(t)
	if err := s.UpsertPattern(&store.DetectedPattern{ID: "p1", PatternType: store.PatternHabit, Signature: "x", HabitStrength: 1.0}); err != nil {
		t.Fatalf("seed pattern: %v", err)
	}

	if _, err := e.DecayPatterns(); err != nil {
		t.Fatalf("DecayPatterns failed: %v", err)
	}

	reloaded, err := s.FindPatternBySignature(string(store.PatternHabit), "x")
	if err != nil {
		t.Fatalf("FindPatternBySignature failed: %v", err)
	}
	if reloaded.HabitStrength != decayFactor {
		t.Errorf("expected habit strength to decay by the decay factor, got %v", reloaded.HabitStrength)
	}
}

func TestGeneratePredictionsOrdersByTimeThenConfidence(t *testing.T) {
	e, _ := newTestEngine(t)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	preds, err := e.GeneratePredictions(PredictionContext{
		Now: now,
		UpcomingEvents: []UpcomingEvent{
			{ID: "ev1", Start: now.Add(1 * time.Hour), Title: "1:1 with Priya"},
		},
	})
	if err != nil {
		t.Fatalf("GeneratePredictions failed: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected meeting-prep and prep-review predictions, got %d", len(preds))
	}
	if preds[0].PredictedTime > preds[1].PredictedTime {
		t.Fatalf("expected predictions sorted by predicted time ascending")
	}
}

func TestVerifyOverduePredictionsMarksIncorrect(t *testing.T) {
	e, s := newTestEngine(t)
	now := time.Now()

	p := &store.Prediction{ID: "pred1", PredictionType: "meeting_prep", PredictedTime: now.Add(-2 * time.Hour).UnixMilli(), Confidence: 0.9, CreatedAt: now.UnixMilli()}
	if err := s.InsertPrediction(p); err != nil {
		t.Fatalf("InsertPrediction failed: %v", err)
	}

	if err := e.VerifyOverduePredictions(now, time.Hour); err != nil {
		t.Fatalf("VerifyOverduePredictions failed: %v", err)
	}

	unverified, err := s.ListUnverifiedPredictionsBefore(now.UnixMilli())
	if err != nil {
		t.Fatalf("ListUnverifiedPredictionsBefore failed: %v", err)
	}
	for _, u := range unverified {
		if u.ID == "pred1" {
			t.Fatalf("expected overdue prediction to be verified as incorrect")
		}
	}
}
