package behavior

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

const maxPredictions = 10

// UpcomingEvent is one known-future calendar item used to anchor
// meeting-prep predictions.
type UpcomingEvent struct {
	ID    string
	Start time.Time
	Title string
}

// PredictionContext is the input to GeneratePredictions.
type PredictionContext struct {
	Now            time.Time
	UpcomingEvents []UpcomingEvent
	ActiveContext  string
}

const (
	meetingPrepLead       = 5 * time.Minute
	meetingPrepReviewLead = 30 * time.Minute
)

// GeneratePredictions produces at most maxPredictions forward-looking
// anticipations: meeting prep and prep-review reminders for every upcoming
// event, pattern-based anticipations whose time-of-day/day-of-week
// signature fires at the context's current hour and day, sorted by
// predicted time then confidence descending.
func (e *Engine) GeneratePredictions(ctx PredictionContext) ([]*store.Prediction, error) {
	var predictions []*store.Prediction
	now := ctx.Now.UnixMilli()

	for _, ev := range ctx.UpcomingEvents {
		predictions = append(predictions,
			&store.Prediction{
				ID:             uuid.NewString(),
				PredictionType: "meeting_prep",
				PredictedTime:  ev.Start.Add(-meetingPrepLead).UnixMilli(),
				Confidence:     0.9,
				Description:    fmt.Sprintf("prepare for %q", ev.Title),
				CreatedAt:      now,
			},
			&store.Prediction{
				ID:             uuid.NewString(),
				PredictionType: "meeting_prep_review",
				PredictedTime:  ev.Start.Add(-meetingPrepReviewLead).UnixMilli(),
				Confidence:     0.75,
				Description:    fmt.Sprintf("review materials for %q", ev.Title),
				CreatedAt:      now,
			},
		)
	}

	patterns, err := e.store.ListPatterns(0)
	if err != nil {
		return nil, fmt.Errorf("behavior: generate predictions: list patterns: %w", err)
	}
	hour := ctx.Now.Hour()
	weekday := ctx.Now.Weekday().String()
	for _, p := range patterns {
		sig := fmt.Sprintf("|%d", hour)
		dowSig := fmt.Sprintf("|%s", weekday)
		if containsSuffix(p.Signature, sig) || containsSuffix(p.Signature, dowSig) {
			predictions = append(predictions, &store.Prediction{
				ID:              uuid.NewString(),
				PredictionType:  "pattern_anticipation",
				PredictedTime:   now,
				Confidence:      p.Confidence,
				Description:     fmt.Sprintf("anticipated based on pattern %q", p.Signature),
				SourcePatternID: p.ID,
				CreatedAt:       now,
			})
		}
	}

	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].PredictedTime != predictions[j].PredictedTime {
			return predictions[i].PredictedTime < predictions[j].PredictedTime
		}
		return predictions[i].Confidence > predictions[j].Confidence
	})
	if len(predictions) > maxPredictions {
		predictions = predictions[:maxPredictions]
	}

	for _, p := range predictions {
		if err := e.store.InsertPrediction(p); err != nil {
			return nil, fmt.Errorf("behavior: generate predictions: save: %w", err)
		}
	}
	return predictions, nil
}

func containsSuffix(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return s[len(s)-len(suffix):] == suffix
}

// VerifyOverduePredictions marks every unverified prediction whose firing
// time passed more than graceWindow ago as incorrect, since the opportunity
// to confirm it has passed.
func (e *Engine) VerifyOverduePredictions(now time.Time, graceWindow time.Duration) error {
	cutoff := now.Add(-graceWindow).UnixMilli()
	overdue, err := e.store.ListUnverifiedPredictionsBefore(cutoff)
	if err != nil {
		return fmt.Errorf("behavior: verify overdue predictions: list: %w", err)
	}
	for _, p := range overdue {
		if err := e.store.MarkPredictionVerified(p.ID, false); err != nil {
			return fmt.Errorf("behavior: verify overdue predictions: mark %s: %w", p.ID, err)
		}
	}
	return nil
}
