package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

const (
	deadlineReminderWindow = 24 * time.Hour
)

// generateTriggers produces proactive triggers (meeting prep, deadline
// warnings, stale follow-ups, pattern-based anticipations), deduplicated
// against anything already fired within triggerDedupeWindow for the same
// dedupe key.
func (w *Worker) generateTriggers() (int, error) {
	now := time.Now()
	count := 0

	due, err := w.store.ListDuePredictions(now.UnixMilli())
	if err != nil {
		return count, fmt.Errorf("worker: generate triggers: list due predictions: %w", err)
	}
	for _, p := range due {
		fired, err := w.fireTrigger(p.PredictionType, "prediction:"+p.ID, now, map[string]interface{}{
			"prediction_id": p.ID,
			"description":   p.Description,
		})
		if err != nil {
			return count, err
		}
		if fired {
			count++
		}
	}

	overdue, err := w.commitments.Overdue(now.UnixMilli())
	if err != nil {
		return count, fmt.Errorf("worker: generate triggers: overdue commitments: %w", err)
	}
	dueReminders, err := w.commitments.DueReminders(now.UnixMilli(), deadlineReminderWindow.Milliseconds())
	if err != nil {
		return count, fmt.Errorf("worker: generate triggers: due reminders: %w", err)
	}
	for _, c := range append(overdue, dueReminders...) {
		fired, err := w.fireTrigger("deadline_warning", "commitment:"+c.ID, now, map[string]interface{}{
			"commitment_id": c.ID,
			"description":   c.Description,
		})
		if err != nil {
			return count, err
		}
		if fired {
			count++
			if err := w.commitments.MarkReminderSent(c.ID); err != nil {
				return count, fmt.Errorf("worker: generate triggers: mark reminder sent: %w", err)
			}
		}
	}

	open, err := w.commitments.OpenCommitments()
	if err != nil {
		return count, fmt.Errorf("worker: generate triggers: open commitments: %w", err)
	}
	for _, c := range open {
		if c.DueDate != 0 {
			continue
		}
		age := now.Sub(time.UnixMilli(c.CreatedAt))
		if age < staleFollowUpAge {
			continue
		}
		fired, err := w.fireTrigger("stale_follow_up", "stale:"+c.ID, now, map[string]interface{}{
			"commitment_id": c.ID,
			"description":   c.Description,
		})
		if err != nil {
			return count, err
		}
		if fired {
			count++
		}
	}

	return count, nil
}

// fireTrigger inserts a proactive trigger unless one with the same dedupe
// key already fired within triggerDedupeWindow.
func (w *Worker) fireTrigger(triggerType, dedupeKey string, now time.Time, payload map[string]interface{}) (bool, error) {
	since := now.Add(-triggerDedupeWindow).UnixMilli()
	recent, err := w.store.HasRecentTrigger(dedupeKey, since)
	if err != nil {
		return false, fmt.Errorf("worker: fire trigger: dedupe check: %w", err)
	}
	if recent {
		return false, nil
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("worker: fire trigger: marshal payload: %w", err)
	}

	t := &store.ProactiveTrigger{
		ID:          uuid.NewString(),
		TriggerType: triggerType,
		FiredAt:     now.UnixMilli(),
		DedupeKey:   dedupeKey,
		Payload:     string(payloadJSON),
	}
	if err := w.store.InsertProactiveTrigger(t); err != nil {
		return false, fmt.Errorf("worker: fire trigger: insert: %w", err)
	}
	return true, nil
}
