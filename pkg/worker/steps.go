package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildingjoshbetter/kestrel/internal/store"
	"github.com/buildingjoshbetter/kestrel/pkg/belief"
)

// drainMessages turns up to batchSize unprocessed messages into events with
// an inferred context type, extracts candidate facts and relations from
// each message's text when an extractor is configured, and marks each
// message processed. Matches the data flow's "workers emit events and
// assertions" step.
func (w *Worker) drainMessages() (messagesDrained, assertionsExtracted int, err error) {
	messages, err := w.store.ListUnprocessedMessages(w.batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("worker: drain messages: list: %w", err)
	}

	for _, m := range messages {
		ev := &store.Event{
			ID:          uuid.NewString(),
			EventType:   eventTypeForMessage(m),
			Timestamp:   m.Timestamp,
			ContextType: inferMessageContext(m),
			EntityIDs:   messageEntityIDs(m),
			Payload:     map[string]interface{}{"message_id": m.ID, "source_type": m.SourceType},
		}
		if err := w.store.InsertEvent(ev); err != nil {
			return messagesDrained, assertionsExtracted, fmt.Errorf("worker: drain messages: insert event: %w", err)
		}

		extracted, extractErr := w.extractAssertions(m)
		assertionsExtracted += extracted
		if extractErr != nil {
			w.log.Warn().Err(extractErr).Str("message_id", m.ID).Msg("worker: assertion extraction failed for message")
		}

		if err := w.store.MarkMessageProcessed(m.ID); err != nil {
			return messagesDrained + 1, assertionsExtracted, fmt.Errorf("worker: drain messages: mark processed: %w", err)
		}
		messagesDrained++
	}
	return messagesDrained, assertionsExtracted, nil
}

// extractAssertions runs the configured extractor over one message's text
// and records each resulting fact as a belief assertion, and each relation
// as a graph edge, for subjects (and objects) that resolve to a known
// entity by exact canonical name. Extraction is best-effort: an unresolved
// name, an invalid edge type, or a store failure skips that one item rather
// than failing the message.
func (w *Worker) extractAssertions(m *store.Message) (int, error) {
	if w.extractor == nil {
		return 0, nil
	}
	text := strings.TrimSpace(m.Subject + " " + m.BodyText)
	if text == "" {
		return 0, nil
	}

	result, err := w.extractor.Extract(context.Background(), text, nil)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	count := 0
	for _, f := range result.Facts {
		subject, err := w.store.GetEntityByName(f.Subject)
		if err != nil || subject == nil {
			continue
		}
		if _, err := w.belief.Assert(belief.AssertInput{
			SubjectEntityID: subject.ID,
			Predicate:       f.Predicate,
			ObjectText:      f.Object,
			Confidence:      f.Confidence,
			SourceType:      "message",
			SourceID:        m.ID,
			SourceTimestamp: m.Timestamp,
		}); err != nil {
			w.log.Warn().Err(err).Str("message_id", m.ID).Msg("worker: failed to assert extracted fact")
			continue
		}
		count++
	}

	for _, r := range result.Relations {
		if !store.IsValidEdgeType(r.EdgeType) {
			continue
		}
		subject, err := w.store.GetEntityByName(r.Subject)
		if err != nil || subject == nil {
			continue
		}
		object, err := w.store.GetEntityByName(r.Object)
		if err != nil || object == nil {
			continue
		}
		if err := w.store.UpsertEdge(&store.GraphEdge{
			ID:             uuid.NewString(),
			FromEntityID:   subject.ID,
			ToEntityID:     object.ID,
			EdgeType:       r.EdgeType,
			Strength:       r.Confidence,
			EvidenceCount:  1,
			LastEvidenceAt: m.Timestamp,
		}); err != nil {
			w.log.Warn().Err(err).Str("message_id", m.ID).Msg("worker: failed to record extracted relation")
			continue
		}
		count++
	}

	return count, nil
}

func eventTypeForMessage(m *store.Message) string {
	if m.IsFromUser {
		return "message_sent"
	}
	return "message_received"
}

func messageEntityIDs(m *store.Message) []string {
	var ids []string
	if m.SenderEntityID != "" {
		ids = append(ids, m.SenderEntityID)
	}
	for _, r := range m.Recipients {
		if r.EntityID != "" {
			ids = append(ids, r.EntityID)
		}
	}
	return ids
}

// workKeywords is a small heuristic used until a dedicated detector (see
// pkg/ctxboundary) is wired into ingestion directly.
var workKeywords = []string{"meeting", "standup", "deadline", "invoice", "contract", "sprint"}

func inferMessageContext(m *store.Message) string {
	lower := strings.ToLower(m.Subject + " " + m.BodyText)
	for _, kw := range workKeywords {
		if strings.Contains(lower, kw) {
			return "work"
		}
	}
	return ""
}

const maxEventsPerMiningPass = 2000

// minePatterns runs pattern detection over unprocessed events once at
// least minEventsForMining have accumulated, then marks them processed.
func (w *Worker) minePatterns() (int, error) {
	events, err := w.store.ListUnprocessedEvents(maxEventsPerMiningPass)
	if err != nil {
		return 0, fmt.Errorf("worker: mine patterns: list events: %w", err)
	}
	if len(events) < minEventsForMining {
		return 0, nil
	}

	if err := w.behavior.MinePatterns(events); err != nil {
		return 0, fmt.Errorf("worker: mine patterns: %w", err)
	}

	for _, ev := range events {
		if err := w.store.MarkEventProcessed(ev.ID); err != nil {
			return len(events), fmt.Errorf("worker: mine patterns: mark processed: %w", err)
		}
	}
	return len(events), nil
}

// rebuildRhythms recomputes the 7x24 rhythm matrix over the last week of
// events. Per-message response-time data isn't available at this layer
// yet, so RebuildRhythms runs with an empty response-time map; energy
// inference falls back to its zero-response default until that wiring
// exists upstream.
func (w *Worker) rebuildRhythms() (int, error) {
	since := time.Now().Add(-rhythmWindow).UnixMilli()
	events, err := w.store.ListEventsSince(since)
	if err != nil {
		return 0, fmt.Errorf("worker: rebuild rhythms: list events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := w.behavior.RebuildRhythms(events, map[string]time.Duration{}); err != nil {
		return 0, fmt.Errorf("worker: rebuild rhythms: %w", err)
	}

	slots, err := w.store.ListRhythmSlots()
	if err != nil {
		return 0, fmt.Errorf("worker: rebuild rhythms: count slots: %w", err)
	}
	return len(slots), nil
}

// firePredictions counts predictions whose time has come (for the caller
// to act on) and marks overdue unverified predictions as incorrect.
func (w *Worker) firePredictions() (int, error) {
	now := time.Now()
	due, err := w.store.ListDuePredictions(now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("worker: fire predictions: list due: %w", err)
	}

	if err := w.behavior.VerifyOverduePredictions(now, predictionVerifyGrace); err != nil {
		return len(due), fmt.Errorf("worker: fire predictions: verify overdue: %w", err)
	}
	return len(due), nil
}
