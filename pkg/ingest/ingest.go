// Package ingest turns normalized messages from external collectors
// (Gmail, iMessage, Slack, calendar, …) into stored Message rows with
// resolved entity ids, updated communication edges, and mention edges for
// entities named in the body but not directly addressed — the first arrow
// in the engine's data flow, upstream of the background workers that
// turn messages into events.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
	"github.com/buildingjoshbetter/kestrel/pkg/mention"
	"github.com/buildingjoshbetter/kestrel/pkg/resolver"
)

// NormalizedMessage is the ingestion input shape from §6: source-agnostic
// collectors normalize to this before calling Ingest.
type NormalizedMessage struct {
	SourceType string
	SourceID   string
	ThreadID   string

	SenderName  string
	SenderEmail string
	SenderPhone string

	Recipients []NormalizedRecipient

	Subject   string
	BodyText  string
	BodyHTML  string
	Timestamp int64
}

// NormalizedRecipient is one "to"/"cc"/"bcc" participant before entity
// resolution.
type NormalizedRecipient struct {
	Name  string
	Email string
	Type  string // "to" | "cc" | "bcc"
}

// ItemResult reports one message's outcome. A batch never aborts on a
// single item's failure; Ingester.IngestBatch collects one ItemResult
// per input instead.
type ItemResult struct {
	SourceID string
	Message  *store.Message
	Skipped  bool // true when (SourceType, SourceID) was already ingested
	Error    string
}

const communicatesWithStrengthIncrement = 0.05

// Ingester resolves and persists normalized messages.
type Ingester struct {
	store     store.Storer
	resolver  *resolver.Resolver
	userEmail string
	userPhone string
	log       zerolog.Logger
}

// New creates an Ingester. userEmail/userPhone identify the user's own
// messages (IsFromUser), matching config.Config's UserEmail/UserPhone.
func New(s store.Storer, r *resolver.Resolver, userEmail, userPhone string, log zerolog.Logger) *Ingester {
	return &Ingester{store: s, resolver: r, userEmail: userEmail, userPhone: userPhone, log: log}
}

// IngestBatch resolves and stores each message in order, continuing past
// per-item failures. It compiles one mention scanner from the current
// entity set for the whole batch rather than per message — building the
// automaton dominates the cost of scanning with it, and a batch's entity
// set rarely changes mid-batch.
func (ig *Ingester) IngestBatch(ctx context.Context, messages []NormalizedMessage) []ItemResult {
	scanner, err := ig.buildMentionScanner()
	if err != nil {
		ig.log.Warn().Err(err).Msg("ingest: failed to build mention scanner, skipping mention detection for this batch")
		scanner = nil
	}

	results := make([]ItemResult, 0, len(messages))
	for _, m := range messages {
		results = append(results, ig.ingestOne(ctx, m, scanner))
	}
	return results
}

func (ig *Ingester) buildMentionScanner() (*mention.Scanner, error) {
	entities, err := ig.store.ListEntities("")
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	named := make([]mention.NamedEntity, len(entities))
	for i, e := range entities {
		named[i] = mention.NamedEntity{ID: e.ID, Name: e.CanonicalName, Aliases: e.Aliases}
	}
	return mention.Build(named)
}

func (ig *Ingester) ingestOne(ctx context.Context, nm NormalizedMessage, scanner *mention.Scanner) ItemResult {
	result := ItemResult{SourceID: nm.SourceID}

	existing, err := ig.store.GetMessageBySource(nm.SourceType, nm.SourceID)
	if err != nil {
		result.Error = fmt.Sprintf("ingest: dedup check: %v", err)
		return result
	}
	if existing != nil {
		result.Skipped = true
		result.Message = existing
		return result
	}

	senderEntityID, err := ig.resolveSender(ctx, nm)
	if err != nil {
		result.Error = fmt.Sprintf("ingest: resolve sender: %v", err)
		return result
	}

	recipients, recipientIDs, err := ig.resolveRecipients(ctx, nm)
	if err != nil {
		result.Error = fmt.Sprintf("ingest: resolve recipients: %v", err)
		return result
	}

	msg := &store.Message{
		ID:             uuid.NewString(),
		SourceType:     nm.SourceType,
		SourceID:       nm.SourceID,
		ThreadID:       nm.ThreadID,
		SenderEntityID: senderEntityID,
		Recipients:     recipients,
		Subject:        nm.Subject,
		BodyText:       nm.BodyText,
		BodyHTML:       nm.BodyHTML,
		Timestamp:      nm.Timestamp,
		IsFromUser:     ig.isFromUser(nm),
	}

	if err := ig.store.InsertMessage(msg); err != nil {
		result.Error = fmt.Sprintf("ingest: insert message: %v", err)
		return result
	}

	if err := ig.bumpCommunicationEdges(senderEntityID, recipientIDs); err != nil {
		ig.log.Warn().Err(err).Str("source_id", nm.SourceID).Msg("ingest: failed to update communication edges")
	}

	if scanner != nil {
		ig.recordMentions(scanner, senderEntityID, recipientIDs, nm)
	}

	result.Message = msg
	return result
}

func (ig *Ingester) isFromUser(nm NormalizedMessage) bool {
	return (ig.userEmail != "" && nm.SenderEmail == ig.userEmail) ||
		(ig.userPhone != "" && nm.SenderPhone == ig.userPhone)
}

func (ig *Ingester) resolveSender(ctx context.Context, nm NormalizedMessage) (string, error) {
	if nm.SenderName == "" && nm.SenderEmail == "" && nm.SenderPhone == "" {
		return "", nil
	}

	candidate := resolver.ResolveCandidate{
		Name:       nm.SenderName,
		EntityType: store.EntityPerson,
		Email:      nm.SenderEmail,
		Phone:      nm.SenderPhone,
	}
	result, err := ig.resolver.Resolve(ctx, candidate, resolver.ResolveContext{SurroundingText: nm.Subject + " " + nm.BodyText})
	if err != nil {
		return "", err
	}
	return result.EntityID, nil
}

func (ig *Ingester) resolveRecipients(ctx context.Context, nm NormalizedMessage) ([]store.Recipient, []string, error) {
	recipients := make([]store.Recipient, 0, len(nm.Recipients))
	ids := make([]string, 0, len(nm.Recipients))

	for _, r := range nm.Recipients {
		if r.Name == "" && r.Email == "" {
			recipients = append(recipients, store.Recipient{Email: r.Email, Type: r.Type})
			continue
		}

		candidate := resolver.ResolveCandidate{
			Name:       r.Name,
			EntityType: store.EntityPerson,
			Email:      r.Email,
		}
		resolved, err := ig.resolver.Resolve(ctx, candidate, resolver.ResolveContext{SurroundingText: nm.Subject + " " + nm.BodyText})
		if err != nil {
			return nil, nil, err
		}
		recipients = append(recipients, store.Recipient{EntityID: resolved.EntityID, Email: r.Email, Type: r.Type})
		if resolved.EntityID != "" {
			ids = append(ids, resolved.EntityID)
		}
	}
	return recipients, ids, nil
}

// bumpCommunicationEdges records a communicates_with edge between the
// sender and each recipient, the primary communication-density signal
// per the data model. UpsertEdge's ON CONFLICT clause bumps
// evidence_count itself; that running count, not Strength, is the
// actual density signal this accumulates — Strength here is a floor
// that other components (e.g. the graph-proximity boost in pkg/resolver)
// can rely on being non-zero for any entity pair that has exchanged a
// message.
func (ig *Ingester) bumpCommunicationEdges(senderEntityID string, recipientIDs []string) error {
	if senderEntityID == "" {
		return nil
	}
	for _, recipientID := range recipientIDs {
		if recipientID == "" || recipientID == senderEntityID {
			continue
		}
		if err := ig.store.UpsertEdge(&store.GraphEdge{
			ID:             uuid.NewString(),
			FromEntityID:   senderEntityID,
			ToEntityID:     recipientID,
			EdgeType:       store.EdgeCommunicatesWith,
			Strength:       communicatesWithStrengthIncrement,
			EvidenceCount:  1,
			LastEvidenceAt: time.Now().UnixMilli(),
		}); err != nil {
			return fmt.Errorf("upsert edge: %w", err)
		}
	}
	return nil
}

// recordMentions scans the message's subject and body for known entities
// other than the sender and addressed recipients, recording a "mentions"
// edge from the sender to each one and bumping its total-mentions count.
// A failed lookup or upsert for one mentioned entity doesn't block the
// others; mentions are a secondary signal and best-effort.
func (ig *Ingester) recordMentions(scanner *mention.Scanner, senderEntityID string, recipientIDs []string, nm NormalizedMessage) {
	if senderEntityID == "" {
		return
	}
	excluded := map[string]bool{senderEntityID: true}
	for _, id := range recipientIDs {
		excluded[id] = true
	}

	seen := map[string]bool{}
	for _, m := range scanner.Scan(nm.Subject + " " + nm.BodyText) {
		if excluded[m.EntityID] || seen[m.EntityID] {
			continue
		}
		seen[m.EntityID] = true

		if err := ig.store.UpsertEdge(&store.GraphEdge{
			ID:             uuid.NewString(),
			FromEntityID:   senderEntityID,
			ToEntityID:     m.EntityID,
			EdgeType:       store.EdgeMentions,
			Strength:       communicatesWithStrengthIncrement,
			EvidenceCount:  1,
			LastEvidenceAt: time.Now().UnixMilli(),
		}); err != nil {
			ig.log.Warn().Err(err).Str("entity_id", m.EntityID).Msg("ingest: failed to record mention edge")
			continue
		}

		entity, err := ig.store.GetEntity(m.EntityID)
		if err != nil || entity == nil {
			continue
		}
		entity.TotalMentions++
		if err := ig.store.UpsertEntity(entity); err != nil {
			ig.log.Warn().Err(err).Str("entity_id", m.EntityID).Msg("ingest: failed to bump mention count")
		}
	}
}
