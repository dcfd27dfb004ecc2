package ingest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
	"github.com/buildingjoshbetter/kestrel/pkg/resolver"
)

func newTestIngester(t *testing.T, userEmail string) (*Ingester, store.Storer) {
	t.Helper()
	s, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	r := resolver.New(s, zerolog.Nop())
	return New(s, r, userEmail, "", zerolog.Nop()), s
}

func TestIngestBatchResolvesSenderAndRecipientsAndStoresMessage(t *testing.T) {
	ig, s := newTestIngester(t, "me@co.com")

	results := ig.IngestBatch(context.Background(), []NormalizedMessage{{
		SourceType:  "email",
		SourceID:    "m1",
		SenderName:  "Alice Chen",
		SenderEmail: "alice@co.com",
		Recipients:  []NormalizedRecipient{{Name: "Bob Ruiz", Email: "bob@co.com", Type: "to"}},
		Subject:     "sync notes",
		BodyText:    "see you then",
		Timestamp:   1000,
	}})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Error != "" {
		t.Fatalf("unexpected error: %s", r.Error)
	}
	if r.Skipped {
		t.Fatalf("expected the first ingest of a source to not be skipped")
	}
	if r.Message == nil || r.Message.SenderEntityID == "" {
		t.Fatalf("expected a resolved sender entity id, got %+v", r.Message)
	}
	if len(r.Message.Recipients) != 1 || r.Message.Recipients[0].EntityID == "" {
		t.Fatalf("expected a resolved recipient entity id, got %+v", r.Message.Recipients)
	}
	if r.Message.IsFromUser {
		t.Errorf("expected IsFromUser false for a message from alice@co.com")
	}

	stored, err := s.GetMessageBySource("email", "m1")
	if err != nil {
		t.Fatalf("GetMessageBySource failed: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected the message to be persisted")
	}

	edges, err := s.ListEdgesForEntity(r.Message.SenderEntityID)
	if err != nil {
		t.Fatalf("ListEdgesForEntity failed: %v", err)
	}
	if len(edges) != 1 || edges[0].EdgeType != store.EdgeCommunicatesWith {
		t.Errorf("expected a communicates_with edge between sender and recipient, got %+v", edges)
	}
}

func TestIngestBatchSkipsAlreadyIngestedSource(t *testing.T) {
	ig, _ := newTestIngester(t, "")

	msg := NormalizedMessage{SourceType: "email", SourceID: "dup1", BodyText: "hi", Timestamp: 1000}
	first := ig.IngestBatch(context.Background(), []NormalizedMessage{msg})
	if first[0].Skipped {
		t.Fatalf("expected the first ingest to not be skipped")
	}

	second := ig.IngestBatch(context.Background(), []NormalizedMessage{msg})
	if !second[0].Skipped {
		t.Fatalf("expected a re-ingested source to be skipped")
	}
}

func TestIngestBatchMarksUserOwnMessageAsFromUser(t *testing.T) {
	ig, _ := newTestIngester(t, "me@co.com")

	results := ig.IngestBatch(context.Background(), []NormalizedMessage{{
		SourceType:  "email",
		SourceID:    "m2",
		SenderName:  "Me",
		SenderEmail: "me@co.com",
		BodyText:    "sent from me",
		Timestamp:   1000,
	}})

	if !results[0].Message.IsFromUser {
		t.Errorf("expected IsFromUser true when sender email matches the configured user email")
	}
}

func TestIngestBatchRecordsMentionsOfEntitiesNotAddressedDirectly(t *testing.T) {
	ig, s := newTestIngester(t, "")

	first := ig.IngestBatch(context.Background(), []NormalizedMessage{{
		SourceType: "email", SourceID: "seed1", SenderName: "Carol Diaz", SenderEmail: "carol@co.com",
		BodyText: "hi", Timestamp: 1000,
	}})
	carolID := first[0].Message.SenderEntityID
	if carolID == "" {
		t.Fatalf("expected carol to resolve to an entity")
	}

	results := ig.IngestBatch(context.Background(), []NormalizedMessage{{
		SourceType: "email", SourceID: "m3", SenderName: "Dave Kim", SenderEmail: "dave@co.com",
		BodyText: "heads up, Carol Diaz is out this week", Timestamp: 2000,
	}})
	if results[0].Error != "" {
		t.Fatalf("unexpected error: %s", results[0].Error)
	}

	edges, err := s.ListEdgesForEntity(results[0].Message.SenderEntityID)
	if err != nil {
		t.Fatalf("ListEdgesForEntity failed: %v", err)
	}
	found := false
	for _, e := range edges {
		if e.EdgeType == store.EdgeMentions && e.ToEntityID == carolID {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a mentions edge from dave to carol, got %+v", edges)
	}

	carol, err := s.GetEntity(carolID)
	if err != nil {
		t.Fatalf("GetEntity failed: %v", err)
	}
	if carol.TotalMentions < 1 {
		t.Errorf("expected carol's TotalMentions to be bumped, got %d", carol.TotalMentions)
	}
}

func TestIngestBatchContinuesPastPerItemFailures(t *testing.T) {
	ig, _ := newTestIngester(t, "")

	results := ig.IngestBatch(context.Background(), []NormalizedMessage{
		{SourceType: "email", SourceID: "ok1", BodyText: "fine", Timestamp: 1000},
		{SourceType: "email", SourceID: "ok2", BodyText: "also fine", Timestamp: 1001},
	})
	if len(results) != 2 {
		t.Fatalf("expected both items to produce a result, got %d", len(results))
	}
	for _, r := range results {
		if r.Error != "" {
			t.Errorf("expected no error for %q, got %q", r.SourceID, r.Error)
		}
	}
}
