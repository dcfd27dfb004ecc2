package worker

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
	"github.com/buildingjoshbetter/kestrel/pkg/extraction"
	"github.com/buildingjoshbetter/kestrel/pkg/llm"
)

func newTestWorker(t *testing.T) (*Worker, store.Storer) {
	t.Helper()
	s, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return New(s, nil, zerolog.Nop()), s
}

func TestRunOnceDrainsMessagesIntoEvents(t *testing.T) {
	w, s := newTestWorker(t)
	now := time.Now().UnixMilli()

	if err := s.InsertMessage(&store.Message{
		ID: uuid.NewString(), SourceType: "email", SourceID: "src1",
		Subject: "weekly standup notes", BodyText: "recap", Timestamp: now,
	}); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	result := w.RunOnce()
	if result.MessagesDrained != 1 {
		t.Fatalf("expected 1 message drained, got %d", result.MessagesDrained)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	unprocessed, err := s.ListUnprocessedMessages(10)
	if err != nil {
		t.Fatalf("ListUnprocessedMessages failed: %v", err)
	}
	if len(unprocessed) != 0 {
		t.Fatalf("expected the drained message to be marked processed")
	}

	events, err := s.ListUnprocessedEvents(10)
	if err != nil {
		t.Fatalf("ListUnprocessedEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event from the drained message, got %d", len(events))
	}
	if events[0].ContextType != "work" {
		t.Errorf("expected standup keyword to infer work context, got %q", events[0].ContextType)
	}
}

func TestRunOnceExtractsAssertionsWhenExtractorConfigured(t *testing.T) {
	s, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	alice := &store.Entity{ID: uuid.NewString(), CanonicalName: "Alice Chen", EntityType: store.EntityPerson}
	if err := s.UpsertEntity(alice); err != nil {
		t.Fatalf("UpsertEntity failed: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "{\"facts\":[{\"subject\":\"Alice Chen\",\"predicate\":\"company\",\"object\":\"Acme\",\"confidence\":0.9,\"sourceSentence\":\"Alice Chen works at Acme\"}],\"relations\":[]}"}`))
	}))
	defer srv.Close()

	completion := llm.NewCompletionClient(llm.New(""), srv.URL, "test-model")
	w := New(s, extraction.New(completion), zerolog.Nop())

	now := time.Now().UnixMilli()
	if err := s.InsertMessage(&store.Message{
		ID: uuid.NewString(), SourceType: "email", SourceID: "src-extract",
		SenderEntityID: alice.ID, BodyText: "Alice Chen works at Acme now", Timestamp: now,
	}); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	result := w.RunOnce()
	if result.AssertionsExtracted != 1 {
		t.Fatalf("expected 1 assertion extracted, got %d (errors: %v)", result.AssertionsExtracted, result.Errors)
	}

	assertions, err := s.AssertionsAsOf(alice.ID, time.Now().UnixMilli(), "", false)
	if err != nil {
		t.Fatalf("AssertionsAsOf failed: %v", err)
	}
	if len(assertions) != 1 || assertions[0].ObjectText != "Acme" {
		t.Errorf("expected one assertion with object Acme, got %+v", assertions)
	}
}

func TestRunOnceSkipsPatternMiningBelowThreshold(t *testing.T) {
	w, s := newTestWorker(t)
	now := time.Now().UnixMilli()
	for i := 0; i < 3; i++ {
		if err := s.InsertEvent(&store.Event{ID: uuid.NewString(), EventType: "check_email", Timestamp: now}); err != nil {
			t.Fatalf("InsertEvent failed: %v", err)
		}
	}

	result := w.RunOnce()
	if result.EventsMined != 0 {
		t.Fatalf("expected no mining below the minimum event threshold, got %d events mined", result.EventsMined)
	}
}

func TestRunOnceGeneratesDeadlineTriggerForOverdueCommitment(t *testing.T) {
	w, s := newTestWorker(t)
	past := time.Now().Add(-48 * time.Hour).UnixMilli()

	if err := s.UpsertCommitment(&store.Commitment{
		ID: uuid.NewString(), Type: store.CommitmentPromise, Description: "send report",
		DueDate: past, Status: store.CommitmentOpen, CreatedAt: past,
	}); err != nil {
		t.Fatalf("UpsertCommitment failed: %v", err)
	}

	result := w.RunOnce()
	if result.TriggersGenerated != 1 {
		t.Fatalf("expected 1 deadline trigger, got %d (errors: %v)", result.TriggersGenerated, result.Errors)
	}

	again := w.RunOnce()
	if again.TriggersGenerated != 0 {
		t.Fatalf("expected dedupe to suppress an immediate repeat trigger, got %d", again.TriggersGenerated)
	}
}

func TestNextScheduledFireValidatesAndComputesNext(t *testing.T) {
	w, _ := newTestWorker(t)
	next, err := w.NextScheduledFire("0 9 * * *", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NextScheduledFire failed: %v", err)
	}
	if next.Hour() != 9 {
		t.Errorf("expected next fire at hour 9, got %v", next)
	}
}

func TestNextScheduledFireRejectsInvalidExpression(t *testing.T) {
	w, _ := newTestWorker(t)
	if _, err := w.NextScheduledFire("not a cron expr", time.Now()); err == nil {
		t.Fatalf("expected an error for an invalid cron expression")
	}
}

func TestStartStopAndManualTrigger(t *testing.T) {
	w, s := newTestWorker(t)
	now := time.Now().UnixMilli()
	if err := s.InsertMessage(&store.Message{ID: uuid.NewString(), SourceType: "email", SourceID: "src1", BodyText: "hi", Timestamp: now}); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	w.Start()
	defer w.Stop()
	w.TriggerNow()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.Status().MessagesDrained > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected a manually triggered cycle to complete within the deadline")
}
