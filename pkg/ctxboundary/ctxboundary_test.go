package ctxboundary

import (
	"testing"

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

func TestCanSeeContextSameContextAlwaysAllowed(t *testing.T) {
	b := &store.ContextBoundary{ContextName: "work", VisibilityPolicy: map[string]bool{}}
	if !CanSeeContext("work", b) {
		t.Fatalf("expected same-context read to always be allowed")
	}
}

func TestCanSeeContextHonorsExplicitPolicy(t *testing.T) {
	b := &store.ContextBoundary{ContextName: "health", VisibilityPolicy: map[string]bool{"personal": true}}
	if !CanSeeContext("personal", b) {
		t.Fatalf("expected explicitly permitted viewer to see context")
	}
	if CanSeeContext("work", b) {
		t.Fatalf("expected non-permitted viewer to be denied")
	}
}

func TestCanSeeContextNilBoundaryAllowsRead(t *testing.T) {
	if !CanSeeContext("work", nil) {
		t.Fatalf("expected nil boundary (undeclared context) to default to visible")
	}
}

func TestCrossContextAllowedHighSensitivityBlocksEverything(t *testing.T) {
	b := &store.ContextBoundary{ContextName: "personal", VisibilityPolicy: map[string]bool{"work": true}}
	if CrossContextAllowed("work", b, SensitivityHigh) {
		t.Fatalf("expected high sensitivity to block cross-context reads even with explicit policy")
	}
}

func TestCrossContextAllowedMediumBlocksWorkIntoSensitiveContextsWithoutPolicy(t *testing.T) {
	b := &store.ContextBoundary{ContextName: "family", VisibilityPolicy: map[string]bool{}}
	if CrossContextAllowed("work", b, SensitivityMedium) {
		t.Fatalf("expected medium sensitivity to block work->family without explicit policy")
	}
}

func TestCrossContextAllowedMediumPermitsWorkIntoSensitiveContextsWithPolicy(t *testing.T) {
	b := &store.ContextBoundary{ContextName: "family", VisibilityPolicy: map[string]bool{"work": true}}
	if !CrossContextAllowed("work", b, SensitivityMedium) {
		t.Fatalf("expected medium sensitivity to permit work->family when policy explicitly allows it")
	}
}

func TestCrossContextAllowedMediumBlocksPersonalIntoWorkWithoutPolicy(t *testing.T) {
	b := &store.ContextBoundary{ContextName: "work", VisibilityPolicy: map[string]bool{}}
	if CrossContextAllowed("personal", b, SensitivityMedium) {
		t.Fatalf("expected medium sensitivity to block personal->work without explicit policy")
	}
}

func TestCrossContextAllowedLowDefersToPolicy(t *testing.T) {
	blocked := &store.ContextBoundary{ContextName: "family", VisibilityPolicy: map[string]bool{}}
	if CrossContextAllowed("work", blocked, SensitivityLow) {
		t.Fatalf("expected low sensitivity to deny when policy doesn't permit")
	}
	allowed := &store.ContextBoundary{ContextName: "family", VisibilityPolicy: map[string]bool{"work": true}}
	if !CrossContextAllowed("work", allowed, SensitivityLow) {
		t.Fatalf("expected low sensitivity to allow when policy permits")
	}
}

func TestDeclareBoundaryAndLookupRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	b := &store.ContextBoundary{
		ContextName:             "work",
		VisibilityPolicy:        map[string]bool{"personal": false},
		FormalityFloor:          0.6,
		ProfessionalismRequired: true,
	}
	if err := e.DeclareBoundary(b); err != nil {
		t.Fatalf("DeclareBoundary failed: %v", err)
	}

	reloaded, err := e.Boundary("work")
	if err != nil {
		t.Fatalf("Boundary failed: %v", err)
	}
	if reloaded == nil || reloaded.ContextName != "work" {
		t.Fatalf("expected boundary to round-trip, got %+v", reloaded)
	}
	if !reloaded.ProfessionalismRequired {
		t.Errorf("expected ProfessionalismRequired to round-trip true")
	}
	if reloaded.FormalityFloor != 0.6 {
		t.Errorf("expected FormalityFloor to round-trip, got %v", reloaded.FormalityFloor)
	}
}

func TestSetAndGetActiveContextRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetActiveContext("session-1", "work", 0.85, `{"app":"slack"}`); err != nil {
		t.Fatalf("SetActiveContext failed: %v", err)
	}

	active, err := e.ActiveContext("session-1")
	if err != nil {
		t.Fatalf("ActiveContext failed: %v", err)
	}
	if active == nil || active.CurrentContext != "work" {
		t.Fatalf("expected active context to round-trip as work, got %+v", active)
	}
	if active.Confidence != 0.85 {
		t.Errorf("expected confidence to round-trip, got %v", active.Confidence)
	}
}

func TestSetActiveContextOverwritesPreviousDetection(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetActiveContext("session-1", "work", 0.9, ""); err != nil {
		t.Fatalf("SetActiveContext (1st) failed: %v", err)
	}
	if err := e.SetActiveContext("session-1", "personal", 0.7, ""); err != nil {
		t.Fatalf("SetActiveContext (2nd) failed: %v", err)
	}

	active, err := e.ActiveContext("session-1")
	if err != nil {
		t.Fatalf("ActiveContext failed: %v", err)
	}
	if active.CurrentContext != "personal" {
		t.Fatalf("expected latest detection to win, got %q", active.CurrentContext)
	}
}

func TestDetectFusesSignalsAdditively(t *testing.T) {
	ctx, confidence := Detect(Signals{
		AppIdentifier:   "slack",
		WithinWorkHours: true,
		URLDomain:       "github.com",
	})
	if ctx != "work" {
		t.Fatalf("expected work context from slack+work-hours+github signals, got %q", ctx)
	}
	if confidence != 1.0 {
		t.Errorf("expected full confidence when every firing signal agrees, got %v", confidence)
	}
}

func TestDetectNoSignalsReturnsNoConfidence(t *testing.T) {
	ctx, confidence := Detect(Signals{})
	if ctx != "" || confidence != 0 {
		t.Fatalf("expected no detection with no signals, got ctx=%q confidence=%v", ctx, confidence)
	}
}

func TestDetectConflictingSignalsPicksHigherWeighted(t *testing.T) {
	ctx, _ := Detect(Signals{
		AppIdentifier: "imessage", // personal, weight 0.4
		URLDomain:     "github.com", // work, weight 0.3
	})
	if ctx != "personal" {
		t.Fatalf("expected the higher-weighted signal's context to win, got %q", ctx)
	}
}
