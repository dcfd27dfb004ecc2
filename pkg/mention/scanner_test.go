package mention

import "testing"

func TestBuildAndScanFindsCanonicalNameAndAlias(t *testing.T) {
	s, err := Build([]NamedEntity{
		{ID: "e1", Name: "Alice Chen", Aliases: []string{"Al"}},
		{ID: "e2", Name: "Bob Ruiz"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	mentions := s.Scan("Saw Alice Chen and Bob Ruiz at the sync, Al was late")
	if len(mentions) != 3 {
		t.Fatalf("expected 3 mentions, got %d: %+v", len(mentions), mentions)
	}

	byEntity := map[string]int{}
	for _, m := range mentions {
		byEntity[m.EntityID]++
	}
	if byEntity["e1"] != 2 {
		t.Errorf("expected entity e1 (name + alias) to match twice, got %d", byEntity["e1"])
	}
	if byEntity["e2"] != 1 {
		t.Errorf("expected entity e2 to match once, got %d", byEntity["e2"])
	}
}

func TestScanMatchedTextPreservesOriginalCasingAndOffsets(t *testing.T) {
	s, err := Build([]NamedEntity{{ID: "e1", Name: "Dana Lee"}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	text := "following up with DANA LEE tomorrow"
	mentions := s.Scan(text)
	if len(mentions) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(mentions))
	}
	m := mentions[0]
	if got := text[m.Start:m.End]; got != m.MatchedText {
		t.Errorf("MatchedText %q doesn't match the span it reports (%q)", m.MatchedText, got)
	}
	if m.MatchedText != "DANA LEE" {
		t.Errorf("expected original casing 'DANA LEE', got %q", m.MatchedText)
	}
}

func TestScanIgnoresUnknownText(t *testing.T) {
	s, err := Build([]NamedEntity{{ID: "e1", Name: "Alice Chen"}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if mentions := s.Scan("nothing of interest here"); mentions != nil {
		t.Errorf("expected no mentions, got %+v", mentions)
	}
}

func TestBuildWithNoEntitiesScansToNothing(t *testing.T) {
	s, err := Build(nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if mentions := s.Scan("Alice Chen said hi"); mentions != nil {
		t.Errorf("expected no mentions from an empty scanner, got %+v", mentions)
	}
}
