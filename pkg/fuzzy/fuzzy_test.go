package fuzzy

import "testing"

func TestScoreIdenticalAfterNormalization(t *testing.T) {
	if s := Score("Jordan Ellis", "jordan   ellis"); s != 1.0 {
		t.Errorf("expected 1.0 for names equal after normalization, got %v", s)
	}
}

func TestScoreTyposAreClose(t *testing.T) {
	s := Score("Jonathan Smith", "Jonathon Smith")
	if s < 0.9 {
		t.Errorf("expected near-1 score for a single-letter typo, got %v", s)
	}
}

func TestScoreUnrelatedNamesAreLow(t *testing.T) {
	s := Score("Jordan Ellis", "Priya Natarajan")
	if s > 0.6 {
		t.Errorf("expected a low score for unrelated names, got %v", s)
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []string{"Priya Natarajan", "Jordan Ellison", "Marcus Webb"}
	idx, score := BestMatch("Jordan Ellis", candidates)
	if idx != 1 {
		t.Fatalf("expected best match at index 1, got %d (score %v)", idx, score)
	}
}

func TestBestMatchEmptyCandidates(t *testing.T) {
	idx, score := BestMatch("anyone", nil)
	if idx != -1 || score != 0 {
		t.Errorf("expected (-1, 0) for no candidates, got (%d, %v)", idx, score)
	}
}

func TestScoreEmptyStringIsZero(t *testing.T) {
	if s := Score("", "Jordan Ellis"); s != 0 {
		t.Errorf("expected 0 for empty operand, got %v", s)
	}
	if s := Score("Jordan Ellis", ""); s != 0 {
		t.Errorf("expected 0 for empty operand, got %v", s)
	}
}

func TestScoreIdenticalIsOne(t *testing.T) {
	if s := Score("Jordan Ellis", "Jordan Ellis"); s != 1.0 {
		t.Errorf("expected 1.0 for identical names, got %v", s)
	}
}

func TestScoreNicknameWithMatchingSurnameClamps(t *testing.T) {
	s := Score("Bill Harris", "William Harris")
	if s < 0.95 {
		t.Errorf("expected nickname+surname match to clamp to >= 0.95, got %v", s)
	}
}

func TestScoreNicknameWithDifferentSurnameDoesNotClamp(t *testing.T) {
	s := Score("Bill Harris", "William Okafor")
	if s >= 0.95 {
		t.Errorf("expected mismatched surname to not trigger the clamp, got %v", s)
	}
}

func TestNormalizeStripsHonorificsAndSuffixes(t *testing.T) {
	if got := Normalize("Dr. Jane Smith"); got != "jane smith" {
		t.Errorf("expected honorific stripped, got %q", got)
	}
	if got := Normalize("Jane Smith, MD"); got != "jane smith" {
		t.Errorf("expected suffix stripped, got %q", got)
	}
}
