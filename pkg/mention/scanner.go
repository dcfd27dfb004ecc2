// Package mention scans free text for known-entity mentions using a single
// Aho-Corasick automaton built over every entity's canonical name and
// aliases. One compiled automaton serves as both an exact-name dictionary
// lookup and an O(n) multi-pattern text scanner, so ingestion can find every
// entity mentioned in a message body in one pass instead of one substring
// search per entity.
package mention

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
)

// isJoiner reports punctuation that commonly appears inside names ("O'Brien",
// "Jean-Luc", "AT&T") and should be preserved rather than treated as a
// token separator during canonicalization.
func isJoiner(r rune) bool {
	switch r {
	case '\'', '’', '‘',
		'-', '–', '—',
		'.', '_', '/', '&':
		return true
	default:
		return false
	}
}

// canonicalize lowercases text, normalizes curly quotes and en/em dashes,
// keeps letters/digits/joiners, and collapses everything else to a single
// space. Patterns and scanned text are both run through this, so a
// multiword name like "Alice Chen" matches regardless of surrounding
// punctuation or case.
func canonicalize(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	lastWasSpace := true

	for _, ch := range s {
		c := unicode.ToLower(ch)
		if c == '’' || c == '‘' {
			c = '\''
		}
		if c == '–' || c == '—' {
			c = '-'
		}
		if unicode.IsLetter(c) || unicode.IsDigit(c) || isJoiner(c) {
			out.WriteRune(c)
			lastWasSpace = false
		} else if !lastWasSpace {
			out.WriteRune(' ')
			lastWasSpace = true
		}
	}

	result := out.String()
	return strings.TrimRight(result, " ")
}

// offsetMap maps each byte position in the canonicalized text back to its
// byte position in the original, so Scan can report spans the caller can
// slice directly out of the source message.
func offsetMap(original string) []int {
	mapping := make([]int, 0, len(original)+1)
	lastWasSpace := true
	pos := 0

	for _, ch := range original {
		runeLen := utf8.RuneLen(ch)
		c := unicode.ToLower(ch)
		if c == '’' || c == '‘' {
			c = '\''
		}
		if c == '–' || c == '—' {
			c = '-'
		}
		if unicode.IsLetter(c) || unicode.IsDigit(c) || isJoiner(c) {
			for i := 0; i < utf8.RuneLen(c); i++ {
				mapping = append(mapping, pos)
			}
			lastWasSpace = false
		} else if !lastWasSpace {
			mapping = append(mapping, pos)
			lastWasSpace = true
		}
		pos += runeLen
	}
	mapping = append(mapping, pos)
	return mapping
}

func mapOffset(canonOffset int, mapping []int, originalLen int) int {
	if canonOffset >= len(mapping) {
		return originalLen
	}
	if canonOffset < 0 {
		return 0
	}
	return mapping[canonOffset]
}

// NamedEntity is the minimal shape Build needs from a store.Entity: enough
// to index its canonical name and aliases without this package importing
// internal/store.
type NamedEntity struct {
	ID      string
	Name    string
	Aliases []string
}

// Scanner is a compiled dictionary over a snapshot of known entities. It is
// immutable once built; callers rebuild it when the entity set changes
// (ingestion rebuilds it per batch rather than per message, since compiling
// the automaton dominates the cost of scanning with it).
type Scanner struct {
	ac           *ahocorasick.Automaton
	patternToIDs [][]string
	patternIndex map[string]int
}

// Build compiles a Scanner from entities. Entities with no name and no
// aliases contribute nothing. Two entities sharing a surface form (a
// common first name, say) both attach to that pattern; Scan reports every
// matching id and leaves disambiguation to the caller.
func Build(entities []NamedEntity) (*Scanner, error) {
	s := &Scanner{patternIndex: make(map[string]int)}
	var patterns []string

	add := func(id, surface string) {
		key := canonicalize(surface)
		if key == "" {
			return
		}
		if idx, ok := s.patternIndex[key]; ok {
			s.patternToIDs[idx] = appendUnique(s.patternToIDs[idx], id)
			return
		}
		idx := len(patterns)
		patterns = append(patterns, key)
		s.patternIndex[key] = idx
		s.patternToIDs = append(s.patternToIDs, []string{id})
	}

	for _, e := range entities {
		add(e.ID, e.Name)
		for _, alias := range e.Aliases {
			add(e.ID, alias)
		}
	}

	if len(patterns) == 0 {
		return s, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	s.ac = automaton
	return s, nil
}

// Mention is one entity surfaced by a Scan, anchored to the original text's
// byte offsets.
type Mention struct {
	EntityID    string
	Start       int
	End         int
	MatchedText string
}

// Scan finds every known entity mentioned in text. An entity whose name
// doesn't appear verbatim (only a fuzzy variant) is invisible to Scan — that
// gap is what pkg/fuzzy's stage-2 matching exists to close during ingestion;
// Scan covers the cheap exact-surface-form case in one automaton pass.
func (s *Scanner) Scan(text string) []Mention {
	if s == nil || s.ac == nil {
		return nil
	}

	canon := canonicalize(text)
	mapping := offsetMap(text)

	raw := s.ac.FindAllOverlapping([]byte(canon))
	var out []Mention
	for _, m := range raw {
		start := mapOffset(m.Start, mapping, len(text))
		end := mapOffset(m.End, mapping, len(text))
		if start >= end || end > len(text) {
			continue
		}
		for _, id := range s.patternToIDs[m.PatternID] {
			out = append(out, Mention{
				EntityID:    id,
				Start:       start,
				End:         end,
				MatchedText: text[start:end],
			})
		}
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
