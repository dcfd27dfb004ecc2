// Package fuzzy scores how alike two entity names are, the second stage of
// entity resolution after an exact attribute match has failed.
package fuzzy

import (
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// boostThreshold and prefixSize match the conventional Winkler defaults:
// names sharing at least this Jaro score get boosted by their common
// prefix, up to prefixSize runes.
const (
	boostThreshold = 0.7
	prefixSize     = 4

	// surnameBonusThreshold is the minimum surname Jaro-Winkler similarity
	// required, alongside a nickname-table first-name match, to clamp the
	// overall score upward.
	surnameBonusThreshold = 0.9
	// clampedScore is the floor applied when the surname bonus fires.
	clampedScore = 0.95
)

// honorifics and suffixes are stripped before scoring so "Dr. Jane Smith"
// and "Jane Smith, MD" compare on the name itself.
var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "mx": true,
	"dr": true, "prof": true, "professor": true, "sir": true, "dame": true,
	"rev": true, "fr": true, "capt": true, "col": true, "gen": true,
}

var suffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
	"md": true, "phd": true, "esq": true, "dds": true, "jd": true,
}

// nicknames maps a diminutive/nickname first name to its canonical form(s).
// Only the common-case direction is needed: both sides of a comparison are
// expanded to their canonical form before the surname bonus check, so either
// "Bill" vs "William" or "William" vs "Bill" match.
var nicknames = map[string]string{
	"bill": "william", "billy": "william", "will": "william",
	"bob": "robert", "bobby": "robert", "rob": "robert", "robbie": "robert",
	"dick": "richard", "rich": "richard", "richie": "richard",
	"jim": "james", "jimmy": "james", "jamie": "james",
	"joe": "joseph", "joey": "joseph",
	"jake": "jacob", "jakey": "jacob",
	"jack": "john", "johnny": "john",
	"mike": "michael", "mikey": "michael",
	"tom": "thomas", "tommy": "thomas",
	"tony": "anthony",
	"chris": "christopher", "topher": "christopher",
	"matt": "matthew",
	"dave": "david",
	"steve": "steven", "stevie": "steven",
	"nick": "nicholas", "nicky": "nicholas",
	"sam": "samuel", "sammy": "samuel",
	"ben": "benjamin", "benny": "benjamin",
	"alex": "alexander",
	"andy": "andrew", "drew": "andrew",
	"dan": "daniel", "danny": "daniel",
	"ed": "edward", "eddie": "edward", "ted": "edward",
	"ken": "kenneth", "kenny": "kenneth",
	"greg": "gregory",
	"larry": "lawrence",
	"charlie": "charles", "chuck": "charles",
	"frank": "francis",
	"gabe": "gabriel",
	"pat": "patrick", "paddy": "patrick",
	"beth": "elizabeth", "liz": "elizabeth", "lizzy": "elizabeth", "betty": "elizabeth", "eliza": "elizabeth",
	"kate": "katherine", "katie": "katherine", "kathy": "katherine", "kay": "katherine",
	"meg": "margaret", "peggy": "margaret", "maggie": "margaret",
	"sue": "susan", "suzy": "susan", "susie": "susan",
	"jenny": "jennifer", "jen": "jennifer",
	"cathy": "catherine", "cat": "catherine",
	"debbie": "deborah", "deb": "deborah",
	"sandy": "sandra",
	"vicky": "victoria", "vicki": "victoria",
	"patty": "patricia", "trish": "patricia", "tricia": "patricia",
	"abby": "abigail",
	"cindy": "cynthia",
	"gwen": "gwendolyn",
	"penny": "penelope",
	"sally": "sarah",
	"annie": "anne", "anna": "anne",
}

// Score returns the similarity of a and b in [0, 1], computed on their
// normalized forms. 1 means identical after normalization. Beyond raw
// Jaro-Winkler, a first-name nickname-table match combined with a strong
// surname match clamps the result to at least clampedScore, since "Bill
// Harris" and "William Harris" are more alike than their letter-level
// Jaro-Winkler distance alone suggests.
func Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	base := smetrics.JaroWinkler(na, nb, boostThreshold, prefixSize)

	if bonus, ok := surnameBonus(na, nb); ok && bonus > base {
		return bonus
	}
	return base
}

// surnameBonus checks whether a and b share a nickname-equivalent first name
// and a strongly-matching surname, returning clampedScore when they do.
func surnameBonus(na, nb string) (float64, bool) {
	firstA, lastA := splitName(na)
	firstB, lastB := splitName(nb)
	if lastA == "" || lastB == "" {
		return 0, false
	}
	if canonicalFirst(firstA) != canonicalFirst(firstB) {
		return 0, false
	}
	if smetrics.JaroWinkler(lastA, lastB, boostThreshold, prefixSize) < surnameBonusThreshold {
		return 0, false
	}
	return clampedScore, true
}

func canonicalFirst(first string) string {
	if canon, ok := nicknames[first]; ok {
		return canon
	}
	return first
}

// splitName returns the first token and the final token of a normalized,
// space-separated name. For a single-token name, last is empty.
func splitName(s string) (first, last string) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[len(parts)-1]
}

// Normalize folds a name to lowercase, strips honorifics and generational
// or professional suffixes, and collapses whitespace/punctuation runs to
// single spaces, so fuzzy scores are computed on comparable strings. It is
// not the same as pkg/mention's canonicalization, which keeps name joiners
// and does not strip honorifics or suffixes.
func Normalize(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	lastWasSpace := true
	for _, r := range s {
		c := unicode.ToLower(r)
		if c == '’' || c == '‘' {
			c = '\''
		}
		switch {
		case unicode.IsLetter(c) || unicode.IsDigit(c) || c == '\'' || c == '-':
			out.WriteRune(c)
			lastWasSpace = false
		default:
			if !lastWasSpace {
				out.WriteRune(' ')
				lastWasSpace = true
			}
		}
	}

	return stripNameTokens(strings.TrimSpace(out.String()))
}

// stripNameTokens drops honorific and suffix tokens (e.g. "dr", "jr") from a
// space-separated, already-lowercased name.
func stripNameTokens(s string) string {
	parts := strings.Fields(s)
	if len(parts) <= 1 {
		return s
	}

	kept := parts[:0:0]
	for _, p := range parts {
		bare := strings.TrimRight(p, ".")
		if honorifics[bare] || suffixes[bare] {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return s
	}
	return strings.Join(kept, " ")
}

// BestMatch scans candidates and returns the index of the highest-scoring
// one along with its score. Returns (-1, 0) for an empty candidate list.
func BestMatch(name string, candidates []string) (int, float64) {
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		if score := Score(name, c); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}
