package extraction

import (
	"strings"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// maxTextLength bounds how much of a message body is sent to the LLM per
// call.
const maxTextLength = 8000

const systemPrompt = `You are a fact and relationship extraction assistant for a personal knowledge engine.
Extract factual statements AND relationships between people from the given text.
Return ONLY a valid JSON object with two arrays: "facts" and "relations".
No markdown, no explanation. Start with { and end with }.`

// edgeTypeVocabulary lists the edge types offered to the LLM for prompt
// construction, drawn from internal/store's closed vocabulary
// (store.IsValidEdgeType); communicates_with and mentions are not offered.
var edgeTypeVocabulary = []string{
	store.EdgeReportsTo, store.EdgeManages, store.EdgeFamily, store.EdgeSpouse,
	store.EdgeWorksWith, store.EdgeMemberOf, store.EdgeFriendOf, store.EdgeKnows,
}

// buildPrompt constructs the extraction prompt. knownEntities primes the
// LLM with canonical names already in the entity registry so it prefers
// reusing a known subject/object over inventing a new name.
func buildPrompt(text string, knownEntities []string) string {
	if len(text) > maxTextLength {
		text = text[:maxTextLength]
	}

	var sb strings.Builder
	sb.WriteString("Extract facts AND relationships from this text. ")
	sb.WriteString("Return a JSON object with two arrays: \"facts\" and \"relations\".\n\n")

	if len(knownEntities) > 0 {
		sb.WriteString("KNOWN ENTITIES (prefer these over inventing new names):\n")
		sb.WriteString(strings.Join(knownEntities, ", "))
		sb.WriteString("\n\n")
	}

	sb.WriteString("=== FACTS ===\n")
	sb.WriteString("Each fact object:\n")
	sb.WriteString("- \"subject\": the entity the fact is about (string)\n")
	sb.WriteString("- \"predicate\": the attribute, e.g. company, title, birthday, location (string)\n")
	sb.WriteString("- \"object\": the value (string)\n")
	sb.WriteString("- \"confidence\": 0.0-1.0 (number)\n")
	sb.WriteString("- \"sourceSentence\": the exact sentence this came from (string)\n\n")

	sb.WriteString("=== RELATIONS ===\n")
	sb.WriteString("Each relation object:\n")
	sb.WriteString("- \"subject\": the entity the relationship starts from (string)\n")
	sb.WriteString("- \"object\": the entity on the other end (string)\n")
	sb.WriteString("- \"edgeType\": one of: " + strings.Join(edgeTypeVocabulary, ", ") + "\n")
	sb.WriteString("- \"confidence\": 0.0-1.0 (number)\n")
	sb.WriteString("- \"sourceSentence\": the exact sentence this came from (string)\n\n")

	sb.WriteString("RULES:\n")
	sb.WriteString("1. Only extract facts/relations explicitly stated or clearly implied — don't guess\n")
	sb.WriteString("2. Skip generic statements with no named subject\n")
	sb.WriteString("3. confidence >= 0.8 for explicit statements, 0.5-0.8 for implied\n")
	sb.WriteString("4. If nothing qualifies, return empty arrays\n\n")

	sb.WriteString("TEXT:\n")
	sb.WriteString(text)

	return sb.String()
}
