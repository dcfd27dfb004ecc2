package retrieval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/orsinium-labs/stopwords"

	"github.com/buildingjoshbetter/kestrel/internal/store"
	"github.com/buildingjoshbetter/kestrel/pkg/fuzzy"
)

// englishStopwords filters noise tokens ("the", "my", "with") out of a
// query before it's treated as a candidate entity name.
var englishStopwords = stopwords.MustGet("en")

const directMentionFuzzyThreshold = 0.75

// possessivePattern matches "X's Y" and "X' Y" (trailing-s names), capturing
// the possessor and the relation word.
var possessivePattern = regexp.MustCompile(`(?i)^\s*(.+?)(?:'s|')\s+(\w+)\s*$`)

// relationToEdgeTypes maps a possessive relation word to the edge types
// that answer it. A word maps to more than one edge type when the relation
// is ambiguous without more context (e.g. "wife" could have been asserted
// as either family or spouse).
var relationToEdgeTypes = map[string][]string{
	"boss":       {store.EdgeReportsTo},
	"manager":    {store.EdgeReportsTo},
	"supervisor": {store.EdgeReportsTo},
	"report":     {store.EdgeManages},
	"wife":       {store.EdgeSpouse, store.EdgeFamily},
	"husband":    {store.EdgeSpouse, store.EdgeFamily},
	"spouse":     {store.EdgeSpouse, store.EdgeFamily},
	"partner":    {store.EdgeSpouse, store.EdgeFamily},
	"family":     {store.EdgeFamily},
	"mother":     {store.EdgeFamily},
	"father":     {store.EdgeFamily},
	"sister":     {store.EdgeFamily},
	"brother":    {store.EdgeFamily},
	"kid":        {store.EdgeFamily},
	"child":      {store.EdgeFamily},
	"colleague":  {store.EdgeWorksWith},
	"coworker":   {store.EdgeWorksWith},
	"teammate":   {store.EdgeWorksWith},
	"friend":     {store.EdgeFriendOf},
	"team":       {store.EdgeMemberOf},
	"company":    {store.EdgeMemberOf},
}

const graphFuzzyThreshold = 0.6

// searchGraph parses a possessive pattern out of query ("my boss's wife",
// "Alice's manager"), fuzzy-matches the possessor to a known entity, maps
// the relation word to edge types, and returns the connected entities (and
// a highlight drawn from the edge) as graph-walk results. Queries that
// don't parse as a possessive go to searchGraphByDirectMention instead; a
// possessive whose relation word is unknown returns no results, not an
// error.
func (e *Engine) searchGraph(query string) ([]Result, error) {
	possessor, relation, ok := parsePossessive(query)
	if !ok {
		return e.searchGraphByDirectMention(query)
	}

	edgeTypes, ok := relationToEdgeTypes[strings.ToLower(relation)]
	if !ok {
		return nil, nil
	}

	entities, err := e.store.ListEntities("")
	if err != nil {
		return nil, fmt.Errorf("retrieval: graph walk: list entities: %w", err)
	}
	if len(entities) == 0 {
		return nil, nil
	}

	names := make([]string, len(entities))
	for i, ent := range entities {
		names[i] = ent.CanonicalName
	}
	idx, score := fuzzy.BestMatch(possessor, names)
	if idx < 0 || score < graphFuzzyThreshold {
		return nil, nil
	}
	anchor := entities[idx]

	edges, err := e.store.ListEdgesForEntity(anchor.ID)
	if err != nil {
		return nil, fmt.Errorf("retrieval: graph walk: list edges: %w", err)
	}

	wantedType := map[string]bool{}
	for _, t := range edgeTypes {
		wantedType[t] = true
	}

	var results []Result
	for _, edge := range edges {
		if !wantedType[edge.EdgeType] {
			continue
		}
		otherID := edge.ToEntityID
		if otherID == anchor.ID {
			otherID = edge.FromEntityID
		}
		other, err := e.store.GetEntity(otherID)
		if err != nil || other == nil {
			continue
		}
		results = append(results, Result{
			Type:      ResultEntity,
			ID:        other.ID,
			Highlight: fmt.Sprintf("%s's %s: %s", anchor.CanonicalName, relation, other.CanonicalName),
		})
	}
	return results, nil
}

func parsePossessive(query string) (possessor, relation string, ok bool) {
	m := possessivePattern.FindStringSubmatch(query)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// searchGraphByDirectMention handles queries that name an entity without a
// possessive relation ("anything from Alice Chen lately?"): it strips
// stopwords, fuzzy-matches what's left against known entity names, and
// returns the entity itself when the match is confident.
func (e *Engine) searchGraphByDirectMention(query string) ([]Result, error) {
	stripped := stripStopwords(query)
	if stripped == "" {
		return nil, nil
	}

	entities, err := e.store.ListEntities("")
	if err != nil {
		return nil, fmt.Errorf("retrieval: graph direct mention: list entities: %w", err)
	}
	if len(entities) == 0 {
		return nil, nil
	}

	names := make([]string, len(entities))
	for i, ent := range entities {
		names[i] = ent.CanonicalName
	}
	idx, score := fuzzy.BestMatch(stripped, names)
	if idx < 0 || score < directMentionFuzzyThreshold {
		return nil, nil
	}
	match := entities[idx]
	return []Result{{
		Type:      ResultEntity,
		ID:        match.ID,
		Highlight: match.CanonicalName,
	}}, nil
}

// stripStopwords drops common English noise words, leaving the terms most
// likely to be part of an entity's name.
func stripStopwords(query string) string {
	words := strings.Fields(query)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if englishStopwords.Contains(strings.ToLower(w)) {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
