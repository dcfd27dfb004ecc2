// Package resolver turns a raw mention (name, email, phone) into a canonical
// entity id, merging duplicates across heterogeneous ingestion sources.
package resolver

import (
	"context"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// MatchType records which pipeline stage produced a resolution.
type MatchType string

const (
	MatchNarrative MatchType = "narrative" // short-circuited by the recency/pronoun tracker
	MatchExact     MatchType = "exact"
	MatchFuzzy     MatchType = "fuzzy"
	MatchGraph     MatchType = "graph"
	MatchLLM       MatchType = "llm"
	MatchNew       MatchType = "new" // no stage matched; a new entity was created
)

// ResolveCandidate is one mention to resolve.
type ResolveCandidate struct {
	Name       string
	EntityType store.EntityType
	Email      string
	Phone      string
	// Attributes are additional typed facts (attr_type -> attr_value)
	// recorded when a new entity is created; a match to an existing entity
	// does not add them.
	Attributes map[string]string
}

// ResolveContext carries everything the pipeline needs beyond the candidate
// itself: the entities already in play in the current conversation, the
// surrounding text for an LLM tiebreak prompt, and tunable thresholds.
type ResolveContext struct {
	CoOccurringEntityIDs []string
	SurroundingText      string
	Tiebreaker           Tiebreaker

	// FuzzyThreshold is the minimum similarity to keep a candidate at all.
	// Defaults to 0.7 when zero.
	FuzzyThreshold float64
	// HighConfidenceThreshold is the score a single candidate needs to win
	// outright at the fuzzy or graph stage. Defaults to 0.9 when zero.
	HighConfidenceThreshold float64
}

// Tiebreaker is the optional LLM endpoint used at stage 4. Choice 0 means
// "none of these, create a new entity"; any other choice is a 1-based index
// into the candidate list presented in the prompt.
type Tiebreaker interface {
	Tiebreak(ctx context.Context, prompt string) (choice int, reason string, err error)
}

// ResolveResult is the outcome of running a candidate through the pipeline.
type ResolveResult struct {
	EntityID  string
	MatchType MatchType
	Score     float64
	Created   bool
}

// scoredCandidate tracks a candidate entity through the fuzzy and graph
// rescoring stages.
type scoredCandidate struct {
	entity *store.Entity
	score  float64
}
