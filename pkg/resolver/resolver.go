package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
	"github.com/buildingjoshbetter/kestrel/pkg/fuzzy"
)

const (
	defaultFuzzyThreshold          = 0.7
	defaultHighConfidenceThreshold = 0.9
	// graphProximityCap bounds how much shared-connection evidence can move
	// a fuzzy score; one shared connection is a meaningful signal, more than
	// three adds little further confidence.
	graphProximityCap       = 0.3
	graphProximityPerShared = 0.1
	maxTiebreakCandidates   = 5
)

// Resolver runs the staged entity-resolution pipeline against a store.
// A Resolver is meant to live for the duration of one ingestion batch: its
// narrative tracker accumulates recency state across calls to Resolve.
type Resolver struct {
	store     store.Storer
	log       zerolog.Logger
	narrative *narrativeContext
}

// New creates a Resolver bound to a store. A zero-value log is the nil-safe
// disabled logger.
func New(s store.Storer, log zerolog.Logger) *Resolver {
	return &Resolver{
		store:     s,
		log:       log,
		narrative: newNarrativeContext(),
	}
}

// Resolve runs candidate through the narrative short-circuit, then if that
// has no confident answer, through the 4-stage pipeline. Resolving the same
// candidate twice (with unchanged store state) returns the same entity id.
func (r *Resolver) Resolve(ctx context.Context, c ResolveCandidate, rc ResolveContext) (*ResolveResult, error) {
	if rc.FuzzyThreshold == 0 {
		rc.FuzzyThreshold = defaultFuzzyThreshold
	}
	if rc.HighConfidenceThreshold == 0 {
		rc.HighConfidenceThreshold = defaultHighConfidenceThreshold
	}

	if id := r.narrative.tryShortCircuit(c.Name); id != "" {
		r.narrative.pushMention(id)
		return &ResolveResult{EntityID: id, MatchType: MatchNarrative, Score: 1.0}, nil
	}

	result, err := r.resolvePipeline(ctx, c, rc)
	if err != nil {
		return nil, err
	}

	entity, err := r.store.GetEntity(result.EntityID)
	if err == nil && entity != nil {
		r.narrative.register(entityMetadata{ID: entity.ID, Name: entity.CanonicalName, Aliases: entity.Aliases})
	}
	r.narrative.pushMention(result.EntityID)
	return result, nil
}

func (r *Resolver) resolvePipeline(ctx context.Context, c ResolveCandidate, rc ResolveContext) (*ResolveResult, error) {
	// Stage 1: exact-attribute match.
	if result, err := r.exactAttributeMatch(c); err != nil {
		return nil, err
	} else if result != nil {
		return result, nil
	}

	// Stage 2: fuzzy-name match.
	candidates, err := r.store.ListEntities(string(c.EntityType))
	if err != nil {
		return nil, fmt.Errorf("resolver: list entities: %w", err)
	}

	scored := scoreCandidates(c.Name, candidates, rc.FuzzyThreshold)
	if len(scored) == 0 {
		return r.createEntity(c)
	}
	if winner, ok := soleWinner(scored, rc.HighConfidenceThreshold); ok {
		return &ResolveResult{EntityID: winner.entity.ID, MatchType: MatchFuzzy, Score: winner.score}, nil
	}

	// Stage 3: graph-proximity rescoring.
	r.applyGraphProximity(scored, rc.CoOccurringEntityIDs)
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if winner, ok := soleWinner(scored, rc.HighConfidenceThreshold); ok {
		return &ResolveResult{EntityID: winner.entity.ID, MatchType: MatchGraph, Score: winner.score}, nil
	}

	// Stage 4: LLM tiebreak.
	if rc.Tiebreaker != nil && len(scored) > 1 {
		result, err := r.llmTiebreak(ctx, c, scored, rc)
		if err != nil {
			r.log.Warn().Err(err).Msg("resolver: llm tiebreak failed, falling back to new entity")
		} else if result != nil {
			return result, nil
		}
	}

	return r.createEntity(c)
}

// exactAttributeMatch tries email (case-insensitive), then phone (last-10
// digits, trying leading-+ variants in order).
func (r *Resolver) exactAttributeMatch(c ResolveCandidate) (*ResolveResult, error) {
	if c.Email != "" {
		entity, err := r.store.FindEntityByAttribute("email", strings.ToLower(strings.TrimSpace(c.Email)))
		if err != nil {
			return nil, fmt.Errorf("resolver: email lookup: %w", err)
		}
		if entity != nil {
			return &ResolveResult{EntityID: entity.ID, MatchType: MatchExact, Score: 1.0}, nil
		}
	}
	if c.Phone != "" {
		for _, variant := range phoneLookupVariants(c.Phone) {
			entity, err := r.store.FindEntityByAttribute("phone", variant)
			if err != nil {
				return nil, fmt.Errorf("resolver: phone lookup: %w", err)
			}
			if entity != nil {
				return &ResolveResult{EntityID: entity.ID, MatchType: MatchExact, Score: 1.0}, nil
			}
		}
	}
	return nil, nil
}

func scoreCandidates(name string, entities []*store.Entity, threshold float64) []*scoredCandidate {
	var scored []*scoredCandidate
	for _, e := range entities {
		score := fuzzy.Score(name, e.CanonicalName)
		if score < threshold {
			for _, alias := range e.Aliases {
				if aliasScore := fuzzy.Score(name, alias); aliasScore > score {
					score = aliasScore
				}
			}
		}
		if score >= threshold {
			scored = append(scored, &scoredCandidate{entity: e, score: score})
		}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	return scored
}

// soleWinner reports whether exactly one candidate clears the
// high-confidence threshold while being strictly ahead of the runner-up.
func soleWinner(scored []*scoredCandidate, highConfidence float64) (*scoredCandidate, bool) {
	if len(scored) == 0 || scored[0].score < highConfidence {
		return nil, false
	}
	if len(scored) > 1 && scored[1].score >= highConfidence {
		return nil, false
	}
	return scored[0], true
}

// applyGraphProximity boosts each candidate's score by up to
// graphProximityCap, proportional to how many of its graph connections
// overlap with the co-occurring entity set.
func (r *Resolver) applyGraphProximity(scored []*scoredCandidate, coOccurring []string) {
	if len(coOccurring) == 0 {
		return
	}
	coSet := make(map[string]bool, len(coOccurring))
	for _, id := range coOccurring {
		coSet[id] = true
	}

	for _, sc := range scored {
		edges, err := r.store.ListEdgesForEntity(sc.entity.ID)
		if err != nil {
			continue
		}
		shared := 0
		for _, e := range edges {
			other := e.ToEntityID
			if other == sc.entity.ID {
				other = e.FromEntityID
			}
			if coSet[other] {
				shared++
			}
		}
		boost := float64(shared) * graphProximityPerShared
		if boost > graphProximityCap {
			boost = graphProximityCap
		}
		sc.score += boost
		if sc.score > 1.0 {
			sc.score = 1.0
		}
	}
}

// llmTiebreak presents the top candidates to the configured Tiebreaker.
// Choice 0 (or a call failure) returns nil, signalling "create a new entity".
func (r *Resolver) llmTiebreak(ctx context.Context, c ResolveCandidate, scored []*scoredCandidate, rc ResolveContext) (*ResolveResult, error) {
	top := scored
	if len(top) > maxTiebreakCandidates {
		top = top[:maxTiebreakCandidates]
	}

	choice, reason, err := rc.Tiebreaker.Tiebreak(ctx, tiebreakPrompt(c, top, rc.SurroundingText))
	if err != nil {
		return nil, err
	}
	r.log.Debug().Int("choice", choice).Str("reason", reason).Msg("resolver: llm tiebreak")

	if choice <= 0 || choice > len(top) {
		return nil, nil
	}
	return &ResolveResult{EntityID: top[choice-1].entity.ID, MatchType: MatchLLM, Score: top[choice-1].score}, nil
}

func tiebreakPrompt(c ResolveCandidate, candidates []*scoredCandidate, surroundingText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A message mentions %q. Which known entity is this, if any?\n\n", c.Name)
	for i, sc := range candidates {
		fmt.Fprintf(&b, "%d. %s (aliases: %s)\n", i+1, sc.entity.CanonicalName, strings.Join(sc.entity.Aliases, ", "))
	}
	if surroundingText != "" {
		fmt.Fprintf(&b, "\nSurrounding text:\n%s\n", surroundingText)
	}
	b.WriteString("\nRespond with JSON: {\"choice\": <0 for none of these, or the number above>, \"reason\": \"...\"}")
	return b.String()
}

// createEntity persists a brand new entity for a candidate that no stage
// confidently matched, recording every supplied attribute.
func (r *Resolver) createEntity(c ResolveCandidate) (*ResolveResult, error) {
	now := time.Now().UnixMilli()
	entity := &store.Entity{
		ID:            uuid.NewString(),
		CanonicalName: c.Name,
		EntityType:    c.EntityType,
		CreatedBy:     "extraction",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.store.UpsertEntity(entity); err != nil {
		return nil, fmt.Errorf("resolver: create entity: %w", err)
	}

	if c.Email != "" {
		r.addAttribute(entity.ID, "email", strings.ToLower(strings.TrimSpace(c.Email)), now)
	}
	if c.Phone != "" {
		r.addAttribute(entity.ID, "phone", canonicalPhone(c.Phone), now)
	}
	for attrType, attrValue := range c.Attributes {
		r.addAttribute(entity.ID, attrType, attrValue, now)
	}

	return &ResolveResult{EntityID: entity.ID, MatchType: MatchNew, Score: 0, Created: true}, nil
}

func (r *Resolver) addAttribute(entityID, attrType, attrValue string, now int64) {
	if attrValue == "" {
		return
	}
	err := r.store.UpsertEntityAttribute(&store.EntityAttribute{
		ID:         uuid.NewString(),
		EntityID:   entityID,
		AttrType:   attrType,
		AttrValue:  attrValue,
		Confidence: 1.0,
		CreatedAt:  now,
	})
	if err != nil {
		r.log.Warn().Err(err).Str("entity_id", entityID).Str("attr_type", attrType).Msg("resolver: attribute insert failed")
	}
}

// Merge folds mergeID into keepID via the storage layer's transactional
// merge, then clears any narrative-tracker state pointing at the absorbed
// id so later short-circuits resolve to the survivor.
func (r *Resolver) Merge(keepID, mergeID string) error {
	if err := r.store.MergeEntities(keepID, mergeID); err != nil {
		return fmt.Errorf("resolver: merge: %w", err)
	}
	delete(r.narrative.registry, mergeID)
	for i, id := range r.narrative.history {
		if id == mergeID {
			r.narrative.history[i] = keepID
		}
	}
	return nil
}
