// Package assembler gathers everything known about a query — a primary
// entity, its relationships, relevant beliefs, open commitments, active
// goals, and thread state — into one consistent bundle for an LLM prompt.
package assembler

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

const (
	topAssertionLimit    = 10
	relatedEntitiesLimit = 10
)

// Engine wraps a store.Storer with the assembly operation.
type Engine struct {
	store store.Storer
	log   zerolog.Logger
}

// New creates an Engine bound to s.
func New(s store.Storer, log zerolog.Logger) *Engine {
	return &Engine{store: s, log: log}
}

// Request is the input to Assemble: the primary entity's id, plus an
// optional thread to pull conversation state from. There is no free-text
// lookup; EntityID must name an existing entity.
type Request struct {
	EntityID string
	ThreadID string
}

// PrimaryEntitySummary is the primary entity plus the summary facts the
// assembler derives about it.
type PrimaryEntitySummary struct {
	Entity            *store.Entity
	Attributes        []*store.EntityAttribute
	InteractionCount  int
	LastInteractionAt int64
}

// RelatedEntity is a connected entity plus the edge that connects it.
type RelatedEntity struct {
	Entity *store.Entity
	Edge   *store.GraphEdge
}

// Bundle is the full structured result of one Assemble call.
type Bundle struct {
	Primary          *PrimaryEntitySummary
	RelatedEntities  []RelatedEntity
	TopAssertions    []*store.Assertion
	OpenCommitments  []*store.Commitment
	RelatedGoals     []*store.Goal
	ThreadMessages   []*store.Message
	AssemblyDuration time.Duration
}

// Assemble gathers a Bundle for req inside a single read snapshot, so a
// concurrent write can't leave the bundle observing two different points
// in time across its several component reads.
func (e *Engine) Assemble(req Request) (*Bundle, error) {
	start := time.Now()
	bundle := &Bundle{}

	err := e.store.ReadSnapshot(func() error {
		entity, err := e.store.GetEntity(req.EntityID)
		if err != nil {
			return fmt.Errorf("assembler: load primary entity: %w", err)
		}
		if entity == nil {
			return fmt.Errorf("assembler: no such entity %q", req.EntityID)
		}

		attrs, err := e.store.ListEntityAttributes(entity.ID)
		if err != nil {
			return fmt.Errorf("assembler: load attributes: %w", err)
		}

		count, lastAt, err := e.store.EntityInteractionStats(entity.ID)
		if err != nil {
			return fmt.Errorf("assembler: load interaction stats: %w", err)
		}

		bundle.Primary = &PrimaryEntitySummary{
			Entity:            entity,
			Attributes:        attrs,
			InteractionCount:  count,
			LastInteractionAt: lastAt,
		}

		related, err := e.loadRelatedEntities(entity.ID)
		if err != nil {
			return err
		}
		bundle.RelatedEntities = related

		topAssertions, err := e.store.TopAssertionsForSubject(entity.ID, topAssertionLimit)
		if err != nil {
			return fmt.Errorf("assembler: load assertions: %w", err)
		}
		bundle.TopAssertions = topAssertions

		commitments, err := e.loadRelatedCommitments(entity.ID)
		if err != nil {
			return err
		}
		bundle.OpenCommitments = commitments

		goals, err := e.loadRelatedGoals(entity.ID)
		if err != nil {
			return err
		}
		bundle.RelatedGoals = goals

		if req.ThreadID != "" {
			messages, err := e.store.ListMessagesByThread(req.ThreadID)
			if err != nil {
				return fmt.Errorf("assembler: load thread messages: %w", err)
			}
			bundle.ThreadMessages = messages
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	bundle.AssemblyDuration = time.Since(start)
	e.log.Debug().Dur("duration", bundle.AssemblyDuration).Str("entity_id", req.EntityID).Msg("assembled context bundle")
	return bundle, nil
}

func (e *Engine) loadRelatedEntities(entityID string) ([]RelatedEntity, error) {
	edges, err := e.store.ListEdgesForEntity(entityID)
	if err != nil {
		return nil, fmt.Errorf("assembler: load edges: %w", err)
	}
	var related []RelatedEntity
	for _, edge := range edges {
		if len(related) >= relatedEntitiesLimit {
			break
		}
		otherID := edge.ToEntityID
		if otherID == entityID {
			otherID = edge.FromEntityID
		}
		other, err := e.store.GetEntity(otherID)
		if err != nil {
			return nil, fmt.Errorf("assembler: load related entity: %w", err)
		}
		if other == nil {
			continue
		}
		related = append(related, RelatedEntity{Entity: other, Edge: edge})
	}
	return related, nil
}

func (e *Engine) loadRelatedCommitments(entityID string) ([]*store.Commitment, error) {
	open, err := e.store.ListOpenCommitments()
	if err != nil {
		return nil, fmt.Errorf("assembler: load commitments: %w", err)
	}
	var related []*store.Commitment
	for _, c := range open {
		if c.OwnerEntityID == entityID || c.CounterpartyEntityID == entityID {
			related = append(related, c)
		}
	}
	return related, nil
}

func (e *Engine) loadRelatedGoals(entityID string) ([]*store.Goal, error) {
	active, err := e.store.ListActiveGoals()
	if err != nil {
		return nil, fmt.Errorf("assembler: load goals: %w", err)
	}
	var related []*store.Goal
	for _, g := range active {
		for _, rel := range g.RelatedEntities {
			if rel == entityID {
				related = append(related, g)
				break
			}
		}
	}
	return related, nil
}

// Render produces a human/LLM-readable plain-text rendering of the bundle.
func (b *Bundle) Render() string {
	var sb strings.Builder

	if b.Primary != nil {
		fmt.Fprintf(&sb, "# %s\n", b.Primary.Entity.CanonicalName)
		fmt.Fprintf(&sb, "Mentions: %d · Interactions: %d", b.Primary.Entity.TotalMentions, b.Primary.InteractionCount)
		if b.Primary.LastInteractionAt > 0 {
			fmt.Fprintf(&sb, " · Last contact: %s", time.UnixMilli(b.Primary.LastInteractionAt).Format("2006-01-02"))
		}
		sb.WriteString("\n")
		for _, attr := range b.Primary.Attributes {
			fmt.Fprintf(&sb, "- %s: %s\n", attr.AttrType, attr.AttrValue)
		}
	}

	if len(b.RelatedEntities) > 0 {
		sb.WriteString("\n## Related\n")
		for _, r := range b.RelatedEntities {
			fmt.Fprintf(&sb, "- %s (%s)\n", r.Entity.CanonicalName, r.Edge.EdgeType)
		}
	}

	if len(b.TopAssertions) > 0 {
		sb.WriteString("\n## Known facts\n")
		for _, a := range b.TopAssertions {
			fmt.Fprintf(&sb, "- %s %s (confidence %.2f)\n", a.Predicate, a.ObjectText, a.Confidence)
		}
	}

	if len(b.OpenCommitments) > 0 {
		sb.WriteString("\n## Open commitments\n")
		for _, c := range b.OpenCommitments {
			fmt.Fprintf(&sb, "- %s\n", c.Description)
		}
	}

	if len(b.RelatedGoals) > 0 {
		sb.WriteString("\n## Related goals\n")
		for _, g := range b.RelatedGoals {
			fmt.Fprintf(&sb, "- %s\n", g.Description)
		}
	}

	if len(b.ThreadMessages) > 0 {
		sb.WriteString("\n## Recent thread\n")
		for _, m := range b.ThreadMessages {
			speaker := "them"
			if m.IsFromUser {
				speaker = "you"
			}
			fmt.Fprintf(&sb, "- %s: %s\n", speaker, m.BodyText)
		}
	}

	return sb.String()
}
