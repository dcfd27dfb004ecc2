// Package store provides SQLite-backed persistence for the knowledge
// engine: entities, bi-temporal assertions, commitments, goals, style and
// engagement tables, the behavioral event log, and context boundaries.
package store

// EntityType closes the set of canonical entity kinds.
type EntityType string

const (
	EntityPerson EntityType = "person"
	EntityOrg    EntityType = "org"
	EntityPlace  EntityType = "place"
	EntityThing  EntityType = "thing"
)

// Entity is a canonical person/org/place/thing node in the knowledge graph.
// Aliases is retained for fast label lookups; the authoritative alias list
// lives in EntityAttribute rows of type "alias" once a merge has occurred.
type Entity struct {
	ID            string     `json:"id"`
	CanonicalName string     `json:"canonicalName"`
	EntityType    EntityType `json:"entityType"`
	Aliases       []string   `json:"aliases"`
	TotalMentions int        `json:"totalMentions"`
	CreatedBy     string     `json:"createdBy"` // "user" | "extraction" | "auto"
	// MergeHistory lists every entity id ever folded into this one, in
	// merge order. Once an id appears here it must never be a live entity.
	MergeHistory []string `json:"mergeHistory"`
	CreatedAt    int64    `json:"createdAt"`
	UpdatedAt    int64    `json:"updatedAt"`
}

// EntityAttribute is a typed fact about an entity: email, phone, alias,
// name parts, and open-ended extensions. Unique on (EntityID, AttrType, AttrValue).
type EntityAttribute struct {
	ID                string  `json:"id"`
	EntityID          string  `json:"entityId"`
	AttrType          string  `json:"attrType"`
	AttrValue         string  `json:"attrValue"`
	Confidence        float64 `json:"confidence"`
	SourceAssertionID string  `json:"sourceAssertionId,omitempty"`
	CreatedAt         int64   `json:"createdAt"`
}

// GraphEdge is a relationship between two entities. Unique on
// (FromEntityID, ToEntityID, EdgeType). "communicates_with" is the primary
// communication-density signal; other edge types are asserted explicitly.
type GraphEdge struct {
	ID             string  `json:"id"`
	FromEntityID   string  `json:"fromEntityId"`
	ToEntityID     string  `json:"toEntityId"`
	EdgeType       string  `json:"edgeType"`
	Strength       float64 `json:"strength"`
	EvidenceCount  int     `json:"evidenceCount"`
	LastEvidenceAt int64   `json:"lastEvidenceAt"`
	CreatedAt      int64   `json:"createdAt"`
}

// Storer defines the interface for data persistence.
// SQLiteStore, backed by an in-process SQLite database, is the sole
// implementation.
type Storer interface {
	// Entities
	UpsertEntity(entity *Entity) error
	GetEntity(id string) (*Entity, error)
	GetEntityByName(name string) (*Entity, error)
	DeleteEntity(id string) error
	ListEntities(entityType string) ([]*Entity, error)
	SearchEntitiesLike(query string, limit int) ([]*Entity, error)
	CountEntities() (int, error)
	MergeEntities(keepID, mergeID string) error

	// Edges (graph)
	UpsertEdge(edge *GraphEdge) error
	GetEdge(id string) (*GraphEdge, error)
	DeleteEdge(id string) error
	ListEdgesForEntity(entityID string) ([]*GraphEdge, error)
	CountEdges() (int, error)

	// EntityAttributes
	UpsertEntityAttribute(attr *EntityAttribute) error
	ListEntityAttributes(entityID string) ([]*EntityAttribute, error)
	DeleteEntityAttribute(id string) error
	FindEntityByAttribute(attrType, attrValue string) (*Entity, error)

	// Assertions (bi-temporal belief store)
	InsertAssertion(a *Assertion) error
	GetAssertion(id string) (*Assertion, error)
	UpdateAssertion(a *Assertion) error
	AssertionsAsOf(entityID string, t int64, predicate string, includeSuperseded bool) ([]*Assertion, error)
	ListAssertionsForSubject(entityID string) ([]*Assertion, error)
	TopAssertionsForSubject(entityID string, limit int) ([]*Assertion, error)
	SearchAssertionsLike(query string, limit int) ([]*Assertion, error)
	ListAssertionsOlderThan(cutoff int64) ([]*Assertion, error)
	InsertBeliefRevision(r *BeliefRevisionLog) error

	// Belief contradictions
	InsertContradiction(c *BeliefContradiction) error
	GetContradiction(id string) (*BeliefContradiction, error)
	UpdateContradiction(c *BeliefContradiction) error
	ListPendingContradictions() ([]*BeliefContradiction, error)

	// Messages (ingested communications)
	InsertMessage(m *Message) error
	GetMessageBySource(sourceType, sourceID string) (*Message, error)
	ListUnprocessedMessages(limit int) ([]*Message, error)
	ListMessagesByThread(threadID string) ([]*Message, error)
	SearchMessagesFTS(query string, limit int) ([]*Message, error)
	EntityInteractionStats(entityID string) (count int, lastInteractionAt int64, err error)
	MarkMessageProcessed(id string) error

	// Events (behavioral spine)
	InsertEvent(e *Event) error
	ListUnprocessedEvents(limit int) ([]*Event, error)
	ListEventsSince(since int64) ([]*Event, error)
	MarkEventProcessed(id string) error

	// Commitments
	UpsertCommitment(c *Commitment) error
	GetCommitment(id string) (*Commitment, error)
	ListOpenCommitments() ([]*Commitment, error)
	ListOverdueCommitments(now int64) ([]*Commitment, error)
	ListDueReminders(now, withinMillis int64) ([]*Commitment, error)

	// Goals
	UpsertGoal(g *Goal) error
	GetGoal(id string) (*Goal, error)
	ListGoalChildren(parentID string) ([]*Goal, error)
	ListActiveGoals() ([]*Goal, error)
	DetachGoalChildren(parentID string) error
	LinkGoalCommitment(goalID, commitmentID string) error
	ListGoalCommitments(goalID string) ([]string, error)

	// Style & engagement
	GetStyleProfile() (*StyleProfile, error)
	UpsertStyleProfile(p *StyleProfile) error
	GetRecipientStyle(entityID string) (*RecipientStyleProfile, error)
	UpsertRecipientStyle(p *RecipientStyleProfile) error
	InsertEngagementEvent(e *EngagementEvent) error
	InsertPersonalityEvolution(p *PersonalityEvolution) error

	// Behavioral engine
	UpsertPattern(p *DetectedPattern) error
	FindPatternBySignature(patternType, signature string) (*DetectedPattern, error)
	ListPatterns(minStrength float64) ([]*DetectedPattern, error)
	UpsertRhythmSlot(r *RhythmSlot) error
	ListRhythmSlots() ([]*RhythmSlot, error)
	InsertPrediction(p *Prediction) error
	ListDuePredictions(now int64) ([]*Prediction, error)
	ListUnverifiedPredictionsBefore(cutoff int64) ([]*Prediction, error)
	MarkPredictionVerified(id string, wasCorrect bool) error
	InsertProactiveTrigger(t *ProactiveTrigger) error
	HasRecentTrigger(dedupeKey string, since int64) (bool, error)

	// Context boundaries
	UpsertContextBoundary(b *ContextBoundary) error
	GetContextBoundary(name string) (*ContextBoundary, error)
	ListContextBoundaries() ([]*ContextBoundary, error)
	UpsertActiveContext(a *ActiveContext) error
	GetActiveContext(sessionID string) (*ActiveContext, error)

	// ReadSnapshot holds the store's read lock across fn so a caller
	// needing several consistent reads doesn't race a concurrent writer.
	ReadSnapshot(fn func() error) error

	// Lifecycle
	Close() error
}
