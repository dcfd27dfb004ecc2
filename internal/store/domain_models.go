package store

// Assertion is a bi-temporal subject-predicate-object fact with provenance.
// Exactly one of ObjectText / ObjectEntityID is typically populated.
// SupersededByID forms a linear chain ending at the current version.
type Assertion struct {
	ID               string  `json:"id"`
	SubjectEntityID  string  `json:"subjectEntityId,omitempty"`
	Predicate        string  `json:"predicate"`
	ObjectText       string  `json:"objectText,omitempty"`
	ObjectEntityID   string  `json:"objectEntityId,omitempty"`
	Confidence       float64 `json:"confidence"`
	SourceType       string  `json:"sourceType"`
	SourceID         string  `json:"sourceId"`
	SourceTimestamp  int64   `json:"sourceTimestamp,omitempty"`
	ExtractedAt      int64   `json:"extractedAt"`
	ValidFrom        int64   `json:"validFrom,omitempty"`
	ValidUntil       int64   `json:"validUntil,omitempty"`
	SupersedesID     string  `json:"supersedesId,omitempty"`
	SupersededByID   string  `json:"supersededById,omitempty"`
}

// BeliefRevisionLog is an append-only audit of confidence adjustments made
// by the belief store, independent of PersonalityEvolution (style audits).
type BeliefRevisionLog struct {
	ID            string  `json:"id"`
	AssertionID   string  `json:"assertionId"`
	OldConfidence float64 `json:"oldConfidence"`
	NewConfidence float64 `json:"newConfidence"`
	Reason        string  `json:"reason"` // "contradiction" | "decay" | "user_resolution"
	Detail        string  `json:"detail,omitempty"`
	RecordedAt    int64   `json:"recordedAt"`
}

// ContradictionType closes the set of ways two assertions can disagree.
type ContradictionType string

const (
	ContradictionDirect     ContradictionType = "direct"
	ContradictionTemporal   ContradictionType = "temporal"
	ContradictionConfidence ContradictionType = "confidence"
)

// ResolutionStatus is the contradiction state machine: pending -> {resolved,
// escalated}; escalated -> resolved (only via a human decision).
type ResolutionStatus string

const (
	ResolutionPending   ResolutionStatus = "pending"
	ResolutionResolved  ResolutionStatus = "resolved"
	ResolutionEscalated ResolutionStatus = "escalated"
)

// BeliefContradiction records two assertions that disagree.
type BeliefContradiction struct {
	ID                 string            `json:"id"`
	AssertionID1       string            `json:"assertionId1"`
	AssertionID2       string            `json:"assertionId2"`
	DetectedAt         int64             `json:"detectedAt"`
	ContradictionType  ContradictionType `json:"contradictionType"`
	Severity           float64           `json:"severity"`
	ResolutionStatus   ResolutionStatus  `json:"resolutionStatus"`
	ResolvedAt         int64             `json:"resolvedAt,omitempty"`
	ResolutionMethod   string            `json:"resolutionMethod,omitempty"`
	WinningAssertionID string            `json:"winningAssertionId,omitempty"`
}

// Recipient is one addressee of a Message.
type Recipient struct {
	EntityID string `json:"entityId,omitempty"`
	Email    string `json:"email,omitempty"`
	Type     string `json:"type"` // "to" | "cc" | "bcc"
}

// Message is a normalized, ingested communication. Unique on
// (SourceType, SourceID).
type Message struct {
	ID             string      `json:"id"`
	SourceType     string      `json:"sourceType"`
	SourceID       string      `json:"sourceId"`
	ThreadID       string      `json:"threadId,omitempty"`
	SenderEntityID string      `json:"senderEntityId,omitempty"`
	Recipients     []Recipient `json:"recipients"`
	Subject        string      `json:"subject,omitempty"`
	BodyText       string      `json:"bodyText"`
	BodyHTML       string      `json:"bodyHtml,omitempty"`
	Timestamp      int64       `json:"timestamp"`
	IsFromUser     bool        `json:"isFromUser"`
	Processed      bool        `json:"processed"`
}

// Event is a node on the behavioral spine; everything downstream of
// ingestion (patterns, rhythms, predictions) consumes events.
type Event struct {
	ID          string                 `json:"id"`
	EventType   string                 `json:"eventType"`
	Timestamp   int64                  `json:"timestamp"`
	Payload     map[string]interface{} `json:"payload"`
	ContextType string                 `json:"contextType,omitempty"`
	EntityIDs   []string               `json:"entityIds"`
	Processed   bool                   `json:"processed"`
}

// CommitmentType closes the set of commitment kinds.
type CommitmentType string

const (
	CommitmentPromise CommitmentType = "promise"
	CommitmentAsk     CommitmentType = "ask"
	CommitmentDecision CommitmentType = "decision"
	CommitmentDeadline CommitmentType = "deadline"
	CommitmentMeeting  CommitmentType = "meeting"
)

// CommitmentStatus closes the set of commitment lifecycle states.
type CommitmentStatus string

const (
	CommitmentOpen      CommitmentStatus = "open"
	CommitmentCompleted CommitmentStatus = "completed"
	CommitmentBroken    CommitmentStatus = "broken"
	CommitmentCancelled CommitmentStatus = "cancelled"
)

// Commitment is a promise, ask, decision, deadline, or meeting. A
// commitment without DueDate never appears in deadline scans.
type Commitment struct {
	ID                 string           `json:"id"`
	Type               CommitmentType   `json:"type"`
	Description        string           `json:"description"`
	OwnerEntityID       string           `json:"ownerEntityId,omitempty"`
	CounterpartyEntityID string          `json:"counterpartyEntityId,omitempty"`
	DueDate             int64            `json:"dueDate,omitempty"`
	Status              CommitmentStatus `json:"status"`
	SourceType          string           `json:"sourceType,omitempty"`
	SourceID            string           `json:"sourceId,omitempty"`
	CreatedAt           int64            `json:"createdAt"`
	CompletedAt         int64            `json:"completedAt,omitempty"`
	ReminderSent        bool             `json:"reminderSent"`
}

// GoalType closes the set of goal horizons.
type GoalType string

const (
	GoalShortTerm GoalType = "short_term"
	GoalLongTerm  GoalType = "long_term"
	GoalProject   GoalType = "project"
)

// GoalStatus closes the set of goal lifecycle states.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

// Goal is a node in an acyclic forest of short/long-term objectives.
// Deleting a goal detaches (not orphans) its children: ParentGoalID is set
// to empty, never left pointing at a dangling id.
type Goal struct {
	ID             string     `json:"id"`
	Description    string     `json:"description"`
	GoalType       GoalType   `json:"goalType"`
	Status         GoalStatus `json:"status"`
	ParentGoalID   string     `json:"parentGoalId,omitempty"`
	RelatedEntities []string  `json:"relatedEntities"`
	CreatedAt      int64      `json:"createdAt"`
	TargetDate     int64      `json:"targetDate,omitempty"`
	CompletedAt    int64      `json:"completedAt,omitempty"`
}

// StyleProfile is the single record describing the user's own
// communication style, keyed implicitly (one row per database).
type StyleProfile struct {
	Formality         float64  `json:"formality"`
	Verbosity         float64  `json:"verbosity"`
	EmojiDensity      float64  `json:"emojiDensity"`
	AvgMessageLength  float64  `json:"avgMessageLength"`
	GreetingPatterns  []string `json:"greetingPatterns"`
	SignoffPatterns   []string `json:"signoffPatterns"`
	SignaturePhrases  []string `json:"signaturePhrases"`
	InteractionCount  int      `json:"interactionCount"`
	UpdatedAt         int64    `json:"updatedAt"`
}

// RecipientStyleProfile is the style the user adopts with one recipient.
// RelationshipType is a nullable derived field (see SPEC_FULL.md design
// notes): no code path here writes it authoritatively.
type RecipientStyleProfile struct {
	EntityID              string   `json:"entityId"`
	Formality             float64  `json:"formality"`
	Warmth                float64  `json:"warmth"`
	EmojiUsage            float64  `json:"emojiUsage"`
	AvgResponseTimeHours  float64  `json:"avgResponseTimeHours,omitempty"`
	ExampleMessages       []string `json:"exampleMessages"`
	MessageCount          int      `json:"messageCount"`
	RelationshipType      string   `json:"relationshipType,omitempty"`
}

// EngagementEvent is an append-only record of how a user engaged with an
// AI-drafted message. ThreadContinued is deliberately absent from the
// schema per SPEC_FULL.md: callers infer it from InteractionType == "thread_continued".
type EngagementEvent struct {
	ID                     string  `json:"id"`
	InteractionType        string  `json:"interactionType"`
	Timestamp              int64   `json:"timestamp"`
	AIDraftLength          int     `json:"aiDraftLength,omitempty"`
	UserFinalLength        int     `json:"userFinalLength,omitempty"`
	EditRatio              float64 `json:"editRatio,omitempty"`
	ThreadLength           int     `json:"threadLength,omitempty"`
	UserResponseSentiment  float64 `json:"userResponseSentiment,omitempty"`
	ContextType            string  `json:"contextType,omitempty"`
	RecipientEntityID      string  `json:"recipientEntityId,omitempty"`
}

// PersonalityEvolution is an append-only audit of every style-dimension update.
type PersonalityEvolution struct {
	ID               string  `json:"id"`
	Timestamp        int64   `json:"timestamp"`
	Dimension        string  `json:"dimension"`
	OldValue         float64 `json:"oldValue"`
	NewValue         float64 `json:"newValue"`
	LearningRateUsed float64 `json:"learningRateUsed"`
	WasChangePoint   bool    `json:"wasChangePoint"`
}

// PatternType closes the set of behavioral pattern variants.
type PatternType string

const (
	PatternHabit           PatternType = "habit"
	PatternRoutine         PatternType = "routine"
	PatternRhythmSeq       PatternType = "sequence"
	PatternTriggerResponse PatternType = "trigger_response"
)

// DetectedPattern is one mined behavioral pattern.
type DetectedPattern struct {
	ID             string      `json:"id"`
	PatternType    PatternType `json:"patternType"`
	Signature      string      `json:"signature"`
	Occurrences    int         `json:"occurrences"`
	FirstObservedAt int64      `json:"firstObservedAt"`
	LastObservedAt  int64      `json:"lastObservedAt"`
	Confidence      float64    `json:"confidence"`
	HabitStrength   float64    `json:"habitStrength"`
	Metadata        string     `json:"metadata,omitempty"` // JSON blob
}

// RhythmSlot is one cell of the 7x24 daily-rhythm matrix.
type RhythmSlot struct {
	DayOfWeek           int     `json:"dayOfWeek"` // 0-6
	Hour                int     `json:"hour"`       // 0-23
	ActivityDistribution string `json:"activityDistribution"` // JSON blob
	MeanFocusScore      float64 `json:"meanFocusScore"`
	InferredEnergy      float64 `json:"inferredEnergy"`
	MessageVolume       int     `json:"messageVolume"`
	TypicalContext      string  `json:"typicalContext,omitempty"`
	UpdatedAt           int64   `json:"updatedAt"`
}

// Prediction is a single forward-looking anticipation generated by the
// behavioral engine.
type Prediction struct {
	ID              string  `json:"id"`
	PredictionType  string  `json:"predictionType"`
	PredictedTime   int64   `json:"predictedTime"`
	Confidence      float64 `json:"confidence"`
	Description     string  `json:"description"`
	SourcePatternID string  `json:"sourcePatternId,omitempty"`
	WasCorrect      *bool   `json:"wasCorrect,omitempty"`
	VerifiedAt      int64   `json:"verifiedAt,omitempty"`
	CreatedAt       int64   `json:"createdAt"`
}

// ProactiveTrigger is a deduplicated, fired background-worker notification.
type ProactiveTrigger struct {
	ID           string `json:"id"`
	TriggerType  string `json:"triggerType"`
	FiredAt      int64  `json:"firedAt"`
	DedupeKey    string `json:"dedupeKey"`
	Payload      string `json:"payload,omitempty"` // JSON blob
	Acknowledged bool   `json:"acknowledged"`
}

// ContextBoundary declares a named compartment and who may see into it.
type ContextBoundary struct {
	ContextName             string          `json:"contextName"`
	VisibilityPolicy        map[string]bool `json:"visibilityPolicy"`
	ClassificationSignals   string          `json:"classificationSignals,omitempty"` // JSON blob
	FormalityFloor          float64         `json:"formalityFloor"`
	ProfessionalismRequired bool            `json:"professionalismRequired"`
	HumorAllowed            bool            `json:"humorAllowed"`
}

// ActiveContext is the per-session detected context cache.
type ActiveContext struct {
	SessionID        string  `json:"sessionId"`
	CurrentContext   string  `json:"currentContext"`
	DetectedAt       int64   `json:"detectedAt"`
	Signals          string  `json:"signals,omitempty"` // JSON blob
	Confidence       float64 `json:"confidence"`
	ActivePersona    string  `json:"activePersona,omitempty"`
	StyleAdjustments string  `json:"styleAdjustments,omitempty"` // JSON blob
}
