package store

// domainSchema defines the tables added for the belief store, commitment and
// goal trackers, style/engagement learning, the behavioral engine, and
// context boundaries. Kept separate from schema so each concern's tables
// stay grouped and migrations can add to either independently.
const domainSchema = `
-- EntityAttributes: typed facts about an entity (email, phone, alias, ...)
CREATE TABLE IF NOT EXISTS entity_attributes (
    id TEXT PRIMARY KEY,
    entity_id TEXT NOT NULL,
    attr_type TEXT NOT NULL,
    attr_value TEXT NOT NULL,
    confidence REAL DEFAULT 1.0,
    source_assertion_id TEXT,
    created_at INTEGER NOT NULL,
    UNIQUE(entity_id, attr_type, attr_value)
);

CREATE INDEX IF NOT EXISTS idx_entity_attrs_entity ON entity_attributes(entity_id);
CREATE INDEX IF NOT EXISTS idx_entity_attrs_lookup ON entity_attributes(attr_type, attr_value);

-- Assertions: bi-temporal subject-predicate-object belief store
CREATE TABLE IF NOT EXISTS assertions (
    id TEXT PRIMARY KEY,
    subject_entity_id TEXT,
    predicate TEXT NOT NULL,
    object_text TEXT,
    object_entity_id TEXT,
    confidence REAL DEFAULT 1.0,
    source_type TEXT,
    source_id TEXT,
    source_timestamp INTEGER,
    extracted_at INTEGER NOT NULL,
    valid_from INTEGER,
    valid_until INTEGER,
    supersedes_id TEXT,
    superseded_by_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_assertions_subject ON assertions(subject_entity_id, predicate);
CREATE INDEX IF NOT EXISTS idx_assertions_extracted ON assertions(extracted_at);
CREATE INDEX IF NOT EXISTS idx_assertions_valid ON assertions(valid_from, valid_until);

-- BeliefRevisionLog: append-only audit of confidence adjustments
CREATE TABLE IF NOT EXISTS belief_revision_log (
    id TEXT PRIMARY KEY,
    assertion_id TEXT NOT NULL,
    old_confidence REAL NOT NULL,
    new_confidence REAL NOT NULL,
    reason TEXT NOT NULL,
    detail TEXT,
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_belief_revision_assertion ON belief_revision_log(assertion_id);

-- BeliefContradictions: two assertions that disagree
CREATE TABLE IF NOT EXISTS belief_contradictions (
    id TEXT PRIMARY KEY,
    assertion_id_1 TEXT NOT NULL,
    assertion_id_2 TEXT NOT NULL,
    detected_at INTEGER NOT NULL,
    contradiction_type TEXT NOT NULL,
    severity REAL DEFAULT 0,
    resolution_status TEXT NOT NULL DEFAULT 'pending',
    resolved_at INTEGER,
    resolution_method TEXT,
    winning_assertion_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_contradictions_status ON belief_contradictions(resolution_status);

-- Messages: normalized ingested communications
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    source_type TEXT NOT NULL,
    source_id TEXT NOT NULL,
    thread_id TEXT,
    sender_entity_id TEXT,
    recipients TEXT,
    subject TEXT,
    body_text TEXT NOT NULL,
    body_html TEXT,
    timestamp INTEGER NOT NULL,
    is_from_user INTEGER DEFAULT 0,
    processed INTEGER DEFAULT 0,
    UNIQUE(source_type, source_id)
);

CREATE INDEX IF NOT EXISTS idx_messages_processed ON messages(processed);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id);

-- Events: the behavioral spine
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    payload TEXT,
    context_type TEXT,
    entity_ids TEXT,
    processed INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_events_processed ON events(processed);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);

-- Commitments: promises, asks, decisions, deadlines, meetings
CREATE TABLE IF NOT EXISTS commitments (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    description TEXT NOT NULL,
    owner_entity_id TEXT,
    counterparty_entity_id TEXT,
    due_date INTEGER,
    status TEXT NOT NULL DEFAULT 'open',
    source_type TEXT,
    source_id TEXT,
    created_at INTEGER NOT NULL,
    completed_at INTEGER,
    reminder_sent INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_commitments_status ON commitments(status);
CREATE INDEX IF NOT EXISTS idx_commitments_due ON commitments(due_date);

-- Goals: acyclic forest of short/long-term objectives
CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    goal_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    parent_goal_id TEXT,
    related_entities TEXT,
    created_at INTEGER NOT NULL,
    target_date INTEGER,
    completed_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_goals_parent ON goals(parent_goal_id);
CREATE INDEX IF NOT EXISTS idx_goals_status ON goals(status);

-- GoalCommitments: many-to-many junction
CREATE TABLE IF NOT EXISTS goal_commitments (
    goal_id TEXT NOT NULL,
    commitment_id TEXT NOT NULL,
    PRIMARY KEY (goal_id, commitment_id)
);

-- StyleProfile: single-row description of the user's own communication style
CREATE TABLE IF NOT EXISTS style_profile (
    id TEXT PRIMARY KEY DEFAULT 'singleton',
    formality REAL DEFAULT 0.5,
    verbosity REAL DEFAULT 0.5,
    emoji_density REAL DEFAULT 0,
    avg_message_length REAL DEFAULT 0,
    greeting_patterns TEXT,
    signoff_patterns TEXT,
    signature_phrases TEXT,
    interaction_count INTEGER DEFAULT 0,
    updated_at INTEGER
);

-- RecipientStyleProfiles: per-recipient style adaptation
CREATE TABLE IF NOT EXISTS recipient_style_profiles (
    entity_id TEXT PRIMARY KEY,
    formality REAL DEFAULT 0.5,
    warmth REAL DEFAULT 0.5,
    emoji_usage REAL DEFAULT 0,
    avg_response_time_hours REAL,
    example_messages TEXT,
    message_count INTEGER DEFAULT 0,
    relationship_type TEXT
);

-- EngagementEvents: append-only record of draft-vs-final engagement
CREATE TABLE IF NOT EXISTS engagement_events (
    id TEXT PRIMARY KEY,
    interaction_type TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    ai_draft_length INTEGER,
    user_final_length INTEGER,
    edit_ratio REAL,
    thread_length INTEGER,
    user_response_sentiment REAL,
    context_type TEXT,
    recipient_entity_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_engagement_timestamp ON engagement_events(timestamp);

-- PersonalityEvolution: append-only audit of style-dimension updates
CREATE TABLE IF NOT EXISTS personality_evolution (
    id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    dimension TEXT NOT NULL,
    old_value REAL NOT NULL,
    new_value REAL NOT NULL,
    learning_rate_used REAL,
    was_change_point INTEGER DEFAULT 0
);

-- Patterns: mined behavioral patterns
CREATE TABLE IF NOT EXISTS patterns (
    id TEXT PRIMARY KEY,
    pattern_type TEXT NOT NULL,
    signature TEXT NOT NULL,
    occurrences INTEGER DEFAULT 1,
    first_observed_at INTEGER NOT NULL,
    last_observed_at INTEGER NOT NULL,
    confidence REAL DEFAULT 0,
    habit_strength REAL DEFAULT 0,
    metadata TEXT,
    UNIQUE(pattern_type, signature)
);

CREATE INDEX IF NOT EXISTS idx_patterns_strength ON patterns(habit_strength);

-- RhythmSlots: 7x24 daily-rhythm matrix
CREATE TABLE IF NOT EXISTS rhythm_slots (
    day_of_week INTEGER NOT NULL,
    hour INTEGER NOT NULL,
    activity_distribution TEXT,
    mean_focus_score REAL DEFAULT 0,
    inferred_energy REAL DEFAULT 0,
    message_volume INTEGER DEFAULT 0,
    typical_context TEXT,
    updated_at INTEGER,
    PRIMARY KEY (day_of_week, hour)
);

-- Predictions: forward-looking anticipations from the behavioral engine
CREATE TABLE IF NOT EXISTS predictions (
    id TEXT PRIMARY KEY,
    prediction_type TEXT NOT NULL,
    predicted_time INTEGER NOT NULL,
    confidence REAL DEFAULT 0,
    description TEXT,
    source_pattern_id TEXT,
    was_correct INTEGER,
    verified_at INTEGER,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_predictions_time ON predictions(predicted_time);
CREATE INDEX IF NOT EXISTS idx_predictions_unverified ON predictions(was_correct, predicted_time);

-- ProactiveTriggers: deduplicated fired background-worker notifications
CREATE TABLE IF NOT EXISTS proactive_triggers (
    id TEXT PRIMARY KEY,
    trigger_type TEXT NOT NULL,
    fired_at INTEGER NOT NULL,
    dedupe_key TEXT NOT NULL,
    payload TEXT,
    acknowledged INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_triggers_dedupe ON proactive_triggers(dedupe_key, fired_at);

-- ContextBoundaries: named compartments and their visibility policy
CREATE TABLE IF NOT EXISTS context_boundaries (
    context_name TEXT PRIMARY KEY,
    visibility_policy TEXT,
    classification_signals TEXT,
    formality_floor REAL DEFAULT 0,
    professionalism_required INTEGER DEFAULT 0,
    humor_allowed INTEGER DEFAULT 1
);

-- ActiveContexts: per-session detected context cache
CREATE TABLE IF NOT EXISTS active_contexts (
    session_id TEXT PRIMARY KEY,
    current_context TEXT,
    detected_at INTEGER,
    signals TEXT,
    confidence REAL DEFAULT 0,
    active_persona TEXT,
    style_adjustments TEXT
);
`
