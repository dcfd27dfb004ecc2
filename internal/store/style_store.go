package store

import (
	"database/sql"
	"encoding/json"
)

const styleProfileColumns = `formality, verbosity, emoji_density, avg_message_length,
	greeting_patterns, signoff_patterns, signature_phrases, interaction_count, updated_at`

// GetStyleProfile returns the single row describing the user's own
// communication style, or nil if it has never been written.
func (s *SQLiteStore) GetStyleProfile() (*StyleProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p StyleProfile
	var greetingJSON, signoffJSON, signatureJSON sql.NullString

	err := s.db.QueryRow("SELECT "+styleProfileColumns+" FROM style_profile WHERE id = 'singleton'").Scan(
		&p.Formality, &p.Verbosity, &p.EmojiDensity, &p.AvgMessageLength,
		&greetingJSON, &signoffJSON, &signatureJSON, &p.InteractionCount, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(greetingJSON.String), &p.GreetingPatterns)
	json.Unmarshal([]byte(signoffJSON.String), &p.SignoffPatterns)
	json.Unmarshal([]byte(signatureJSON.String), &p.SignaturePhrases)
	return &p, nil
}

// UpsertStyleProfile writes the singleton style-profile row.
func (s *SQLiteStore) UpsertStyleProfile(p *StyleProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	greetingJSON, _ := json.Marshal(p.GreetingPatterns)
	signoffJSON, _ := json.Marshal(p.SignoffPatterns)
	signatureJSON, _ := json.Marshal(p.SignaturePhrases)

	_, err := s.db.Exec(`
		INSERT INTO style_profile (id, `+styleProfileColumns+`)
		VALUES ('singleton', ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			formality = excluded.formality,
			verbosity = excluded.verbosity,
			emoji_density = excluded.emoji_density,
			avg_message_length = excluded.avg_message_length,
			greeting_patterns = excluded.greeting_patterns,
			signoff_patterns = excluded.signoff_patterns,
			signature_phrases = excluded.signature_phrases,
			interaction_count = excluded.interaction_count,
			updated_at = excluded.updated_at
	`, p.Formality, p.Verbosity, p.EmojiDensity, p.AvgMessageLength,
		string(greetingJSON), string(signoffJSON), string(signatureJSON), p.InteractionCount, p.UpdatedAt)

	return err
}

const recipientStyleColumns = `entity_id, formality, warmth, emoji_usage, avg_response_time_hours,
	example_messages, message_count, relationship_type`

// GetRecipientStyle returns the style the user adopts with one recipient.
func (s *SQLiteStore) GetRecipientStyle(entityID string) (*RecipientStyleProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p RecipientStyleProfile
	var avgResponseTime sql.NullFloat64
	var exampleMessagesJSON sql.NullString
	var relationshipType sql.NullString

	err := s.db.QueryRow("SELECT "+recipientStyleColumns+" FROM recipient_style_profiles WHERE entity_id = ?", entityID).Scan(
		&p.EntityID, &p.Formality, &p.Warmth, &p.EmojiUsage, &avgResponseTime,
		&exampleMessagesJSON, &p.MessageCount, &relationshipType,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.AvgResponseTimeHours = avgResponseTime.Float64
	p.RelationshipType = relationshipType.String
	if exampleMessagesJSON.Valid {
		json.Unmarshal([]byte(exampleMessagesJSON.String), &p.ExampleMessages)
	}
	return &p, nil
}

// UpsertRecipientStyle inserts or updates a per-recipient style profile.
func (s *SQLiteStore) UpsertRecipientStyle(p *RecipientStyleProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exampleMessagesJSON, _ := json.Marshal(p.ExampleMessages)

	_, err := s.db.Exec(`
		INSERT INTO recipient_style_profiles (`+recipientStyleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			formality = excluded.formality,
			warmth = excluded.warmth,
			emoji_usage = excluded.emoji_usage,
			avg_response_time_hours = excluded.avg_response_time_hours,
			example_messages = excluded.example_messages,
			message_count = excluded.message_count,
			relationship_type = excluded.relationship_type
	`, p.EntityID, p.Formality, p.Warmth, p.EmojiUsage, nullableFloat(p.AvgResponseTimeHours),
		string(exampleMessagesJSON), p.MessageCount, nullableString(p.RelationshipType))

	return err
}

// InsertEngagementEvent appends a draft-vs-final engagement record. There is
// no ThreadContinued column: callers infer it from InteractionType.
func (s *SQLiteStore) InsertEngagementEvent(e *EngagementEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO engagement_events (id, interaction_type, timestamp, ai_draft_length, user_final_length,
			edit_ratio, thread_length, user_response_sentiment, context_type, recipient_entity_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.InteractionType, e.Timestamp, e.AIDraftLength, e.UserFinalLength,
		e.EditRatio, e.ThreadLength, e.UserResponseSentiment, nullableString(e.ContextType),
		nullableString(e.RecipientEntityID))

	return err
}

// InsertPersonalityEvolution appends a style-dimension update audit record.
func (s *SQLiteStore) InsertPersonalityEvolution(p *PersonalityEvolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO personality_evolution (id, timestamp, dimension, old_value, new_value, learning_rate_used, was_change_point)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Timestamp, p.Dimension, p.OldValue, p.NewValue, p.LearningRateUsed, boolToInt(p.WasChangePoint))

	return err
}

func nullableFloat(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
