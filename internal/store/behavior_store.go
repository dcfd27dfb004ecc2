package store

import (
	"database/sql"
	"time"
)

const patternColumns = `id, pattern_type, signature, occurrences, first_observed_at, last_observed_at,
	confidence, habit_strength, metadata`

func scanPattern(scan func(...interface{}) error) (*DetectedPattern, error) {
	var p DetectedPattern
	var patternType string
	var metadata sql.NullString

	if err := scan(&p.ID, &patternType, &p.Signature, &p.Occurrences, &p.FirstObservedAt, &p.LastObservedAt,
		&p.Confidence, &p.HabitStrength, &metadata); err != nil {
		return nil, err
	}

	p.PatternType = PatternType(patternType)
	p.Metadata = metadata.String
	return &p, nil
}

// UpsertPattern inserts or updates a mined behavioral pattern, keyed on
// (PatternType, Signature).
func (s *SQLiteStore) UpsertPattern(p *DetectedPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO patterns (`+patternColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pattern_type, signature) DO UPDATE SET
			occurrences = excluded.occurrences,
			last_observed_at = excluded.last_observed_at,
			confidence = excluded.confidence,
			habit_strength = excluded.habit_strength,
			metadata = excluded.metadata
	`, p.ID, string(p.PatternType), p.Signature, p.Occurrences, p.FirstObservedAt, p.LastObservedAt,
		p.Confidence, p.HabitStrength, nullableString(p.Metadata))

	return err
}

// FindPatternBySignature looks up a pattern by its natural key, the
// occurrence-counting promotion check every new observation makes first.
func (s *SQLiteStore) FindPatternBySignature(patternType, signature string) (*DetectedPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+patternColumns+" FROM patterns WHERE pattern_type = ? AND signature = ?",
		patternType, signature)
	p, err := scanPattern(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListPatterns returns every pattern with HabitStrength >= minStrength.
func (s *SQLiteStore) ListPatterns(minStrength float64) ([]*DetectedPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+patternColumns+" FROM patterns WHERE habit_strength >= ?", minStrength)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []*DetectedPattern
	for rows.Next() {
		p, err := scanPattern(rows.Scan)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

const rhythmSlotColumns = `day_of_week, hour, activity_distribution, mean_focus_score,
	inferred_energy, message_volume, typical_context, updated_at`

func scanRhythmSlot(scan func(...interface{}) error) (*RhythmSlot, error) {
	var r RhythmSlot
	var activityDistribution sql.NullString
	var typicalContext sql.NullString

	if err := scan(&r.DayOfWeek, &r.Hour, &activityDistribution, &r.MeanFocusScore,
		&r.InferredEnergy, &r.MessageVolume, &typicalContext, &r.UpdatedAt); err != nil {
		return nil, err
	}

	r.ActivityDistribution = activityDistribution.String
	r.TypicalContext = typicalContext.String
	return &r, nil
}

// UpsertRhythmSlot writes one cell of the 7x24 daily-rhythm matrix.
func (s *SQLiteStore) UpsertRhythmSlot(r *RhythmSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO rhythm_slots (`+rhythmSlotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day_of_week, hour) DO UPDATE SET
			activity_distribution = excluded.activity_distribution,
			mean_focus_score = excluded.mean_focus_score,
			inferred_energy = excluded.inferred_energy,
			message_volume = excluded.message_volume,
			typical_context = excluded.typical_context,
			updated_at = excluded.updated_at
	`, r.DayOfWeek, r.Hour, nullableString(r.ActivityDistribution), r.MeanFocusScore,
		r.InferredEnergy, r.MessageVolume, nullableString(r.TypicalContext), r.UpdatedAt)

	return err
}

// ListRhythmSlots returns every populated cell of the rhythm matrix.
func (s *SQLiteStore) ListRhythmSlots() ([]*RhythmSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT " + rhythmSlotColumns + " FROM rhythm_slots")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []*RhythmSlot
	for rows.Next() {
		r, err := scanRhythmSlot(rows.Scan)
		if err != nil {
			return nil, err
		}
		slots = append(slots, r)
	}
	return slots, rows.Err()
}

const predictionColumns = `id, prediction_type, predicted_time, confidence, description,
	source_pattern_id, was_correct, verified_at, created_at`

func scanPrediction(scan func(...interface{}) error) (*Prediction, error) {
	var p Prediction
	var sourcePatternID sql.NullString
	var wasCorrect sql.NullBool
	var verifiedAt sql.NullInt64

	if err := scan(&p.ID, &p.PredictionType, &p.PredictedTime, &p.Confidence, &p.Description,
		&sourcePatternID, &wasCorrect, &verifiedAt, &p.CreatedAt); err != nil {
		return nil, err
	}

	p.SourcePatternID = sourcePatternID.String
	p.VerifiedAt = verifiedAt.Int64
	if wasCorrect.Valid {
		v := wasCorrect.Bool
		p.WasCorrect = &v
	}
	return &p, nil
}

// InsertPrediction records a new forward-looking anticipation.
func (s *SQLiteStore) InsertPrediction(p *Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO predictions (`+predictionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.PredictionType, p.PredictedTime, p.Confidence, p.Description,
		nullableString(p.SourcePatternID), nil, nullableInt64(p.VerifiedAt), p.CreatedAt)

	return err
}

// ListDuePredictions returns predictions whose PredictedTime has arrived
// (<= now) and have not yet been verified.
func (s *SQLiteStore) ListDuePredictions(now int64) ([]*Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT "+predictionColumns+" FROM predictions WHERE predicted_time <= ? AND was_correct IS NULL", now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []*Prediction
	for rows.Next() {
		p, err := scanPrediction(rows.Scan)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// ListUnverifiedPredictionsBefore returns predictions older than cutoff that
// were never verified, the stale-prediction cleanup sweep.
func (s *SQLiteStore) ListUnverifiedPredictionsBefore(cutoff int64) ([]*Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT "+predictionColumns+" FROM predictions WHERE predicted_time < ? AND was_correct IS NULL", cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []*Prediction
	for rows.Next() {
		p, err := scanPrediction(rows.Scan)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// MarkPredictionVerified records the verification outcome of a prediction.
func (s *SQLiteStore) MarkPredictionVerified(id string, wasCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE predictions SET was_correct = ?, verified_at = ? WHERE id = ?",
		boolToInt(wasCorrect), time.Now().UnixMilli(), id)
	return err
}

// InsertProactiveTrigger records a fired background-worker notification.
func (s *SQLiteStore) InsertProactiveTrigger(t *ProactiveTrigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO proactive_triggers (id, trigger_type, fired_at, dedupe_key, payload, acknowledged)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.TriggerType, t.FiredAt, t.DedupeKey, nullableString(t.Payload), boolToInt(t.Acknowledged))

	return err
}

// HasRecentTrigger reports whether a trigger with dedupeKey fired at or
// after since, the window-based deduplication check every trigger makes
// before firing.
func (s *SQLiteStore) HasRecentTrigger(dedupeKey string, since int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM proactive_triggers WHERE dedupe_key = ? AND fired_at >= ?", dedupeKey, since,
	).Scan(&count)
	return count > 0, err
}
