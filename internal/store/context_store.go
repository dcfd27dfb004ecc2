package store

import (
	"database/sql"
	"encoding/json"
)

func jsonMarshalBoolMap(m map[string]bool) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func jsonUnmarshalBoolMap(s string, m *map[string]bool) {
	json.Unmarshal([]byte(s), m)
}

const contextBoundaryColumns = `context_name, visibility_policy, classification_signals,
	formality_floor, professionalism_required, humor_allowed`

func scanContextBoundary(scan func(...interface{}) error) (*ContextBoundary, error) {
	var b ContextBoundary
	var visibilityPolicyJSON sql.NullString
	var classificationSignals sql.NullString
	var professionalismRequired, humorAllowed int

	if err := scan(&b.ContextName, &visibilityPolicyJSON, &classificationSignals,
		&b.FormalityFloor, &professionalismRequired, &humorAllowed); err != nil {
		return nil, err
	}

	b.ClassificationSignals = classificationSignals.String
	b.ProfessionalismRequired = professionalismRequired != 0
	b.HumorAllowed = humorAllowed != 0
	b.VisibilityPolicy = map[string]bool{}
	if visibilityPolicyJSON.Valid && visibilityPolicyJSON.String != "" {
		jsonUnmarshalBoolMap(visibilityPolicyJSON.String, &b.VisibilityPolicy)
	}
	return &b, nil
}

// UpsertContextBoundary declares or updates a named compartment and its
// visibility policy.
func (s *SQLiteStore) UpsertContextBoundary(b *ContextBoundary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	visibilityJSON, err := jsonMarshalBoolMap(b.VisibilityPolicy)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO context_boundaries (`+contextBoundaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(context_name) DO UPDATE SET
			visibility_policy = excluded.visibility_policy,
			classification_signals = excluded.classification_signals,
			formality_floor = excluded.formality_floor,
			professionalism_required = excluded.professionalism_required,
			humor_allowed = excluded.humor_allowed
	`, b.ContextName, visibilityJSON, nullableString(b.ClassificationSignals),
		b.FormalityFloor, boolToInt(b.ProfessionalismRequired), boolToInt(b.HumorAllowed))

	return err
}

// GetContextBoundary looks up a named context boundary.
func (s *SQLiteStore) GetContextBoundary(name string) (*ContextBoundary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+contextBoundaryColumns+" FROM context_boundaries WHERE context_name = ?", name)
	b, err := scanContextBoundary(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// ListContextBoundaries returns every declared context boundary.
func (s *SQLiteStore) ListContextBoundaries() ([]*ContextBoundary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT " + contextBoundaryColumns + " FROM context_boundaries")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boundaries []*ContextBoundary
	for rows.Next() {
		b, err := scanContextBoundary(rows.Scan)
		if err != nil {
			return nil, err
		}
		boundaries = append(boundaries, b)
	}
	return boundaries, rows.Err()
}

const activeContextColumns = `session_id, current_context, detected_at, signals, confidence,
	active_persona, style_adjustments`

// UpsertActiveContext writes the per-session detected context cache.
func (s *SQLiteStore) UpsertActiveContext(a *ActiveContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO active_contexts (`+activeContextColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			current_context = excluded.current_context,
			detected_at = excluded.detected_at,
			signals = excluded.signals,
			confidence = excluded.confidence,
			active_persona = excluded.active_persona,
			style_adjustments = excluded.style_adjustments
	`, a.SessionID, a.CurrentContext, a.DetectedAt, nullableString(a.Signals), a.Confidence,
		nullableString(a.ActivePersona), nullableString(a.StyleAdjustments))

	return err
}

// GetActiveContext retrieves the detected context cache for a session.
func (s *SQLiteStore) GetActiveContext(sessionID string) (*ActiveContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a ActiveContext
	var signals, activePersona, styleAdjustments sql.NullString

	err := s.db.QueryRow("SELECT "+activeContextColumns+" FROM active_contexts WHERE session_id = ?", sessionID).Scan(
		&a.SessionID, &a.CurrentContext, &a.DetectedAt, &signals, &a.Confidence,
		&activePersona, &styleAdjustments,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.Signals = signals.String
	a.ActivePersona = activePersona.String
	a.StyleAdjustments = styleAdjustments.String
	return &a, nil
}
