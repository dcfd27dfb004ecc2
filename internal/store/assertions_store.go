package store

import "database/sql"

const assertionColumns = `id, subject_entity_id, predicate, object_text, object_entity_id, confidence,
	source_type, source_id, source_timestamp, extracted_at, valid_from, valid_until,
	supersedes_id, superseded_by_id`

// qualifiedAssertionColumns is assertionColumns prefixed for queries that
// join the assertions table against another (e.g. entities for name search).
const qualifiedAssertionColumns = `a.id, a.subject_entity_id, a.predicate, a.object_text, a.object_entity_id, a.confidence,
	a.source_type, a.source_id, a.source_timestamp, a.extracted_at, a.valid_from, a.valid_until,
	a.supersedes_id, a.superseded_by_id`

func scanAssertion(scan func(...interface{}) error) (*Assertion, error) {
	var a Assertion
	var subjectEntityID, objectText, objectEntityID, sourceType, sourceID sql.NullString
	var sourceTimestamp, validFrom, validUntil sql.NullInt64
	var supersedesID, supersededByID sql.NullString

	if err := scan(&a.ID, &subjectEntityID, &a.Predicate, &objectText, &objectEntityID, &a.Confidence,
		&sourceType, &sourceID, &sourceTimestamp, &a.ExtractedAt, &validFrom, &validUntil,
		&supersedesID, &supersededByID); err != nil {
		return nil, err
	}

	a.SubjectEntityID = subjectEntityID.String
	a.ObjectText = objectText.String
	a.ObjectEntityID = objectEntityID.String
	a.SourceType = sourceType.String
	a.SourceID = sourceID.String
	a.SourceTimestamp = sourceTimestamp.Int64
	a.ValidFrom = validFrom.Int64
	a.ValidUntil = validUntil.Int64
	a.SupersedesID = supersedesID.String
	a.SupersededByID = supersededByID.String
	return &a, nil
}

// InsertAssertion records a new bi-temporal fact.
func (s *SQLiteStore) InsertAssertion(a *Assertion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO assertions (`+assertionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, nullableString(a.SubjectEntityID), a.Predicate, nullableString(a.ObjectText),
		nullableString(a.ObjectEntityID), a.Confidence, nullableString(a.SourceType), nullableString(a.SourceID),
		nullableInt64(a.SourceTimestamp), a.ExtractedAt, nullableInt64(a.ValidFrom), nullableInt64(a.ValidUntil),
		nullableString(a.SupersedesID), nullableString(a.SupersededByID))

	return err
}

// GetAssertion retrieves an assertion by ID.
func (s *SQLiteStore) GetAssertion(id string) (*Assertion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+assertionColumns+" FROM assertions WHERE id = ?", id)
	a, err := scanAssertion(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// UpdateAssertion persists confidence/validity/supersession changes to an
// existing assertion. Never changes ID, Predicate, or SubjectEntityID.
func (s *SQLiteStore) UpdateAssertion(a *Assertion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE assertions SET
			object_text = ?, object_entity_id = ?, confidence = ?,
			valid_from = ?, valid_until = ?, supersedes_id = ?, superseded_by_id = ?
		WHERE id = ?
	`, nullableString(a.ObjectText), nullableString(a.ObjectEntityID), a.Confidence,
		nullableInt64(a.ValidFrom), nullableInt64(a.ValidUntil),
		nullableString(a.SupersedesID), nullableString(a.SupersededByID), a.ID)

	return err
}

// AssertionsAsOf returns assertions about an entity whose validity window
// covers t. When predicate is non-empty, results are restricted to it. When
// includeSuperseded is false, only the head of each supersession chain
// (superseded_by_id IS NULL) is returned.
func (s *SQLiteStore) AssertionsAsOf(entityID string, t int64, predicate string, includeSuperseded bool) ([]*Assertion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + assertionColumns + ` FROM assertions
		WHERE subject_entity_id = ?
		AND extracted_at <= ?
		AND (valid_from IS NULL OR valid_from <= ?)
		AND (valid_until IS NULL OR valid_until > ?)`
	args := []interface{}{entityID, t, t, t}

	if predicate != "" {
		query += " AND predicate = ?"
		args = append(args, predicate)
	}
	if !includeSuperseded {
		query += " AND superseded_by_id IS NULL"
	}
	query += " ORDER BY extracted_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assertions []*Assertion
	for rows.Next() {
		a, err := scanAssertion(rows.Scan)
		if err != nil {
			return nil, err
		}
		assertions = append(assertions, a)
	}
	return assertions, rows.Err()
}

// ListAssertionsForSubject returns every assertion (current and superseded)
// about an entity, for history/provenance views.
func (s *SQLiteStore) ListAssertionsForSubject(entityID string) ([]*Assertion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+assertionColumns+" FROM assertions WHERE subject_entity_id = ? ORDER BY extracted_at", entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assertions []*Assertion
	for rows.Next() {
		a, err := scanAssertion(rows.Scan)
		if err != nil {
			return nil, err
		}
		assertions = append(assertions, a)
	}
	return assertions, rows.Err()
}

// TopAssertionsForSubject returns the most relevant current assertions
// about an entity, ranked by confidence descending then recency descending,
// excluding anything already superseded.
func (s *SQLiteStore) TopAssertionsForSubject(entityID string, limit int) ([]*Assertion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+assertionColumns+` FROM assertions
		WHERE subject_entity_id = ? AND (superseded_by_id IS NULL OR superseded_by_id = '')
		ORDER BY confidence DESC, extracted_at DESC
		LIMIT ?
	`, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assertions []*Assertion
	for rows.Next() {
		a, err := scanAssertion(rows.Scan)
		if err != nil {
			return nil, err
		}
		assertions = append(assertions, a)
	}
	return assertions, rows.Err()
}

// SearchAssertionsLike finds assertions whose predicate, object text, or
// subject entity's canonical name contains query, case-insensitively. This
// is the belief-store FTS primitive: a plain LIKE scan rather than an FTS5
// index, since assertions are orders of magnitude fewer than messages.
func (s *SQLiteStore) SearchAssertionsLike(query string, limit int) ([]*Assertion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT `+qualifiedAssertionColumns+` FROM assertions a
		LEFT JOIN entities e ON e.id = a.subject_entity_id
		WHERE a.predicate LIKE ? COLLATE NOCASE
		   OR a.object_text LIKE ? COLLATE NOCASE
		   OR e.canonical_name LIKE ? COLLATE NOCASE
		ORDER BY a.extracted_at DESC
		LIMIT ?
	`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assertions []*Assertion
	for rows.Next() {
		a, err := scanAssertion(rows.Scan)
		if err != nil {
			return nil, err
		}
		assertions = append(assertions, a)
	}
	return assertions, rows.Err()
}

// ListAssertionsOlderThan returns assertions extracted before cutoff, used
// by the belief store's confidence-decay sweep.
func (s *SQLiteStore) ListAssertionsOlderThan(cutoff int64) ([]*Assertion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+assertionColumns+" FROM assertions WHERE extracted_at < ?", cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assertions []*Assertion
	for rows.Next() {
		a, err := scanAssertion(rows.Scan)
		if err != nil {
			return nil, err
		}
		assertions = append(assertions, a)
	}
	return assertions, rows.Err()
}

// InsertBeliefRevision appends a confidence-adjustment audit record.
func (s *SQLiteStore) InsertBeliefRevision(r *BeliefRevisionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO belief_revision_log (id, assertion_id, old_confidence, new_confidence, reason, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.AssertionID, r.OldConfidence, r.NewConfidence, r.Reason, nullableString(r.Detail), r.RecordedAt)

	return err
}

const contradictionColumns = `id, assertion_id_1, assertion_id_2, detected_at, contradiction_type, severity,
	resolution_status, resolved_at, resolution_method, winning_assertion_id`

func scanContradiction(scan func(...interface{}) error) (*BeliefContradiction, error) {
	var c BeliefContradiction
	var contradictionType, resolutionStatus string
	var resolvedAt sql.NullInt64
	var resolutionMethod, winningAssertionID sql.NullString

	if err := scan(&c.ID, &c.AssertionID1, &c.AssertionID2, &c.DetectedAt, &contradictionType, &c.Severity,
		&resolutionStatus, &resolvedAt, &resolutionMethod, &winningAssertionID); err != nil {
		return nil, err
	}

	c.ContradictionType = ContradictionType(contradictionType)
	c.ResolutionStatus = ResolutionStatus(resolutionStatus)
	c.ResolvedAt = resolvedAt.Int64
	c.ResolutionMethod = resolutionMethod.String
	c.WinningAssertionID = winningAssertionID.String
	return &c, nil
}

// InsertContradiction records a newly detected disagreement between two assertions.
func (s *SQLiteStore) InsertContradiction(c *BeliefContradiction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO belief_contradictions (`+contradictionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.AssertionID1, c.AssertionID2, c.DetectedAt, string(c.ContradictionType), c.Severity,
		string(c.ResolutionStatus), nullableInt64(c.ResolvedAt), nullableString(c.ResolutionMethod),
		nullableString(c.WinningAssertionID))

	return err
}

// GetContradiction retrieves a contradiction by ID.
func (s *SQLiteStore) GetContradiction(id string) (*BeliefContradiction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+contradictionColumns+" FROM belief_contradictions WHERE id = ?", id)
	c, err := scanContradiction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// UpdateContradiction persists a resolution decision. Escalated
// contradictions leave both assertions' confidence untouched until a human
// resolves them; see the design notes on severity-gated escalation.
func (s *SQLiteStore) UpdateContradiction(c *BeliefContradiction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE belief_contradictions SET
			resolution_status = ?, resolved_at = ?, resolution_method = ?, winning_assertion_id = ?
		WHERE id = ?
	`, string(c.ResolutionStatus), nullableInt64(c.ResolvedAt), nullableString(c.ResolutionMethod),
		nullableString(c.WinningAssertionID), c.ID)

	return err
}

// ListPendingContradictions returns every contradiction still awaiting resolution.
func (s *SQLiteStore) ListPendingContradictions() ([]*BeliefContradiction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+contradictionColumns+" FROM belief_contradictions WHERE resolution_status = ?",
		string(ResolutionPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contradictions []*BeliefContradiction
	for rows.Next() {
		c, err := scanContradiction(rows.Scan)
		if err != nil {
			return nil, err
		}
		contradictions = append(contradictions, c)
	}
	return contradictions, rows.Err()
}

func nullableInt64(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
