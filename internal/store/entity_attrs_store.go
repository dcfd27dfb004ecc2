package store

import "database/sql"

// UpsertEntityAttribute inserts or updates a typed fact about an entity.
func (s *SQLiteStore) UpsertEntityAttribute(attr *EntityAttribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO entity_attributes (id, entity_id, attr_type, attr_value, confidence, source_assertion_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id, attr_type, attr_value) DO UPDATE SET
			confidence = excluded.confidence,
			source_assertion_id = excluded.source_assertion_id
	`, attr.ID, attr.EntityID, attr.AttrType, attr.AttrValue, attr.Confidence,
		nullableString(attr.SourceAssertionID), attr.CreatedAt)

	return err
}

// ListEntityAttributes returns every attribute recorded for an entity.
func (s *SQLiteStore) ListEntityAttributes(entityID string) ([]*EntityAttribute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, entity_id, attr_type, attr_value, confidence, source_assertion_id, created_at
		FROM entity_attributes WHERE entity_id = ?
	`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attrs []*EntityAttribute
	for rows.Next() {
		var a EntityAttribute
		var sourceAssertionID sql.NullString
		if err := rows.Scan(&a.ID, &a.EntityID, &a.AttrType, &a.AttrValue, &a.Confidence,
			&sourceAssertionID, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.SourceAssertionID = sourceAssertionID.String
		attrs = append(attrs, &a)
	}
	return attrs, rows.Err()
}

// DeleteEntityAttribute removes an attribute by ID.
func (s *SQLiteStore) DeleteEntityAttribute(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM entity_attributes WHERE id = ?", id)
	return err
}

// FindEntityByAttribute resolves an entity via an exact attribute match, the
// first stage of the resolution pipeline (exact attribute, before fuzzy name).
func (s *SQLiteStore) FindEntityByAttribute(attrType, attrValue string) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entityID string
	err := s.db.QueryRow(`
		SELECT entity_id FROM entity_attributes WHERE attr_type = ? AND attr_value = ? LIMIT 1
	`, attrType, attrValue).Scan(&entityID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow("SELECT "+entityColumns+" FROM entities WHERE id = ?", entityID)
	entity, err := scanEntity(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entity, err
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
