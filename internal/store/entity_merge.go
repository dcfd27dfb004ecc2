package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// MergeEntities folds mergeID into keepID: merge history, attributes, edges
// (both directions), assertions (as subject and object), and messages are
// moved to keepID; the absorbed canonical name becomes an alias attribute of
// keepID; mergeID is deleted last. A uniqueness collision while moving
// attributes is silently ignored, per the resolver's merge contract. Runs in
// a single transaction so a merge never leaves a dangling foreign key.
func (s *SQLiteStore) MergeEntities(keepID, mergeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keepID == mergeID {
		return fmt.Errorf("merge: keep and merge ids are identical (%s)", keepID)
	}

	return s.withTx(func(tx *sql.Tx) error {
		keep, err := txGetEntity(tx, keepID)
		if err != nil {
			return err
		}
		if keep == nil {
			return fmt.Errorf("merge: keep entity %s not found", keepID)
		}
		absorbed, err := txGetEntity(tx, mergeID)
		if err != nil {
			return err
		}
		if absorbed == nil {
			return fmt.Errorf("merge: merge entity %s not found", mergeID)
		}

		if err := mergeAttributes(tx, keepID, mergeID); err != nil {
			return err
		}
		if err := mergeEdges(tx, keepID, mergeID); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE assertions SET subject_entity_id = ? WHERE subject_entity_id = ?", keepID, mergeID); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE assertions SET object_entity_id = ? WHERE object_entity_id = ?", keepID, mergeID); err != nil {
			return err
		}
		if err := mergeMessages(tx, keepID, mergeID); err != nil {
			return err
		}

		now := time.Now().UnixMilli()
		aliasID := mergeID + ":alias"
		if _, err := tx.Exec(`
			INSERT INTO entity_attributes (id, entity_id, attr_type, attr_value, confidence, created_at)
			VALUES (?, ?, 'alias', ?, 1.0, ?)
			ON CONFLICT DO NOTHING
		`, aliasID, keepID, absorbed.CanonicalName, now); err != nil {
			return err
		}

		mergeHistory := append(append([]string{}, keep.MergeHistory...), mergeID)
		mergeHistory = append(mergeHistory, absorbed.MergeHistory...)
		historyJSON, err := json.Marshal(mergeHistory)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE entities SET merge_history = ?, updated_at = ? WHERE id = ?",
			string(historyJSON), now, keepID); err != nil {
			return err
		}

		_, err = tx.Exec("DELETE FROM entities WHERE id = ?", mergeID)
		return err
	})
}

func txGetEntity(tx *sql.Tx, id string) (*Entity, error) {
	row := tx.QueryRow("SELECT "+entityColumns+" FROM entities WHERE id = ?", id)
	e, err := scanEntity(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// mergeAttributes moves every EntityAttribute row from mergeID to keepID,
// skipping any that would violate (entity_id, attr_type, attr_value)
// uniqueness at the destination.
func mergeAttributes(tx *sql.Tx, keepID, mergeID string) error {
	rows, err := tx.Query("SELECT id, attr_type, attr_value, confidence, source_assertion_id, created_at FROM entity_attributes WHERE entity_id = ?", mergeID)
	if err != nil {
		return err
	}
	type attr struct {
		id, attrType, attrValue  string
		confidence               float64
		sourceAssertionID        sql.NullString
		createdAt                int64
	}
	var attrs []attr
	for rows.Next() {
		var a attr
		if err := rows.Scan(&a.id, &a.attrType, &a.attrValue, &a.confidence, &a.sourceAssertionID, &a.createdAt); err != nil {
			rows.Close()
			return err
		}
		attrs = append(attrs, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, a := range attrs {
		if _, err := tx.Exec(`
			INSERT INTO entity_attributes (id, entity_id, attr_type, attr_value, confidence, source_assertion_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, a.id, keepID, a.attrType, a.attrValue, a.confidence, a.sourceAssertionID, a.createdAt); err != nil {
			return err
		}
	}
	_, err = tx.Exec("DELETE FROM entity_attributes WHERE entity_id = ?", mergeID)
	return err
}

// mergeEdges re-points every edge touching mergeID to keepID. Edges that
// would become a keepID-to-keepID self-loop are dropped; edges that collide
// with an existing keepID edge of the same type have their evidence summed
// into the survivor instead of being duplicated.
func mergeEdges(tx *sql.Tx, keepID, mergeID string) error {
	rows, err := tx.Query("SELECT "+edgeColumns+" FROM edges WHERE from_entity_id = ? OR to_entity_id = ?", mergeID, mergeID)
	if err != nil {
		return err
	}
	var edges []*GraphEdge
	for rows.Next() {
		e, err := scanEdge(rows.Scan)
		if err != nil {
			rows.Close()
			return err
		}
		edges = append(edges, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, e := range edges {
		from, to := e.FromEntityID, e.ToEntityID
		if from == mergeID {
			from = keepID
		}
		if to == mergeID {
			to = keepID
		}
		if _, err := tx.Exec("DELETE FROM edges WHERE id = ?", e.ID); err != nil {
			return err
		}
		if from == to {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO edges (id, from_entity_id, to_entity_id, edge_type, strength, evidence_count, last_evidence_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(from_entity_id, to_entity_id, edge_type) DO UPDATE SET
				evidence_count = edges.evidence_count + excluded.evidence_count,
				strength = MAX(edges.strength, excluded.strength),
				last_evidence_at = MAX(edges.last_evidence_at, excluded.last_evidence_at)
		`, e.ID, from, to, e.EdgeType, e.Strength, e.EvidenceCount, e.LastEvidenceAt, e.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// mergeMessages re-points sender_entity_id and any recipient entity ids
// embedded in the recipients JSON blob from mergeID to keepID.
func mergeMessages(tx *sql.Tx, keepID, mergeID string) error {
	if _, err := tx.Exec("UPDATE messages SET sender_entity_id = ? WHERE sender_entity_id = ?", keepID, mergeID); err != nil {
		return err
	}

	rows, err := tx.Query("SELECT id, recipients FROM messages WHERE recipients LIKE ?", "%"+mergeID+"%")
	if err != nil {
		return err
	}
	type rec struct {
		id, recipientsJSON string
	}
	var recs []rec
	for rows.Next() {
		var r rec
		if err := rows.Scan(&r.id, &r.recipientsJSON); err != nil {
			rows.Close()
			return err
		}
		recs = append(recs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range recs {
		var recipients []Recipient
		if err := json.Unmarshal([]byte(r.recipientsJSON), &recipients); err != nil {
			continue
		}
		changed := false
		for i := range recipients {
			if recipients[i].EntityID == mergeID {
				recipients[i].EntityID = keepID
				changed = true
			}
		}
		if !changed {
			continue
		}
		updated, err := json.Marshal(recipients)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE messages SET recipients = ? WHERE id = ?", string(updated), r.id); err != nil {
			return err
		}
	}
	return nil
}
