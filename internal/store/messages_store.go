package store

import (
	"database/sql"
	"encoding/json"
)

// InsertMessage normalizes and stores an ingested communication. Returns the
// underlying unique-constraint error unchanged on (SourceType, SourceID)
// collision so callers can detect a re-ingested message.
func (s *SQLiteStore) InsertMessage(m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipientsJSON, err := json.Marshal(m.Recipients)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO messages (id, source_type, source_id, thread_id, sender_entity_id, recipients,
			subject, body_text, body_html, timestamp, is_from_user, processed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.SourceType, m.SourceID, nullableString(m.ThreadID), nullableString(m.SenderEntityID),
		string(recipientsJSON), nullableString(m.Subject), m.BodyText, nullableString(m.BodyHTML),
		m.Timestamp, boolToInt(m.IsFromUser), boolToInt(m.Processed))

	return err
}

func scanMessage(scan func(...interface{}) error) (*Message, error) {
	var m Message
	var threadID, senderEntityID, subject, bodyHTML sql.NullString
	var recipientsJSON string
	var isFromUser, processed int

	if err := scan(&m.ID, &m.SourceType, &m.SourceID, &threadID, &senderEntityID, &recipientsJSON,
		&subject, &m.BodyText, &bodyHTML, &m.Timestamp, &isFromUser, &processed); err != nil {
		return nil, err
	}

	m.ThreadID = threadID.String
	m.SenderEntityID = senderEntityID.String
	m.Subject = subject.String
	m.BodyHTML = bodyHTML.String
	m.IsFromUser = isFromUser != 0
	m.Processed = processed != 0
	if recipientsJSON != "" {
		json.Unmarshal([]byte(recipientsJSON), &m.Recipients)
	}
	return &m, nil
}

const messageColumns = `id, source_type, source_id, thread_id, sender_entity_id, recipients,
	subject, body_text, body_html, timestamp, is_from_user, processed`

const messagePrefixedColumns = `messages.id, messages.source_type, messages.source_id, messages.thread_id,
	messages.sender_entity_id, messages.recipients, messages.subject, messages.body_text,
	messages.body_html, messages.timestamp, messages.is_from_user, messages.processed`

// GetMessageBySource looks up a message by its ingestion source identity,
// the dedup check every ingest call makes before InsertMessage.
func (s *SQLiteStore) GetMessageBySource(sourceType, sourceID string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+messageColumns+" FROM messages WHERE source_type = ? AND source_id = ?",
		sourceType, sourceID)
	m, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// ListUnprocessedMessages returns up to limit messages awaiting extraction,
// oldest first.
func (s *SQLiteStore) ListUnprocessedMessages(limit int) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+messageColumns+" FROM messages WHERE processed = 0 ORDER BY timestamp LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListMessagesByThread returns every message sharing thread_id, oldest
// first, for reconstructing conversation state around a thread.
func (s *SQLiteStore) ListMessagesByThread(threadID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+messageColumns+" FROM messages WHERE thread_id = ? ORDER BY timestamp", threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// EntityInteractionStats returns how many messages involve entityID (as
// sender or recipient) and the timestamp of the most recent one, for the
// context assembler's last-interaction/interaction-count summary.
func (s *SQLiteStore) EntityInteractionStats(entityID string) (count int, lastInteractionAt int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + entityID + "%"
	row := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(MAX(timestamp), 0) FROM messages
		WHERE sender_entity_id = ? OR recipients LIKE ?
	`, entityID, pattern)
	err = row.Scan(&count, &lastInteractionAt)
	return count, lastInteractionAt, err
}

// SearchMessagesFTS ranks messages by BM25 relevance to query over subject
// and body text, best match first.
func (s *SQLiteStore) SearchMessagesFTS(query string, limit int) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+messagePrefixedColumns+`
		FROM messages_fts
		JOIN messages ON messages.rowid = messages_fts.rowid
		WHERE messages_fts MATCH ?
		ORDER BY bm25(messages_fts)
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkMessageProcessed flags a message as having passed through extraction.
func (s *SQLiteStore) MarkMessageProcessed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE messages SET processed = 1 WHERE id = ?", id)
	return err
}

// InsertEvent appends a node to the behavioral spine.
func (s *SQLiteStore) InsertEvent(e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payloadJSON, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	entityIDsJSON, err := json.Marshal(e.EntityIDs)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO events (id, event_type, timestamp, payload, context_type, entity_ids, processed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.EventType, e.Timestamp, string(payloadJSON), nullableString(e.ContextType),
		string(entityIDsJSON), boolToInt(e.Processed))

	return err
}

func scanEvent(scan func(...interface{}) error) (*Event, error) {
	var e Event
	var contextType sql.NullString
	var payloadJSON, entityIDsJSON string
	var processed int

	if err := scan(&e.ID, &e.EventType, &e.Timestamp, &payloadJSON, &contextType, &entityIDsJSON, &processed); err != nil {
		return nil, err
	}

	e.ContextType = contextType.String
	e.Processed = processed != 0
	if payloadJSON != "" {
		json.Unmarshal([]byte(payloadJSON), &e.Payload)
	}
	if entityIDsJSON != "" {
		json.Unmarshal([]byte(entityIDsJSON), &e.EntityIDs)
	}
	return &e, nil
}

const eventColumns = `id, event_type, timestamp, payload, context_type, entity_ids, processed`

// ListUnprocessedEvents returns up to limit events awaiting downstream
// consumption (pattern mining, rhythm updates, prediction generation).
func (s *SQLiteStore) ListUnprocessedEvents(limit int) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+eventColumns+" FROM events WHERE processed = 0 ORDER BY timestamp LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListEventsSince returns every event at or after since, in timestamp order,
// regardless of processed state (used by rhythm/pattern re-aggregation).
func (s *SQLiteStore) ListEventsSince(since int64) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+eventColumns+" FROM events WHERE timestamp >= ? ORDER BY timestamp", since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkEventProcessed flags an event as consumed by downstream analysis.
func (s *SQLiteStore) MarkEventProcessed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE events SET processed = 1 WHERE id = ?", id)
	return err
}
