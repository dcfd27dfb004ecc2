package store

import (
	"database/sql"
	"encoding/json"
)

const commitmentColumns = `id, type, description, owner_entity_id, counterparty_entity_id, due_date,
	status, source_type, source_id, created_at, completed_at, reminder_sent`

func scanCommitment(scan func(...interface{}) error) (*Commitment, error) {
	var c Commitment
	var commitmentType, status string
	var ownerEntityID, counterpartyEntityID, sourceType, sourceID sql.NullString
	var dueDate, completedAt sql.NullInt64
	var reminderSent int

	if err := scan(&c.ID, &commitmentType, &c.Description, &ownerEntityID, &counterpartyEntityID, &dueDate,
		&status, &sourceType, &sourceID, &c.CreatedAt, &completedAt, &reminderSent); err != nil {
		return nil, err
	}

	c.Type = CommitmentType(commitmentType)
	c.Status = CommitmentStatus(status)
	c.OwnerEntityID = ownerEntityID.String
	c.CounterpartyEntityID = counterpartyEntityID.String
	c.SourceType = sourceType.String
	c.SourceID = sourceID.String
	c.DueDate = dueDate.Int64
	c.CompletedAt = completedAt.Int64
	c.ReminderSent = reminderSent != 0
	return &c, nil
}

// UpsertCommitment inserts or updates a promise, ask, decision, deadline, or meeting.
func (s *SQLiteStore) UpsertCommitment(c *Commitment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO commitments (`+commitmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			due_date = excluded.due_date,
			status = excluded.status,
			completed_at = excluded.completed_at,
			reminder_sent = excluded.reminder_sent
	`, c.ID, string(c.Type), c.Description, nullableString(c.OwnerEntityID), nullableString(c.CounterpartyEntityID),
		nullableInt64(c.DueDate), string(c.Status), nullableString(c.SourceType), nullableString(c.SourceID),
		c.CreatedAt, nullableInt64(c.CompletedAt), boolToInt(c.ReminderSent))

	return err
}

// GetCommitment retrieves a commitment by ID.
func (s *SQLiteStore) GetCommitment(id string) (*Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+commitmentColumns+" FROM commitments WHERE id = ?", id)
	c, err := scanCommitment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListOpenCommitments returns every commitment still in the "open" state.
func (s *SQLiteStore) ListOpenCommitments() ([]*Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+commitmentColumns+` FROM commitments
		WHERE status = ?
		ORDER BY due_date IS NULL, due_date ASC`, string(CommitmentOpen))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commitments []*Commitment
	for rows.Next() {
		c, err := scanCommitment(rows.Scan)
		if err != nil {
			return nil, err
		}
		commitments = append(commitments, c)
	}
	return commitments, rows.Err()
}

// ListOverdueCommitments returns open commitments whose due date has passed now.
func (s *SQLiteStore) ListOverdueCommitments(now int64) ([]*Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT "+commitmentColumns+" FROM commitments WHERE status = ? AND due_date IS NOT NULL AND due_date < ?",
		string(CommitmentOpen), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commitments []*Commitment
	for rows.Next() {
		c, err := scanCommitment(rows.Scan)
		if err != nil {
			return nil, err
		}
		commitments = append(commitments, c)
	}
	return commitments, rows.Err()
}

// ListDueReminders returns open commitments with a due date inside
// [now, now+withinMillis) that have not yet had a reminder sent.
func (s *SQLiteStore) ListDueReminders(now, withinMillis int64) ([]*Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+commitmentColumns+` FROM commitments
		WHERE status = ? AND reminder_sent = 0
		AND due_date IS NOT NULL AND due_date >= ? AND due_date < ?
	`, string(CommitmentOpen), now, now+withinMillis)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commitments []*Commitment
	for rows.Next() {
		c, err := scanCommitment(rows.Scan)
		if err != nil {
			return nil, err
		}
		commitments = append(commitments, c)
	}
	return commitments, rows.Err()
}

const goalColumns = `id, description, goal_type, status, parent_goal_id, related_entities,
	created_at, target_date, completed_at`

func scanGoal(scan func(...interface{}) error) (*Goal, error) {
	var g Goal
	var goalType, status string
	var parentGoalID sql.NullString
	var relatedEntitiesJSON sql.NullString
	var targetDate, completedAt sql.NullInt64

	if err := scan(&g.ID, &g.Description, &goalType, &status, &parentGoalID, &relatedEntitiesJSON,
		&g.CreatedAt, &targetDate, &completedAt); err != nil {
		return nil, err
	}

	g.GoalType = GoalType(goalType)
	g.Status = GoalStatus(status)
	g.ParentGoalID = parentGoalID.String
	g.TargetDate = targetDate.Int64
	g.CompletedAt = completedAt.Int64
	g.RelatedEntities = []string{}
	if relatedEntitiesJSON.Valid && relatedEntitiesJSON.String != "" {
		json.Unmarshal([]byte(relatedEntitiesJSON.String), &g.RelatedEntities)
	}
	return &g, nil
}

// UpsertGoal inserts or updates a goal.
func (s *SQLiteStore) UpsertGoal(g *Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	relatedJSON, err := json.Marshal(g.RelatedEntities)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			status = excluded.status,
			parent_goal_id = excluded.parent_goal_id,
			related_entities = excluded.related_entities,
			target_date = excluded.target_date,
			completed_at = excluded.completed_at
	`, g.ID, g.Description, string(g.GoalType), string(g.Status), nullableString(g.ParentGoalID),
		string(relatedJSON), g.CreatedAt, nullableInt64(g.TargetDate), nullableInt64(g.CompletedAt))

	return err
}

// GetGoal retrieves a goal by ID.
func (s *SQLiteStore) GetGoal(id string) (*Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+goalColumns+" FROM goals WHERE id = ?", id)
	g, err := scanGoal(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

// ListGoalChildren returns every goal whose ParentGoalID is parentID.
func (s *SQLiteStore) ListGoalChildren(parentID string) ([]*Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+goalColumns+" FROM goals WHERE parent_goal_id = ?", parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []*Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// ListActiveGoals returns every goal still in progress, for the context
// assembler to filter down to the ones touching a given entity.
func (s *SQLiteStore) ListActiveGoals() ([]*Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+goalColumns+" FROM goals WHERE status = ?", string(GoalActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []*Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// DetachGoalChildren clears ParentGoalID on every child of parentID, used
// when deleting a goal: children are detached, never left dangling.
func (s *SQLiteStore) DetachGoalChildren(parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE goals SET parent_goal_id = NULL WHERE parent_goal_id = ?", parentID)
	return err
}

// LinkGoalCommitment associates a commitment with a goal.
func (s *SQLiteStore) LinkGoalCommitment(goalID, commitmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO goal_commitments (goal_id, commitment_id) VALUES (?, ?)
		ON CONFLICT(goal_id, commitment_id) DO NOTHING
	`, goalID, commitmentID)

	return err
}

// ListGoalCommitments returns the commitment IDs linked to a goal.
func (s *SQLiteStore) ListGoalCommitments(goalID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT commitment_id FROM goal_commitments WHERE goal_id = ?", goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
