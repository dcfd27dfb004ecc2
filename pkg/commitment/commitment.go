// Package commitment tracks promises, asks, decisions, deadlines, and
// meetings, and the goal hierarchies they roll up into.
package commitment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// Tracker wraps a store.Storer with commitment- and goal-specific workflows.
type Tracker struct {
	store store.Storer
	log   zerolog.Logger
}

// New creates a Tracker bound to s.
func New(s store.Storer, log zerolog.Logger) *Tracker {
	return &Tracker{store: s, log: log}
}

// CreateInput is everything needed to open a new commitment.
type CreateInput struct {
	Type                 store.CommitmentType
	Description          string
	OwnerEntityID        string
	CounterpartyEntityID string
	DueDate              int64
	SourceType           string
	SourceID             string
}

// Create opens a new commitment in the open status.
func (t *Tracker) Create(in CreateInput) (*store.Commitment, error) {
	c := &store.Commitment{
		ID:                   uuid.NewString(),
		Type:                 in.Type,
		Description:          in.Description,
		OwnerEntityID:        in.OwnerEntityID,
		CounterpartyEntityID: in.CounterpartyEntityID,
		DueDate:              in.DueDate,
		Status:               store.CommitmentOpen,
		SourceType:           in.SourceType,
		SourceID:             in.SourceID,
		CreatedAt:            time.Now().UnixMilli(),
	}
	if err := t.store.UpsertCommitment(c); err != nil {
		return nil, fmt.Errorf("commitment: create: %w", err)
	}
	return c, nil
}

// Complete closes a commitment. For a meeting-type commitment closed by the
// calendar-sync pass, completedAt is stamped to the meeting's own due date
// rather than the moment the sync happened to run.
func (t *Tracker) Complete(id string, viaCalendarSync bool) error {
	c, err := t.store.GetCommitment(id)
	if err != nil {
		return fmt.Errorf("commitment: complete: load: %w", err)
	}
	if c == nil {
		return fmt.Errorf("commitment: complete: %s not found", id)
	}

	c.Status = store.CommitmentCompleted
	if viaCalendarSync && c.Type == store.CommitmentMeeting && c.DueDate != 0 {
		c.CompletedAt = c.DueDate
	} else {
		c.CompletedAt = time.Now().UnixMilli()
	}
	if err := t.store.UpsertCommitment(c); err != nil {
		return fmt.Errorf("commitment: complete: save: %w", err)
	}
	return nil
}

// Break marks a commitment as broken (not delivered, not cancelled).
func (t *Tracker) Break(id string) error {
	c, err := t.store.GetCommitment(id)
	if err != nil {
		return fmt.Errorf("commitment: break: load: %w", err)
	}
	if c == nil {
		return fmt.Errorf("commitment: break: %s not found", id)
	}
	c.Status = store.CommitmentBroken
	if err := t.store.UpsertCommitment(c); err != nil {
		return fmt.Errorf("commitment: break: save: %w", err)
	}
	return nil
}

// OpenCommitments returns all open commitments, due_date ascending, nulls last.
func (t *Tracker) OpenCommitments() ([]*store.Commitment, error) {
	return t.store.ListOpenCommitments()
}

// Overdue returns open commitments whose due date has passed.
func (t *Tracker) Overdue(now int64) ([]*store.Commitment, error) {
	return t.store.ListOverdueCommitments(now)
}

// DueReminders returns open commitments whose due time falls within
// withinMillis of now and whose reminder has not yet been sent.
func (t *Tracker) DueReminders(now, withinMillis int64) ([]*store.Commitment, error) {
	return t.store.ListDueReminders(now, withinMillis)
}

// MarkReminderSent flags a commitment's reminder as delivered so it is not
// surfaced again by DueReminders.
func (t *Tracker) MarkReminderSent(id string) error {
	c, err := t.store.GetCommitment(id)
	if err != nil {
		return fmt.Errorf("commitment: mark reminder sent: load: %w", err)
	}
	if c == nil {
		return fmt.Errorf("commitment: mark reminder sent: %s not found", id)
	}
	c.ReminderSent = true
	if err := t.store.UpsertCommitment(c); err != nil {
		return fmt.Errorf("commitment: mark reminder sent: save: %w", err)
	}
	return nil
}
