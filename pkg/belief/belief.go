// Package belief implements the bi-temporal assertion log: time-travel
// queries, supersession chains, contradiction detection, and both automatic
// and user-driven contradiction resolution.
package belief

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// Store wraps a store.Storer with the belief-specific operations every
// caller should go through instead of touching assertion rows directly.
type Store struct {
	store store.Storer
	log   zerolog.Logger
}

// New creates a belief Store bound to s.
func New(s store.Storer, log zerolog.Logger) *Store {
	return &Store{store: s, log: log}
}

// AssertInput is everything needed to record a new fact.
type AssertInput struct {
	SubjectEntityID string
	Predicate       string
	ObjectText      string
	ObjectEntityID  string
	Confidence      float64
	SourceType      string
	SourceID        string
	SourceTimestamp int64
	ValidFrom       int64
	ValidUntil      int64
}

// Assert records a new assertion, stamping ExtractedAt to now.
func (b *Store) Assert(in AssertInput) (*store.Assertion, error) {
	a := &store.Assertion{
		ID:              uuid.NewString(),
		SubjectEntityID: in.SubjectEntityID,
		Predicate:       in.Predicate,
		ObjectText:      in.ObjectText,
		ObjectEntityID:  in.ObjectEntityID,
		Confidence:      in.Confidence,
		SourceType:      in.SourceType,
		SourceID:        in.SourceID,
		SourceTimestamp: in.SourceTimestamp,
		ExtractedAt:     time.Now().UnixMilli(),
		ValidFrom:       in.ValidFrom,
		ValidUntil:      in.ValidUntil,
	}
	if err := b.store.InsertAssertion(a); err != nil {
		return nil, fmt.Errorf("belief: assert: %w", err)
	}
	return a, nil
}

// AssertionsAsOf is a pass-through to the time-travel query: assertions
// about entity whose validity window covers t, ordered extracted_at
// descending, optionally restricted to predicate and optionally including
// superseded assertions.
func (b *Store) AssertionsAsOf(entity string, t int64, predicate string, includeSuperseded bool) ([]*store.Assertion, error) {
	return b.store.AssertionsAsOf(entity, t, predicate, includeSuperseded)
}

// Supersede replaces oldID with a new assertion built from newData, inheriting
// subject and predicate from the old assertion (the object comes from
// newData) and forming a strictly linear chain: old.valid_until =
// new.valid_from (now when newData.ValidFrom is zero), old.superseded_by_id =
// new.id.
func (b *Store) Supersede(oldID string, newData AssertInput) (*store.Assertion, error) {
	old, err := b.store.GetAssertion(oldID)
	if err != nil {
		return nil, fmt.Errorf("belief: supersede: load old: %w", err)
	}
	if old == nil {
		return nil, fmt.Errorf("belief: supersede: assertion %s not found", oldID)
	}

	now := time.Now().UnixMilli()
	newData.SubjectEntityID = old.SubjectEntityID
	newData.Predicate = old.Predicate
	next := &store.Assertion{
		ID:              uuid.NewString(),
		SubjectEntityID: old.SubjectEntityID,
		Predicate:       old.Predicate,
		ObjectText:      newData.ObjectText,
		ObjectEntityID:  newData.ObjectEntityID,
		Confidence:      newData.Confidence,
		SourceType:      newData.SourceType,
		SourceID:        newData.SourceID,
		SourceTimestamp: newData.SourceTimestamp,
		ExtractedAt:     now,
		ValidFrom:       newData.ValidFrom,
		ValidUntil:      newData.ValidUntil,
		SupersedesID:    oldID,
	}
	if next.ValidFrom == 0 {
		next.ValidFrom = now
	}
	if err := b.store.InsertAssertion(next); err != nil {
		return nil, fmt.Errorf("belief: supersede: insert new: %w", err)
	}

	old.ValidUntil = next.ValidFrom
	old.SupersededByID = next.ID
	if err := b.store.UpdateAssertion(old); err != nil {
		return nil, fmt.Errorf("belief: supersede: close old: %w", err)
	}
	return next, nil
}
