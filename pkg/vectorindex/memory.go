package vectorindex

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryIndex is a brute-force Index used when no persistent vector
// directory is configured. Safe for concurrent use; intended for small
// deployments or as the fallback path, not for large message volumes.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	bySrc   map[string]string // sourceType|sourceID -> id
}

type memoryRecord struct {
	Record
	id string
}

// NewMemory creates an empty in-memory index.
func NewMemory() *MemoryIndex {
	return &MemoryIndex{
		records: make(map[string]*memoryRecord),
		bySrc:   make(map[string]string),
	}
}

func sourceKey(sourceType, sourceID string) string {
	return sourceType + "|" + sourceID
}

func (m *MemoryIndex) Store(_ context.Context, r Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sourceKey(r.SourceType, r.SourceID)
	if existingID, ok := m.bySrc[key]; ok {
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		r.Vector = vec
		m.records[existingID] = &memoryRecord{Record: r, id: existingID}
		return existingID, nil
	}

	id := uuid.NewString()
	vec := make([]float32, len(r.Vector))
	copy(vec, r.Vector)
	r.Vector = vec
	m.records[id] = &memoryRecord{Record: r, id: id}
	m.bySrc[key] = id
	return id, nil
}

func (m *MemoryIndex) Search(_ context.Context, query []float32, limit int, filters Filters) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 || limit <= 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(m.records))
	for _, rec := range m.records {
		if filters.SourceType != "" && rec.SourceType != filters.SourceType {
			continue
		}
		matches = append(matches, Match{
			ID:         rec.id,
			SourceType: rec.SourceType,
			SourceID:   rec.SourceID,
			Text:       rec.Text,
			Distance:   CosineDistance(query, rec.Vector),
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *MemoryIndex) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		delete(m.bySrc, sourceKey(rec.SourceType, rec.SourceID))
		delete(m.records, id)
	}
	return nil
}

func (m *MemoryIndex) DeleteBySource(_ context.Context, sourceType, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sourceKey(sourceType, sourceID)
	if id, ok := m.bySrc[key]; ok {
		delete(m.records, id)
		delete(m.bySrc, key)
	}
	return nil
}

func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryIndex) Close() error { return nil }
