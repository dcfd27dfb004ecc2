// Uses ncruces/go-sqlite3/driver, which provides a database/sql interface.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// SQLiteStore is the SQLite-backed data store.
// Safe for concurrent use by multiple goroutines.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines the entity/edge registry that every other table in the
// data layer (assertions, events, goals, messages) hangs off of by id.
const schema = `
-- Entities (canonical person/org/place/thing registry)
CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    canonical_name TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    aliases TEXT,
    total_mentions INTEGER DEFAULT 0,
    created_by TEXT DEFAULT 'user',
    merge_history TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(canonical_name);
CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(entity_type);

-- Edges (Graph). No foreign keys - referential integrity managed at application level.
CREATE TABLE IF NOT EXISTS edges (
    id TEXT PRIMARY KEY,
    from_entity_id TEXT NOT NULL,
    to_entity_id TEXT NOT NULL,
    edge_type TEXT NOT NULL,
    strength REAL DEFAULT 1.0,
    evidence_count INTEGER DEFAULT 1,
    last_evidence_at INTEGER,
    created_at INTEGER NOT NULL,
    UNIQUE(from_entity_id, to_entity_id, edge_type)
);

CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_entity_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_entity_id);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ReadSnapshot holds the store's read lock for the duration of fn, so a
// caller that needs several reads to observe one consistent point in time
// (e.g. the context assembler) doesn't interleave with a concurrent writer
// between its own calls. fn must only call read methods; calling a write
// method from within fn deadlocks, since sync.RWMutex isn't write-reentrant.
func (s *SQLiteStore) ReadSnapshot(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// withTx runs fn inside a transaction, committing on a nil return and rolling
// back otherwise (including on panic). Callers already holding s.mu should
// use this instead of multiple unguarded db.Exec calls whenever a step must
// be all-or-nothing, e.g. an entity merge touching attributes, edges, and
// assertions together.
func (s *SQLiteStore) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// =============================================================================
// Entity CRUD
// =============================================================================

// UpsertEntity inserts or updates an entity.
func (s *SQLiteStore) UpsertEntity(entity *Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertEntityLocked(entity)
}

func (s *SQLiteStore) upsertEntityLocked(entity *Entity) error {
	aliasesJSON, err := json.Marshal(entity.Aliases)
	if err != nil {
		return fmt.Errorf("failed to marshal aliases: %w", err)
	}
	mergeHistoryJSON, err := json.Marshal(entity.MergeHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal merge history: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO entities (id, canonical_name, entity_type, aliases,
			total_mentions, created_by, merge_history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			canonical_name = excluded.canonical_name,
			entity_type = excluded.entity_type,
			aliases = excluded.aliases,
			total_mentions = excluded.total_mentions,
			merge_history = excluded.merge_history,
			updated_at = excluded.updated_at
	`, entity.ID, entity.CanonicalName, string(entity.EntityType), string(aliasesJSON),
		entity.TotalMentions, entity.CreatedBy, string(mergeHistoryJSON),
		entity.CreatedAt, entity.UpdatedAt)

	return err
}

func scanEntity(scan func(...interface{}) error) (*Entity, error) {
	var entity Entity
	var entityType string
	var aliasesJSON, mergeHistoryJSON sql.NullString

	if err := scan(&entity.ID, &entity.CanonicalName, &entityType, &aliasesJSON,
		&entity.TotalMentions, &entity.CreatedBy, &mergeHistoryJSON,
		&entity.CreatedAt, &entity.UpdatedAt); err != nil {
		return nil, err
	}

	entity.EntityType = EntityType(entityType)
	entity.Aliases = []string{}
	if aliasesJSON.Valid && aliasesJSON.String != "" {
		json.Unmarshal([]byte(aliasesJSON.String), &entity.Aliases)
	}
	entity.MergeHistory = []string{}
	if mergeHistoryJSON.Valid && mergeHistoryJSON.String != "" {
		json.Unmarshal([]byte(mergeHistoryJSON.String), &entity.MergeHistory)
	}
	return &entity, nil
}

const entityColumns = `id, canonical_name, entity_type, aliases, total_mentions, created_by, merge_history, created_at, updated_at`

// GetEntity retrieves an entity by ID.
func (s *SQLiteStore) GetEntity(id string) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+entityColumns+" FROM entities WHERE id = ?", id)
	entity, err := scanEntity(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entity, err
}

// GetEntityByName finds an entity by its canonical name (case-insensitive).
func (s *SQLiteStore) GetEntityByName(name string) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+entityColumns+" FROM entities WHERE LOWER(canonical_name) = LOWER(?)", name)
	entity, err := scanEntity(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entity, err
}

// DeleteEntity removes an entity by ID.
func (s *SQLiteStore) DeleteEntity(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM entities WHERE id = ?", id)
	return err
}

// ListEntities returns all entities, optionally filtered by entity type.
func (s *SQLiteStore) ListEntities(entityType string) ([]*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error

	if entityType != "" {
		rows, err = s.db.Query("SELECT "+entityColumns+" FROM entities WHERE entity_type = ? ORDER BY canonical_name", entityType)
	} else {
		rows, err = s.db.Query("SELECT " + entityColumns + " FROM entities ORDER BY canonical_name")
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*Entity
	for rows.Next() {
		entity, err := scanEntity(rows.Scan)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

// SearchEntitiesLike finds entities whose canonical name or any alias
// contains query, case-insensitively, preferring prefix matches: an entity
// whose name starts with query sorts ahead of one that merely contains it.
func (s *SQLiteStore) SearchEntitiesLike(query string, limit int) ([]*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contains := "%" + query + "%"
	prefix := query + "%"
	rows, err := s.db.Query(`
		SELECT `+entityColumns+` FROM entities
		WHERE canonical_name LIKE ? COLLATE NOCASE
		   OR aliases LIKE ? COLLATE NOCASE
		ORDER BY
			CASE WHEN canonical_name LIKE ? COLLATE NOCASE THEN 0 ELSE 1 END,
			canonical_name
		LIMIT ?
	`, contains, contains, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*Entity
	for rows.Next() {
		e, err := scanEntity(rows.Scan)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// CountEntities returns the total number of entities.
func (s *SQLiteStore) CountEntities() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM entities").Scan(&count)
	return count, err
}

// =============================================================================
// Edge CRUD
// =============================================================================

// UpsertEdge inserts or updates an edge, or bumps strength/evidence if the
// (from, to, edge_type) triple already exists.
func (s *SQLiteStore) UpsertEdge(edge *GraphEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertEdgeLocked(edge)
}

func (s *SQLiteStore) upsertEdgeLocked(edge *GraphEdge) error {
	_, err := s.db.Exec(`
		INSERT INTO edges (id, from_entity_id, to_entity_id, edge_type, strength,
			evidence_count, last_evidence_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(from_entity_id, to_entity_id, edge_type) DO UPDATE SET
			strength = excluded.strength,
			evidence_count = edges.evidence_count + 1,
			last_evidence_at = excluded.last_evidence_at
	`, edge.ID, edge.FromEntityID, edge.ToEntityID, edge.EdgeType, edge.Strength,
		edge.EvidenceCount, edge.LastEvidenceAt, edge.CreatedAt)

	return err
}

const edgeColumns = `id, from_entity_id, to_entity_id, edge_type, strength, evidence_count, last_evidence_at, created_at`

func scanEdge(scan func(...interface{}) error) (*GraphEdge, error) {
	var edge GraphEdge
	if err := scan(&edge.ID, &edge.FromEntityID, &edge.ToEntityID, &edge.EdgeType,
		&edge.Strength, &edge.EvidenceCount, &edge.LastEvidenceAt, &edge.CreatedAt); err != nil {
		return nil, err
	}
	return &edge, nil
}

// GetEdge retrieves an edge by ID.
func (s *SQLiteStore) GetEdge(id string) (*GraphEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+edgeColumns+" FROM edges WHERE id = ?", id)
	edge, err := scanEdge(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return edge, err
}

// DeleteEdge removes an edge by ID.
func (s *SQLiteStore) DeleteEdge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM edges WHERE id = ?", id)
	return err
}

// ListEdgesForEntity returns all edges connected to an entity.
func (s *SQLiteStore) ListEdgesForEntity(entityID string) ([]*GraphEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT "+edgeColumns+" FROM edges WHERE from_entity_id = ? OR to_entity_id = ?",
		entityID, entityID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*GraphEdge
	for rows.Next() {
		edge, err := scanEdge(rows.Scan)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}

	return edges, rows.Err()
}

// CountEdges returns the total number of edges.
func (s *SQLiteStore) CountEdges() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&count)
	return count, err
}

// =============================================================================
// Helpers
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
