package vectorindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/google/uuid"
)

const vectorTable = "message_vectors"

// SQLiteIndex is the persistent Index backend: a vec0 virtual table
// keyed by (source_type, source_id), registered through the same
// sqlite-vec-go-bindings import the relational store already carries.
// Unlike the host module's mattn/go-sqlite3-based vector manager, the
// ncruces driver compiles vec0 in rather than loading it as a runtime
// extension, so there is no EnableLoadExtension/load_extension dance.
type SQLiteIndex struct {
	db   *sql.DB
	dims int
}

// OpenSQLiteIndex opens (creating if necessary) a persistent vector
// index at dsn with the given embedding dimensionality.
func OpenSQLiteIndex(dsn string, dims int) (*SQLiteIndex, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("vectorindex: dims must be positive, got %d", dims)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: open database: %w", err)
	}

	createStmt := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(id TEXT PRIMARY KEY, source_type TEXT, source_id TEXT, text TEXT, metadata TEXT, embedding FLOAT[%d]);",
		vectorTable, dims,
	)
	if _, err := db.Exec(createStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorindex: create vec0 table: %w", err)
	}

	return &SQLiteIndex{db: db, dims: dims}, nil
}

func vectorToBlob(vec []float32) []byte {
	buf := make([]byte, 0, len(vec)*4)
	for _, v := range vec {
		bits := math.Float32bits(v)
		buf = append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return buf
}

func (s *SQLiteIndex) Store(ctx context.Context, r Record) (string, error) {
	if len(r.Vector) != s.dims {
		return "", fmt.Errorf("vectorindex: vector has %d dimensions, index expects %d", len(r.Vector), s.dims)
	}

	metadataJSON, err := json.Marshal(r.Metadata)
	if err != nil {
		return "", fmt.Errorf("vectorindex: marshal metadata: %w", err)
	}

	var id string
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE source_type = ? AND source_id = ?", vectorTable),
		r.SourceType, r.SourceID,
	).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		id = uuid.NewString()
		_, err = s.db.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (id, source_type, source_id, text, metadata, embedding) VALUES (?, ?, ?, ?, ?, ?)", vectorTable),
			id, r.SourceType, r.SourceID, r.Text, string(metadataJSON), vectorToBlob(r.Vector),
		)
		if err != nil {
			return "", fmt.Errorf("vectorindex: insert: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("vectorindex: lookup existing row: %w", err)
	default:
		_, err = s.db.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET text = ?, metadata = ?, embedding = ? WHERE id = ?", vectorTable),
			r.Text, string(metadataJSON), vectorToBlob(r.Vector), id,
		)
		if err != nil {
			return "", fmt.Errorf("vectorindex: update: %w", err)
		}
	}
	return id, nil
}

func (s *SQLiteIndex) Search(ctx context.Context, query []float32, limit int, filters Filters) ([]Match, error) {
	if len(query) != s.dims {
		return nil, fmt.Errorf("vectorindex: query has %d dimensions, index expects %d", len(query), s.dims)
	}
	if limit <= 0 {
		return nil, nil
	}

	q := fmt.Sprintf(
		"SELECT id, source_type, source_id, text, distance FROM %s WHERE embedding MATCH ? AND k = ?",
		vectorTable,
	)
	args := []interface{}{vectorToBlob(query), limit}
	if filters.SourceType != "" {
		q += " AND source_type = ?"
		args = append(args, filters.SourceType)
	}
	q += " ORDER BY distance"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.SourceType, &m.SourceID, &m.Text, &m.Distance); err != nil {
			return nil, fmt.Errorf("vectorindex: scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorindex: iterate matches: %w", err)
	}
	return matches, nil
}

func (s *SQLiteIndex) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", vectorTable), id)
	if err != nil {
		return fmt.Errorf("vectorindex: delete: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) DeleteBySource(ctx context.Context, sourceType, sourceID string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE source_type = ? AND source_id = ?", vectorTable),
		sourceType, sourceID,
	)
	if err != nil {
		return fmt.Errorf("vectorindex: delete by source: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s", vectorTable)).Scan(&n); err != nil {
		return 0, fmt.Errorf("vectorindex: count: %w", err)
	}
	return n, nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// dsnWithDirectory builds a file-based DSN under dir, matching the
// relational store's one-file-per-user layout convention.
func dsnWithDirectory(dir string) string {
	if dir == "" {
		return ":memory:"
	}
	return strings.TrimRight(dir, "/") + "/vectors.db"
}
