package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// migration is one forward-only schema change, applied at most once and
// recorded in schema_version. Statements within a migration are executed
// individually so a partially-applied migration (e.g. from a crashed prior
// run) can be re-run: "already exists" errors are tolerated per-statement,
// any other error aborts the migration.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "base_schema", schema},
	{2, "domain_schema", domainSchema},
	{3, "messages_fts", ftsSchema},
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at INTEGER NOT NULL
);
`

// applyMigrations brings db up to the latest known schema version. Safe to
// call against an already-current database; pending migrations only.
func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(schemaVersionTable); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.Query("SELECT version FROM schema_version")
	if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema_version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := applyMigrationStatements(db, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := db.Exec(
			"INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)",
			m.version, m.name, time.Now().UnixMilli(),
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

// applyMigrationStatements executes a semicolon-delimited block of DDL one
// statement at a time, tolerating "already exists" so re-applying a
// migration that partially succeeded on a prior run is idempotent. Trigger
// bodies (BEGIN ... END;) contain their own internal semicolons, so those
// are kept together rather than split on every ";".
func applyMigrationStatements(db *sql.DB, block string) error {
	for _, stmt := range splitStatements(block) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return err
		}
	}
	return nil
}

// splitStatements divides a block of DDL into individual statements on ";",
// except while inside a trigger's BEGIN...END body, where embedded
// semicolons belong to the statement, not the delimiter.
func splitStatements(block string) []string {
	var stmts []string
	var cur strings.Builder
	depth := 0
	upper := strings.ToUpper(block)

	for i := 0; i < len(block); i++ {
		cur.WriteByte(block[i])
		if hasWordAt(upper, i, "BEGIN") {
			depth++
		}
		if hasWordAt(upper, i, "END") {
			depth--
		}
		if block[i] == ';' && depth <= 0 {
			stmts = append(stmts, cur.String())
			cur.Reset()
			depth = 0
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		stmts = append(stmts, cur.String())
	}
	return stmts
}

// hasWordAt reports whether upper contains word ending at index i (i.e. the
// byte just written), bounded by non-letter characters on both sides.
func hasWordAt(upper string, i int, word string) bool {
	end := i + 1
	start := end - len(word)
	if start < 0 || upper[start:end] != word {
		return false
	}
	if start > 0 && isWordByte(upper[start-1]) {
		return false
	}
	if end < len(upper) && isWordByte(upper[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
