package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// SchemaVersion is the version the current code expects after migration.
const SchemaVersion = 4

// migration represents a single schema migration.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

// execTolerant runs statements that may already be applied ("duplicate
// column name", "already exists"). Failures are logged, not fatal.
func execTolerant(tx *sql.Tx, version int, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			slog.Debug("migration: statement may already be applied",
				"version", version, "sql", stmt, "error", err)
		}
	}
	return nil
}

// migrations is the ordered list of all schema migrations.
// New migrations are appended at the end; never modify existing entries.
var migrations = []migration{
	{
		version:     1,
		description: "initial schema (applied via schemaSQL)",
		apply:       func(tx *sql.Tx) error { return nil },
	},
	{
		version:     2,
		description: "add raw_text to pdf_pages, public_read to files",
		apply: func(tx *sql.Tx) error {
			return execTolerant(tx, 2,
				"ALTER TABLE pdf_pages ADD COLUMN raw_text TEXT",
				"ALTER TABLE files ADD COLUMN public_read BOOLEAN NOT NULL DEFAULT 0",
				"CREATE INDEX IF NOT EXISTS idx_files_public_read ON files(public_read)",
			)
		},
	},
	{
		version:     3,
		description: "add custom_synonyms table",
		apply: func(tx *sql.Tx) error {
			return execTolerant(tx, 3,
				`CREATE TABLE IF NOT EXISTS custom_synonyms (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					canonical_term TEXT NOT NULL UNIQUE,
					synonyms TEXT NOT NULL,
					created_at TEXT DEFAULT (datetime('now')),
					updated_at TEXT DEFAULT (datetime('now'))
				)`,
				"CREATE INDEX IF NOT EXISTS idx_custom_synonyms_canonical ON custom_synonyms(canonical_term)",
			)
		},
	},
	{
		version:     4,
		description: "add chunk_type, document_tables, file metadata columns",
		apply: func(tx *sql.Tx) error {
			return execTolerant(tx, 4,
				"ALTER TABLE document_chunks ADD COLUMN chunk_type TEXT DEFAULT 'text'",
				`CREATE TABLE IF NOT EXISTS document_tables (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
					page_number INTEGER NOT NULL,
					table_index INTEGER NOT NULL DEFAULT 0,
					headers_json TEXT,
					rows_json TEXT,
					markdown_text TEXT NOT NULL,
					context_heading TEXT,
					is_wage_table BOOLEAN NOT NULL DEFAULT 0,
					created_at TEXT DEFAULT (datetime('now'))
				)`,
				"ALTER TABLE files ADD COLUMN employer_name TEXT",
				"ALTER TABLE files ADD COLUMN union_local TEXT",
				"ALTER TABLE files ADD COLUMN effective_date TEXT",
				"ALTER TABLE files ADD COLUMN expiry_date TEXT",
				"ALTER TABLE files ADD COLUMN region TEXT",
				"ALTER TABLE files ADD COLUMN short_name TEXT",
				"CREATE INDEX IF NOT EXISTS idx_chunks_type ON document_chunks(chunk_type)",
				"CREATE INDEX IF NOT EXISTS idx_tables_file ON document_tables(file_id)",
				"CREATE INDEX IF NOT EXISTS idx_tables_wage ON document_tables(is_wage_table)",
			)
		},
	},
}

// Migrate runs all pending schema migrations, one transaction per version step.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at TEXT DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		slog.Info("applying migration", "version", m.version, "description", m.description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}

		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_version (version, description) VALUES (?, ?)",
			m.version, m.description); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
	}

	return nil
}

// CurrentSchemaVersion reads the highest applied migration version.
func (s *Store) CurrentSchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}
