package store

import "fmt"

// schemaSQL returns the DDL for all tables. embeddingDim controls the
// vec0 virtual table dimension.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- File registry with hash-based change detection
CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    filename TEXT NOT NULL,
    sha256 TEXT NOT NULL,
    mtime REAL NOT NULL,
    size INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','indexing','indexed','error')),
    last_error TEXT,
    pages INTEGER,
    extracted_at TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    public_read BOOLEAN NOT NULL DEFAULT 0,
    employer_name TEXT,
    union_local TEXT,
    effective_date TEXT,
    expiry_date TEXT,
    region TEXT,
    short_name TEXT
);

-- Extracted pages: cleaned text for indexing, raw text for display
CREATE TABLE IF NOT EXISTS pdf_pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    page_number INTEGER NOT NULL,
    text TEXT NOT NULL,
    raw_text TEXT,
    UNIQUE(file_id, page_number)
);

-- FTS5 over page text
CREATE VIRTUAL TABLE IF NOT EXISTS page_fts USING fts5(
    file_id UNINDEXED,
    page_id UNINDEXED,
    page_number UNINDEXED,
    text,
    tokenize='porter unicode61'
);

-- Semantic chunks with heading metadata
CREATE TABLE IF NOT EXISTS document_chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    chunk_number INTEGER NOT NULL,
    text TEXT NOT NULL,
    heading TEXT,
    parent_heading TEXT,
    section_number TEXT,
    page_start INTEGER NOT NULL,
    page_end INTEGER NOT NULL,
    headings_json TEXT,
    chunk_type TEXT DEFAULT 'text',
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE(file_id, chunk_number)
);

-- FTS5 over chunk text with heading as a separate searchable field
CREATE VIRTUAL TABLE IF NOT EXISTS chunk_fts USING fts5(
    file_id UNINDEXED,
    chunk_id UNINDEXED,
    heading,
    text,
    tokenize='porter unicode61'
);

-- Extracted tables
CREATE TABLE IF NOT EXISTS document_tables (
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
);

-- User-editable synonym overlay
CREATE TABLE IF NOT EXISTS custom_synonyms (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    canonical_term TEXT NOT NULL UNIQUE,
    synonyms TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);

-- Dense vector collections via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_pages USING vec0(
    page_id INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);
CREATE INDEX IF NOT EXISTS idx_files_filename ON files(filename);
CREATE INDEX IF NOT EXISTS idx_files_public_read ON files(public_read);
CREATE INDEX IF NOT EXISTS idx_pages_file ON pdf_pages(file_id);
CREATE INDEX IF NOT EXISTS idx_chunks_file ON document_chunks(file_id);
CREATE INDEX IF NOT EXISTS idx_chunks_heading ON document_chunks(heading);
CREATE INDEX IF NOT EXISTS idx_chunks_type ON document_chunks(chunk_type);
CREATE INDEX IF NOT EXISTS idx_tables_file ON document_tables(file_id);
CREATE INDEX IF NOT EXISTS idx_tables_wage ON document_tables(is_wage_table);
CREATE INDEX IF NOT EXISTS idx_custom_synonyms_canonical ON custom_synonyms(canonical_term);
`, embeddingDim, embeddingDim)
}
