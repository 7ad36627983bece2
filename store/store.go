package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// File represents a row in the files table.
type File struct {
	ID            int64   `json:"id"`
	Path          string  `json:"path"`
	Filename      string  `json:"filename"`
	SHA256        string  `json:"sha256"`
	Mtime         float64 `json:"mtime"`
	Size          int64   `json:"size"`
	Status        string  `json:"status"`
	LastError     string  `json:"last_error,omitempty"`
	Pages         int     `json:"pages,omitempty"`
	ExtractedAt   string  `json:"extracted_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
	PublicRead    bool    `json:"public_read"`
	EmployerName  string  `json:"employer_name,omitempty"`
	UnionLocal    string  `json:"union_local,omitempty"`
	EffectiveDate string  `json:"effective_date,omitempty"`
	ExpiryDate    string  `json:"expiry_date,omitempty"`
	Region        string  `json:"region,omitempty"`
	ShortName     string  `json:"short_name,omitempty"`
}

// Page represents a row in the pdf_pages table.
type Page struct {
	ID         int64  `json:"id"`
	FileID     int64  `json:"file_id"`
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	RawText    string `json:"raw_text,omitempty"`
}

// Chunk represents a row in the document_chunks table.
type Chunk struct {
	ID            int64    `json:"id"`
	FileID        int64    `json:"file_id"`
	ChunkNumber   int      `json:"chunk_number"`
	Text          string   `json:"text"`
	Heading       string   `json:"heading,omitempty"`
	ParentHeading string   `json:"parent_heading,omitempty"`
	SectionNumber string   `json:"section_number,omitempty"`
	PageStart     int      `json:"page_start"`
	PageEnd       int      `json:"page_end"`
	Headings      []string `json:"headings,omitempty"`
	ChunkType     string   `json:"chunk_type"`
	Filename      string   `json:"filename,omitempty"`
	Path          string   `json:"path,omitempty"`
}

// Table represents a row in the document_tables table.
type Table struct {
	ID             int64      `json:"id"`
	FileID         int64      `json:"file_id"`
	PageNumber     int        `json:"page_number"`
	TableIndex     int        `json:"table_index"`
	Headers        []string   `json:"headers"`
	Rows           [][]string `json:"rows"`
	MarkdownText   string     `json:"markdown_text"`
	ContextHeading string     `json:"context_heading,omitempty"`
	IsWageTable    bool       `json:"is_wage_table"`
	Filename       string     `json:"filename,omitempty"`
	Path           string     `json:"path,omitempty"`
}

// Store wraps the SQLite database for all persistence: entity tables,
// the FTS5 indexes, and the sqlite-vec collections.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including sqlite-vec and FTS5 virtual tables.
func New(dbPath string, embeddingDim int) (*Store, error) {
	if embeddingDim == 0 {
		embeddingDim = 768
	}

	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EmbeddingDim returns the configured embedding dimension.
func (s *Store) EmbeddingDim() int {
	return s.embeddingDim
}

// --- File operations ---

const fileCols = `id, path, filename, sha256, mtime, size, status,
	COALESCE(last_error, ''), COALESCE(pages, 0), COALESCE(extracted_at, ''),
	COALESCE(created_at, ''), public_read,
	COALESCE(employer_name, ''), COALESCE(union_local, ''),
	COALESCE(effective_date, ''), COALESCE(expiry_date, ''),
	COALESCE(region, ''), COALESCE(short_name, '')`

func scanFile(row interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	err := row.Scan(&f.ID, &f.Path, &f.Filename, &f.SHA256, &f.Mtime, &f.Size,
		&f.Status, &f.LastError, &f.Pages, &f.ExtractedAt, &f.CreatedAt,
		&f.PublicRead, &f.EmployerName, &f.UnionLocal, &f.EffectiveDate,
		&f.ExpiryDate, &f.Region, &f.ShortName)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// InsertFile registers a newly discovered file with status pending.
func (s *Store) InsertFile(ctx context.Context, f File) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO files (path, filename, sha256, mtime, size, status, public_read)
		VALUES (?, ?, ?, ?, ?, 'pending', 0)
	`, f.Path, f.Filename, f.SHA256, f.Mtime, f.Size)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MarkFileChanged resets a file to pending after its content hash changed,
// clearing derived page and FTS rows in the same transaction.
func (s *Store) MarkFileChanged(ctx context.Context, id int64, sha256 string, mtime float64, size int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE files SET sha256 = ?, mtime = ?, size = ?, status = 'pending',
				last_error = NULL, pages = NULL, extracted_at = NULL
			WHERE id = ?`, sha256, mtime, size, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM page_fts WHERE file_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"DELETE FROM pdf_pages WHERE file_id = ?", id)
		return err
	})
}

// GetFile retrieves a file by ID.
func (s *Store) GetFile(ctx context.Context, id int64) (*File, error) {
	return scanFile(s.db.QueryRowContext(ctx,
		"SELECT "+fileCols+" FROM files WHERE id = ?", id))
}

// GetFileByPath retrieves a file by its absolute path.
func (s *Store) GetFileByPath(ctx context.Context, path string) (*File, error) {
	return scanFile(s.db.QueryRowContext(ctx,
		"SELECT "+fileCols+" FROM files WHERE path = ?", path))
}

// ListFiles returns all files ordered by filename.
func (s *Store) ListFiles(ctx context.Context) ([]File, error) {
	return s.queryFiles(ctx, "SELECT "+fileCols+" FROM files ORDER BY filename")
}

// ListIndexedFiles returns files with status indexed, ordered by filename.
func (s *Store) ListIndexedFiles(ctx context.Context) ([]File, error) {
	return s.queryFiles(ctx,
		"SELECT "+fileCols+" FROM files WHERE status = 'indexed' ORDER BY filename")
}

// ListPublicFiles returns files marked public_read.
func (s *Store) ListPublicFiles(ctx context.Context) ([]File, error) {
	return s.queryFiles(ctx,
		"SELECT "+fileCols+" FROM files WHERE public_read = 1 ORDER BY filename")
}

func (s *Store) queryFiles(ctx context.Context, query string, args ...any) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// DeleteFile removes a file and cascades to pages, chunks, tables, FTS
// rows, and embeddings.
func (s *Store) DeleteFile(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return deleteFileDerived(ctx, tx, id, true)
	})
}

// deleteFileDerived removes derived rows for a file; when dropFile is true
// the files row itself goes too. FK cascade covers pages/chunks/tables, the
// FTS and vec virtual tables have no FK and are cleared explicitly.
func deleteFileDerived(ctx context.Context, tx *sql.Tx, id int64, dropFile bool) error {
	stmts := []string{
		"DELETE FROM page_fts WHERE file_id = ?",
		"DELETE FROM chunk_fts WHERE file_id = ?",
		`DELETE FROM vec_chunks WHERE chunk_id IN (
			SELECT id FROM document_chunks WHERE file_id = ?)`,
		`DELETE FROM vec_pages WHERE page_id IN (
			SELECT id FROM pdf_pages WHERE file_id = ?)`,
		"DELETE FROM document_tables WHERE file_id = ?",
		"DELETE FROM document_chunks WHERE file_id = ?",
		"DELETE FROM pdf_pages WHERE file_id = ?",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	if dropFile {
		if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id); err != nil {
			return err
		}
	}
	return nil
}

// SetFileStatus updates the status field; lastError may be empty.
func (s *Store) SetFileStatus(ctx context.Context, id int64, status, lastError string) error {
	var le any
	if lastError != "" {
		le = lastError
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE files SET status = ?, last_error = ? WHERE id = ?",
		status, le, id)
	return err
}

// SetFileIndexed marks a file indexed with its page count and extraction time.
func (s *Store) SetFileIndexed(ctx context.Context, id int64, pages int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE files SET status = 'indexed', pages = ?, extracted_at = ?,
			last_error = NULL
		WHERE id = ?`, pages, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

// TogglePublicRead flips the public_read flag and returns the new value.
func (s *Store) TogglePublicRead(ctx context.Context, id int64) (bool, error) {
	var current bool
	err := s.db.QueryRowContext(ctx,
		"SELECT public_read FROM files WHERE id = ?", id).Scan(&current)
	if err != nil {
		return false, err
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE files SET public_read = ? WHERE id = ?", !current, id)
	if err != nil {
		return false, err
	}
	return !current, nil
}

// --- Page operations ---

// GetPageText returns the cleaned text of a specific page, or "" if missing.
func (s *Store) GetPageText(ctx context.Context, fileID int64, pageNumber int) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		"SELECT text FROM pdf_pages WHERE file_id = ? AND page_number = ?",
		fileID, pageNumber).Scan(&text)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return text, err
}

// GetFilePages returns all pages of a file ordered by page number.
func (s *Store) GetFilePages(ctx context.Context, fileID int64) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, page_number, text, COALESCE(raw_text, '')
		FROM pdf_pages WHERE file_id = ? ORDER BY page_number`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.FileID, &p.PageNumber, &p.Text, &p.RawText); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountFilePages returns the page row count for a file.
func (s *Store) CountFilePages(ctx context.Context, fileID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pdf_pages WHERE file_id = ?", fileID).Scan(&n)
	return n, err
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
