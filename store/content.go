package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
)

// ReplaceDocumentContent atomically replaces all pages, chunks, and tables
// for a file, keeping the FTS indexes in sync within the same transaction.
// Returns the inserted page and chunk IDs in input order.
func (s *Store) ReplaceDocumentContent(ctx context.Context, fileID int64, pages []Page, chunks []Chunk, tables []Table) (pageIDs, chunkIDs []int64, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deleteFileDerived(ctx, tx, fileID, false); err != nil {
			return err
		}

		pageStmt, err := tx.PrepareContext(ctx,
			"INSERT INTO pdf_pages (file_id, page_number, text, raw_text) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer pageStmt.Close()

		pageFTSStmt, err := tx.PrepareContext(ctx,
			"INSERT INTO page_fts (file_id, page_id, page_number, text) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer pageFTSStmt.Close()

		for _, p := range pages {
			res, err := pageStmt.ExecContext(ctx, fileID, p.PageNumber, p.Text, p.RawText)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			pageIDs = append(pageIDs, id)
			if _, err := pageFTSStmt.ExecContext(ctx, fileID, id, p.PageNumber, p.Text); err != nil {
				return err
			}
		}

		chunkStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO document_chunks (file_id, chunk_number, text, heading,
				parent_heading, section_number, page_start, page_end,
				headings_json, chunk_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer chunkStmt.Close()

		chunkFTSStmt, err := tx.PrepareContext(ctx,
			"INSERT INTO chunk_fts (file_id, chunk_id, heading, text) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer chunkFTSStmt.Close()

		for _, c := range chunks {
			var headingsJSON any
			if len(c.Headings) > 0 {
				b, _ := json.Marshal(c.Headings)
				headingsJSON = string(b)
			}
			chunkType := c.ChunkType
			if chunkType == "" {
				chunkType = "text"
			}
			res, err := chunkStmt.ExecContext(ctx, fileID, c.ChunkNumber, c.Text,
				nullStr(c.Heading), nullStr(c.ParentHeading), nullStr(c.SectionNumber),
				c.PageStart, c.PageEnd, headingsJSON, chunkType)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			chunkIDs = append(chunkIDs, id)
			if _, err := chunkFTSStmt.ExecContext(ctx, fileID, id, c.Heading, c.Text); err != nil {
				return err
			}
		}

		for _, t := range tables {
			headersJSON, _ := json.Marshal(t.Headers)
			rowsJSON, _ := json.Marshal(t.Rows)
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO document_tables (file_id, page_number, table_index,
					headers_json, rows_json, markdown_text, context_heading, is_wage_table)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				fileID, t.PageNumber, t.TableIndex, string(headersJSON),
				string(rowsJSON), t.MarkdownText, nullStr(t.ContextHeading),
				t.IsWageTable); err != nil {
				return err
			}
		}

		return nil
	})
	return pageIDs, chunkIDs, err
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// --- Chunk operations ---

const chunkCols = `c.id, c.file_id, c.chunk_number, c.text,
	COALESCE(c.heading, ''), COALESCE(c.parent_heading, ''),
	COALESCE(c.section_number, ''), c.page_start, c.page_end,
	COALESCE(c.headings_json, ''), COALESCE(c.chunk_type, 'text'),
	f.filename, f.path`

func scanChunk(row interface{ Scan(...any) error }) (*Chunk, error) {
	c := &Chunk{}
	var headingsJSON string
	err := row.Scan(&c.ID, &c.FileID, &c.ChunkNumber, &c.Text, &c.Heading,
		&c.ParentHeading, &c.SectionNumber, &c.PageStart, &c.PageEnd,
		&headingsJSON, &c.ChunkType, &c.Filename, &c.Path)
	if err != nil {
		return nil, err
	}
	if headingsJSON != "" {
		_ = json.Unmarshal([]byte(headingsJSON), &c.Headings)
	}
	return c, nil
}

// GetChunk returns a single chunk with file info, or nil if not found.
func (s *Store) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	c, err := scanChunk(s.db.QueryRowContext(ctx, `
		SELECT `+chunkCols+`
		FROM document_chunks c JOIN files f ON c.file_id = f.id
		WHERE c.id = ?`, chunkID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetFileChunks returns all chunks of a file ordered by chunk number.
func (s *Store) GetFileChunks(ctx context.Context, fileID int64) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkCols+`
		FROM document_chunks c JOIN files f ON c.file_id = f.id
		WHERE c.file_id = ? ORDER BY c.chunk_number`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *c)
	}
	return chunks, rows.Err()
}

// IndexedChunks returns every chunk of every indexed file, ordered by file
// then chunk number. Used by the vector index rebuild.
func (s *Store) IndexedChunks(ctx context.Context) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkCols+`
		FROM document_chunks c JOIN files f ON c.file_id = f.id
		WHERE f.status = 'indexed' AND c.text IS NOT NULL AND length(c.text) > 0
		ORDER BY f.id, c.chunk_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *c)
	}
	return chunks, rows.Err()
}

// IndexedPages returns every page of every indexed file, ordered by file
// then page number. Used by the page-level vector index rebuild.
func (s *Store) IndexedPages(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.file_id, p.page_number, p.text, COALESCE(p.raw_text, '')
		FROM pdf_pages p JOIN files f ON p.file_id = f.id
		WHERE f.status = 'indexed' AND p.text IS NOT NULL AND length(p.text) > 0
		ORDER BY f.id, p.page_number`)
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

// DocumentStructure returns the distinct heading outline of a file with
// aggregated page ranges.
func (s *Store) DocumentStructure(ctx context.Context, fileID int64) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT heading, COALESCE(parent_heading, ''), COALESCE(section_number, ''),
			MIN(page_start), MAX(page_end)
		FROM document_chunks
		WHERE file_id = ? AND heading IS NOT NULL
		GROUP BY heading
		ORDER BY MIN(page_start)`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outline []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.Heading, &c.ParentHeading, &c.SectionNumber,
			&c.PageStart, &c.PageEnd); err != nil {
			return nil, err
		}
		c.FileID = fileID
		outline = append(outline, c)
	}
	return outline, rows.Err()
}

// --- Table operations ---

// WageTables returns up to limit wage tables, optionally scoped to a file,
// ordered by page number.
func (s *Store) WageTables(ctx context.Context, fileID int64, limit int) ([]Table, error) {
	query := `
		SELECT dt.id, dt.file_id, dt.page_number, dt.table_index,
			COALESCE(dt.headers_json, ''), COALESCE(dt.rows_json, ''),
			dt.markdown_text, COALESCE(dt.context_heading, ''),
			dt.is_wage_table, f.filename, f.path
		FROM document_tables dt JOIN files f ON dt.file_id = f.id
		WHERE dt.is_wage_table = 1`
	args := []any{}
	if fileID > 0 {
		query += " AND dt.file_id = ?"
		args = append(args, fileID)
	}
	query += " ORDER BY dt.page_number LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		var headersJSON, rowsJSON string
		if err := rows.Scan(&t.ID, &t.FileID, &t.PageNumber, &t.TableIndex,
			&headersJSON, &rowsJSON, &t.MarkdownText, &t.ContextHeading,
			&t.IsWageTable, &t.Filename, &t.Path); err != nil {
			return nil, err
		}
		if headersJSON != "" {
			_ = json.Unmarshal([]byte(headersJSON), &t.Headers)
		}
		if rowsJSON != "" {
			_ = json.Unmarshal([]byte(rowsJSON), &t.Rows)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// --- Substring fallback search ---

// LikeMatch is a row from the SQL LIKE fallback search.
type LikeMatch struct {
	FileID     int64
	Path       string
	Filename   string
	PageNumber int
	Text       string
}

// LikePages returns pages of indexed files whose text contains any of the
// given keywords as a substring. Callers post-filter with word boundaries.
func (s *Store) LikePages(ctx context.Context, keywords []string, fileID int64, limit int) ([]LikeMatch, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	var conds []string
	var args []any
	if fileID > 0 {
		args = append(args, fileID)
	}
	for _, kw := range keywords {
		conds = append(conds, "p.text LIKE ?")
		args = append(args, "%"+kw+"%")
	}
	args = append(args, limit)

	query := `
		SELECT f.id, f.path, f.filename, p.page_number, p.text
		FROM pdf_pages p JOIN files f ON p.file_id = f.id
		WHERE f.status = 'indexed'`
	if fileID > 0 {
		query += " AND f.id = ?"
	}
	query += " AND (" + strings.Join(conds, " OR ") + `)
		ORDER BY f.filename, p.page_number
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []LikeMatch
	for rows.Next() {
		var m LikeMatch
		if err := rows.Scan(&m.FileID, &m.Path, &m.Filename, &m.PageNumber, &m.Text); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// MoneyPages is the wage-table fallback: pages of indexed files mentioning
// a dollar sign next to rate-schedule vocabulary.
func (s *Store) MoneyPages(ctx context.Context, fileID int64, limit int) ([]LikeMatch, error) {
	query := `
		SELECT f.id, f.path, f.filename, p.page_number, p.text
		FROM pdf_pages p JOIN files f ON p.file_id = f.id
		WHERE f.status = 'indexed' AND p.text LIKE '%$%'
			AND (p.text LIKE '%hour%' OR p.text LIKE '%annual%'
				OR p.text LIKE '%biweekly%' OR p.text LIKE '%Appendix%'
				OR p.text LIKE '%Schedule%')`
	args := []any{}
	if fileID > 0 {
		query += " AND f.id = ?"
		args = append(args, fileID)
	}
	query += " ORDER BY f.filename, p.page_number LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []LikeMatch
	for rows.Next() {
		var m LikeMatch
		if err := rows.Scan(&m.FileID, &m.Path, &m.Filename, &m.PageNumber, &m.Text); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
