package store

import (
	"context"
)

// PageHit is a raw FTS5 hit over page text. Rank is the raw BM25 rank
// (negative, smaller is better).
type PageHit struct {
	FileID     int64
	Path       string
	Filename   string
	PageNumber int
	Snippet    string
	Rank       float64
}

// ChunkHit is a raw FTS5 hit over chunk text, carrying heading metadata.
type ChunkHit struct {
	FileID        int64
	Path          string
	Filename      string
	ChunkID       int64
	Heading       string
	ParentHeading string
	SectionNumber string
	PageStart     int
	PageEnd       int
	Snippet       string
	Rank          float64
}

// FTSSearchPages runs an FTS5 MATCH over page text and returns hits in
// rank order with <mark> snippet highlighting. ftsQuery must already be a
// valid FTS5 expression (see the search package).
func (s *Store) FTSSearchPages(ctx context.Context, ftsQuery string, limit int, fileID int64) ([]PageHit, error) {
	query := `
		SELECT f.id, f.path, f.filename, page_fts.page_number,
			snippet(page_fts, 3, '<mark>', '</mark>', '...', 64), rank
		FROM page_fts
		JOIN pdf_pages p ON page_fts.page_id = p.id
		JOIN files f ON p.file_id = f.id
		WHERE page_fts MATCH ?`
	args := []any{ftsQuery}
	if fileID > 0 {
		query += " AND f.id = ?"
		args = append(args, fileID)
	}
	query += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []PageHit
	for rows.Next() {
		var h PageHit
		if err := rows.Scan(&h.FileID, &h.Path, &h.Filename, &h.PageNumber,
			&h.Snippet, &h.Rank); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// FTSSearchChunks runs an FTS5 MATCH over chunk text and returns hits with
// heading metadata in rank order.
func (s *Store) FTSSearchChunks(ctx context.Context, ftsQuery string, limit int, fileID int64) ([]ChunkHit, error) {
	query := `
		SELECT f.id, f.path, f.filename, c.id,
			COALESCE(c.heading, ''), COALESCE(c.parent_heading, ''),
			COALESCE(c.section_number, ''), c.page_start, c.page_end,
			snippet(chunk_fts, 3, '<mark>', '</mark>', '...', 64), rank
		FROM chunk_fts
		JOIN document_chunks c ON chunk_fts.chunk_id = c.id
		JOIN files f ON c.file_id = f.id
		WHERE chunk_fts MATCH ?`
	args := []any{ftsQuery}
	if fileID > 0 {
		query += " AND f.id = ?"
		args = append(args, fileID)
	}
	query += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []ChunkHit
	for rows.Next() {
		var h ChunkHit
		if err := rows.Scan(&h.FileID, &h.Path, &h.Filename, &h.ChunkID,
			&h.Heading, &h.ParentHeading, &h.SectionNumber,
			&h.PageStart, &h.PageEnd, &h.Snippet, &h.Rank); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// FTSSyncEntry describes one file whose FTS row count disagrees with its
// page row count.
type FTSSyncEntry struct {
	FileID   int64  `json:"file_id"`
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	FTSPages int    `json:"fts_pages"`
}

// FTSSyncStatus compares per-file page counts between pdf_pages and page_fts.
func (s *Store) FTSSyncStatus(ctx context.Context) ([]FTSSyncEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.filename, COUNT(p.id),
			(SELECT COUNT(*) FROM page_fts WHERE page_fts.file_id = f.id)
		FROM files f
		LEFT JOIN pdf_pages p ON f.id = p.file_id
		WHERE f.status = 'indexed'
		GROUP BY f.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outOfSync []FTSSyncEntry
	for rows.Next() {
		var e FTSSyncEntry
		if err := rows.Scan(&e.FileID, &e.Filename, &e.Pages, &e.FTSPages); err != nil {
			return nil, err
		}
		if e.Pages != e.FTSPages {
			outOfSync = append(outOfSync, e)
		}
	}
	return outOfSync, rows.Err()
}

// RebuildFTS clears both FTS indexes and repopulates them from the entity
// tables for indexed files. Returns the number of page and chunk rows indexed.
func (s *Store) RebuildFTS(ctx context.Context) (pagesIndexed, chunksIndexed int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM page_fts"); err != nil {
		return 0, 0, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunk_fts"); err != nil {
		return 0, 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO page_fts (file_id, page_id, page_number, text)
		SELECT p.file_id, p.id, p.page_number, p.text
		FROM pdf_pages p JOIN files f ON p.file_id = f.id
		WHERE f.status = 'indexed'`)
	if err != nil {
		return 0, 0, err
	}
	n, _ := res.RowsAffected()
	pagesIndexed = int(n)

	res, err = tx.ExecContext(ctx, `
		INSERT INTO chunk_fts (file_id, chunk_id, heading, text)
		SELECT c.file_id, c.id, COALESCE(c.heading, ''), c.text
		FROM document_chunks c JOIN files f ON c.file_id = f.id
		WHERE f.status = 'indexed'`)
	if err != nil {
		return 0, 0, err
	}
	n, _ = res.RowsAffected()
	chunksIndexed = int(n)

	return pagesIndexed, chunksIndexed, tx.Commit()
}
