package store

import (
	"context"
	"encoding/binary"
	"math"
)

// VecHit is a raw KNN hit from one of the sqlite-vec collections.
// Distance is cosine distance (smaller is better).
type VecHit struct {
	FileID        int64
	ChunkID       int64 // 0 for page hits
	PageID        int64 // 0 for chunk hits
	PageStart     int
	PageEnd       int
	Heading       string
	ParentHeading string
	SectionNumber string
	Filename      string
	Path          string
	Text          string
	Distance      float64
	IsPage        bool
}

// InsertChunkEmbedding stores (or replaces) the vector for a chunk.
func (s *Store) InsertChunkEmbedding(ctx context.Context, chunkID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)",
		chunkID, serializeFloat32(embedding))
	return err
}

// InsertPageEmbedding stores (or replaces) the vector for a page.
func (s *Store) InsertPageEmbedding(ctx context.Context, pageID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_pages (page_id, embedding) VALUES (?, ?)",
		pageID, serializeFloat32(embedding))
	return err
}

// DeleteFileEmbeddings removes every chunk and page vector belonging to a file.
func (s *Store) DeleteFileEmbeddings(ctx context.Context, fileID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM vec_chunks WHERE chunk_id IN (
			SELECT id FROM document_chunks WHERE file_id = ?)`, fileID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM vec_pages WHERE page_id IN (
			SELECT id FROM pdf_pages WHERE file_id = ?)`, fileID)
	return err
}

// ClearEmbeddings empties both vector collections.
func (s *Store) ClearEmbeddings(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM vec_chunks"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM vec_pages")
	return err
}

// CountEmbeddings returns the total number of stored vectors.
func (s *Store) CountEmbeddings(ctx context.Context) (int, error) {
	var chunks, pages int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vec_chunks").Scan(&chunks); err != nil {
		return 0, err
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vec_pages").Scan(&pages); err != nil {
		return 0, err
	}
	return chunks + pages, nil
}

// VectorSearchChunks performs a KNN search over the chunk collection.
// A fileID > 0 restricts results to that file; the KNN over-fetches so the
// post-filter still yields up to k hits.
func (s *Store) VectorSearchChunks(ctx context.Context, queryEmbedding []float32, k int, fileID int64) ([]VecHit, error) {
	knnK := k
	if fileID > 0 {
		knnK = k * 4
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.chunk_id, v.distance, c.file_id, c.page_start, c.page_end,
			COALESCE(c.heading, ''), COALESCE(c.parent_heading, ''),
			COALESCE(c.section_number, ''), substr(c.text, 1, 1000),
			f.filename, f.path
		FROM vec_chunks v
		JOIN document_chunks c ON c.id = v.chunk_id
		JOIN files f ON f.id = c.file_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`, serializeFloat32(queryEmbedding), knnK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []VecHit
	for rows.Next() {
		var h VecHit
		if err := rows.Scan(&h.ChunkID, &h.Distance, &h.FileID, &h.PageStart,
			&h.PageEnd, &h.Heading, &h.ParentHeading, &h.SectionNumber,
			&h.Text, &h.Filename, &h.Path); err != nil {
			return nil, err
		}
		if fileID > 0 && h.FileID != fileID {
			continue
		}
		hits = append(hits, h)
		if len(hits) >= k {
			break
		}
	}
	return hits, rows.Err()
}

// VectorSearchPages performs a KNN search over the page collection.
func (s *Store) VectorSearchPages(ctx context.Context, queryEmbedding []float32, k int, fileID int64) ([]VecHit, error) {
	knnK := k
	if fileID > 0 {
		knnK = k * 4
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.page_id, v.distance, p.file_id, p.page_number,
			substr(p.text, 1, 1000), f.filename, f.path
		FROM vec_pages v
		JOIN pdf_pages p ON p.id = v.page_id
		JOIN files f ON f.id = p.file_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`, serializeFloat32(queryEmbedding), knnK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []VecHit
	for rows.Next() {
		var h VecHit
		var pageNumber int
		if err := rows.Scan(&h.PageID, &h.Distance, &h.FileID, &pageNumber,
			&h.Text, &h.Filename, &h.Path); err != nil {
			return nil, err
		}
		if fileID > 0 && h.FileID != fileID {
			continue
		}
		h.PageStart = pageNumber
		h.PageEnd = pageNumber
		h.IsPage = true
		hits = append(hits, h)
		if len(hits) >= k {
			break
		}
	}
	return hits, rows.Err()
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
