package store

import (
	"context"
	"fmt"
)

// Stats holds counts of key database objects.
type Stats struct {
	TotalFiles   int `json:"total_files"`
	IndexedFiles int `json:"indexed_files"`
	ErrorFiles   int `json:"error_files"`
	TotalPages   int `json:"total_pages"`
	TotalChunks  int `json:"total_chunks"`
	TotalTables  int `json:"total_tables"`
	Embeddings   int `json:"embeddings"`
}

// Stats returns counts of files, pages, chunks, tables, and embeddings.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM files", &stats.TotalFiles},
		{"SELECT COUNT(*) FROM files WHERE status = 'indexed'", &stats.IndexedFiles},
		{"SELECT COUNT(*) FROM files WHERE status = 'error'", &stats.ErrorFiles},
		{"SELECT COUNT(*) FROM pdf_pages", &stats.TotalPages},
		{"SELECT COUNT(*) FROM document_chunks", &stats.TotalChunks},
		{"SELECT COUNT(*) FROM document_tables", &stats.TotalTables},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	emb, err := s.CountEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	stats.Embeddings = emb
	return stats, nil
}
