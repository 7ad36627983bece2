//go:build cgo

package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath, 4) // dim=4 for test vectors
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedFile(t *testing.T, s *Store, path string) int64 {
	t.Helper()
	id, err := s.InsertFile(context.Background(), File{
		Path:     path,
		Filename: filepath.Base(path),
		SHA256:   "abc123",
		Mtime:    1700000000,
		Size:     1024,
	})
	if err != nil {
		t.Fatalf("inserting file: %v", err)
	}
	return id
}

func seedIndexedFile(t *testing.T, s *Store, path string, pages []Page, chunks []Chunk, tables []Table) int64 {
	t.Helper()
	ctx := context.Background()
	id := seedFile(t, s, path)
	if _, _, err := s.ReplaceDocumentContent(ctx, id, pages, chunks, tables); err != nil {
		t.Fatalf("replacing content: %v", err)
	}
	if err := s.SetFileIndexed(ctx, id, len(pages)); err != nil {
		t.Fatalf("marking indexed: %v", err)
	}
	return id
}

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.EmbeddingDim() != 4 {
		t.Fatalf("expected embedding dim 4, got %d", s.EmbeddingDim())
	}
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath, 4)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	v1, err := s.CurrentSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("reading version: %v", err)
	}
	s.Close()

	// Reopening must not reapply or fail.
	s, err = New(dbPath, 4)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	v2, err := s.CurrentSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("reading version again: %v", err)
	}
	if v1 != v2 || v2 != SchemaVersion {
		t.Errorf("versions: first %d, second %d, want %d", v1, v2, SchemaVersion)
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func TestFileLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := seedFile(t, s, "/docs/agreement.pdf")

	f, err := s.GetFile(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.Status != "pending" {
		t.Errorf("status: got %q, want pending", f.Status)
	}

	if err := s.SetFileStatus(ctx, id, "error", "boom"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	f, _ = s.GetFile(ctx, id)
	if f.Status != "error" || f.LastError != "boom" {
		t.Errorf("after error: status %q lastError %q", f.Status, f.LastError)
	}

	if err := s.SetFileIndexed(ctx, id, 12); err != nil {
		t.Fatalf("set indexed: %v", err)
	}
	f, _ = s.GetFile(ctx, id)
	if f.Status != "indexed" || f.Pages != 12 || f.LastError != "" {
		t.Errorf("after indexed: %+v", f)
	}
	if f.ExtractedAt == "" {
		t.Error("expected extracted_at set")
	}
}

func TestGetFileNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetFile(context.Background(), 999); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestTogglePublicRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedFile(t, s, "/docs/a.pdf")

	public, err := s.TogglePublicRead(ctx, id)
	if err != nil || !public {
		t.Fatalf("first toggle: %v %v", public, err)
	}
	public, err = s.TogglePublicRead(ctx, id)
	if err != nil || public {
		t.Fatalf("second toggle: %v %v", public, err)
	}
	if _, err := s.TogglePublicRead(ctx, 999); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// ---------------------------------------------------------------------------
// Content replacement + FTS
// ---------------------------------------------------------------------------

func samplePages() []Page {
	return []Page{
		{PageNumber: 1, Text: "Spruce Grove Sick Time: Employees are entitled to 5 days sick leave per year.", RawText: "raw one"},
		{PageNumber: 2, Text: "ARTICLE 7 OVERTIME\nOvertime is paid at time and one-half.", RawText: "raw two"},
	}
}

func sampleChunks() []Chunk {
	return []Chunk{
		{ChunkNumber: 1, Text: "Employees are entitled to 5 days sick leave per year.", Heading: "Article 5 — Sick Time", SectionNumber: "5", PageStart: 1, PageEnd: 1, ChunkType: "text"},
		{ChunkNumber: 2, Text: "Overtime is paid at time and one-half.", Heading: "ARTICLE 7 OVERTIME", ParentHeading: "Article 5 — Sick Time", SectionNumber: "7", PageStart: 2, PageEnd: 2, ChunkType: "text"},
	}
}

func TestReplaceDocumentContentAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedIndexedFile(t, s, "/docs/spruce.pdf", samplePages(), sampleChunks(), nil)

	hits, err := s.FTSSearchPages(ctx, "sick*", 10, 0)
	if err != nil {
		t.Fatalf("page fts: %v", err)
	}
	if len(hits) != 1 || hits[0].FileID != id || hits[0].PageNumber != 1 {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].Rank >= 0 {
		t.Errorf("BM25 rank should be negative, got %f", hits[0].Rank)
	}

	chunkHits, err := s.FTSSearchChunks(ctx, "overtime*", 10, 0)
	if err != nil {
		t.Fatalf("chunk fts: %v", err)
	}
	if len(chunkHits) != 1 {
		t.Fatalf("expected 1 chunk hit, got %d", len(chunkHits))
	}
	if chunkHits[0].Heading != "ARTICLE 7 OVERTIME" || chunkHits[0].ParentHeading != "Article 5 — Sick Time" {
		t.Errorf("chunk metadata: %+v", chunkHits[0])
	}
}

func TestReplaceDocumentContentIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedIndexedFile(t, s, "/docs/a.pdf", samplePages(), sampleChunks(), nil)

	// Re-index: same content again must not duplicate rows.
	if _, _, err := s.ReplaceDocumentContent(ctx, id, samplePages(), sampleChunks(), nil); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	n, err := s.CountFilePages(ctx, id)
	if err != nil || n != 2 {
		t.Fatalf("page count: %d %v", n, err)
	}

	chunks, err := s.GetFileChunks(ctx, id)
	if err != nil || len(chunks) != 2 {
		t.Fatalf("chunk count: %d %v", len(chunks), err)
	}

	hits, err := s.FTSSearchPages(ctx, "sick*", 10, 0)
	if err != nil || len(hits) != 1 {
		t.Fatalf("fts after reindex: %d hits, %v", len(hits), err)
	}
}

func TestDeleteFileCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedIndexedFile(t, s, "/docs/a.pdf", samplePages(), sampleChunks(), []Table{
		{PageNumber: 1, Headers: []string{"A"}, Rows: [][]string{{"1"}}, MarkdownText: "| A |", IsWageTable: true},
	})

	chunks, _ := s.GetFileChunks(ctx, id)
	if err := s.InsertChunkEmbedding(ctx, chunks[0].ID, []float32{0.1, 0.2, 0.3, 0.4}); err != nil {
		t.Fatalf("insert embedding: %v", err)
	}

	if err := s.DeleteFile(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if n, _ := s.CountFilePages(ctx, id); n != 0 {
		t.Errorf("pages left: %d", n)
	}
	if chunks, _ := s.GetFileChunks(ctx, id); len(chunks) != 0 {
		t.Errorf("chunks left: %d", len(chunks))
	}
	if tables, _ := s.WageTables(ctx, id, 10); len(tables) != 0 {
		t.Errorf("tables left: %d", len(tables))
	}
	if hits, _ := s.FTSSearchPages(ctx, "sick*", 10, 0); len(hits) != 0 {
		t.Errorf("fts rows left: %d", len(hits))
	}
	if n, _ := s.CountEmbeddings(ctx); n != 0 {
		t.Errorf("embeddings left: %d", n)
	}
}

func TestRebuildFTS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedIndexedFile(t, s, "/docs/a.pdf", samplePages(), sampleChunks(), nil)

	before, err := s.FTSSearchPages(ctx, "overtime*", 10, 0)
	if err != nil {
		t.Fatalf("search before: %v", err)
	}

	pages, chunks, err := s.RebuildFTS(ctx)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if pages != 2 || chunks != 2 {
		t.Errorf("rebuild counts: pages %d chunks %d", pages, chunks)
	}

	after, err := s.FTSSearchPages(ctx, "overtime*", 10, 0)
	if err != nil {
		t.Fatalf("search after: %v", err)
	}
	if len(before) != len(after) {
		t.Errorf("result sets differ: %d before, %d after", len(before), len(after))
	}

	outOfSync, err := s.FTSSyncStatus(ctx)
	if err != nil {
		t.Fatalf("sync status: %v", err)
	}
	if len(outOfSync) != 0 {
		t.Errorf("expected in sync, got %+v", outOfSync)
	}
}

// ---------------------------------------------------------------------------
// Vectors
// ---------------------------------------------------------------------------

func TestVectorSearchChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedIndexedFile(t, s, "/docs/a.pdf", samplePages(), sampleChunks(), nil)

	chunks, _ := s.GetFileChunks(ctx, id)
	if err := s.InsertChunkEmbedding(ctx, chunks[0].ID, []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertChunkEmbedding(ctx, chunks[1].ID, []float32{0, 1, 0, 0}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	hits, err := s.VectorSearchChunks(ctx, []float32{1, 0, 0, 0}, 2, 0)
	if err != nil {
		t.Fatalf("knn: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != chunks[0].ID {
		t.Errorf("nearest: got chunk %d, want %d", hits[0].ChunkID, chunks[0].ID)
	}
	if hits[0].Distance >= hits[1].Distance {
		t.Errorf("distances not ordered: %f %f", hits[0].Distance, hits[1].Distance)
	}
	if hits[0].Heading == "" {
		t.Error("expected heading metadata on vec hit")
	}
}

func TestDeleteFileEmbeddings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedIndexedFile(t, s, "/docs/a.pdf", samplePages(), sampleChunks(), nil)

	chunks, _ := s.GetFileChunks(ctx, id)
	_ = s.InsertChunkEmbedding(ctx, chunks[0].ID, []float32{1, 0, 0, 0})

	if err := s.DeleteFileEmbeddings(ctx, id); err != nil {
		t.Fatalf("delete embeddings: %v", err)
	}
	if n, _ := s.CountEmbeddings(ctx); n != 0 {
		t.Errorf("embeddings left: %d", n)
	}
}

// ---------------------------------------------------------------------------
// Tables, LIKE fallbacks, synonyms
// ---------------------------------------------------------------------------

func TestWageTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedIndexedFile(t, s, "/docs/a.pdf", samplePages(), nil, []Table{
		{PageNumber: 3, TableIndex: 0, Headers: []string{"Class", "Rate"},
			Rows: [][]string{{"Labourer", "$28.50"}}, MarkdownText: "| Class | Rate |", IsWageTable: true},
		{PageNumber: 4, TableIndex: 0, Headers: []string{"Name"},
			Rows: [][]string{{"Smith"}}, MarkdownText: "| Name |", IsWageTable: false},
	})

	tables, err := s.WageTables(ctx, 0, 5)
	if err != nil {
		t.Fatalf("wage tables: %v", err)
	}
	if len(tables) != 1 || !tables[0].IsWageTable || tables[0].Headers[1] != "Rate" {
		t.Fatalf("unexpected tables: %+v", tables)
	}
}

func TestLikePages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedIndexedFile(t, s, "/docs/a.pdf", samplePages(), nil, nil)

	matches, err := s.LikePages(ctx, []string{"overtime"}, 0, 10)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if len(matches) != 1 || matches[0].FileID != id || matches[0].PageNumber != 2 {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestCustomSynonymsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveCustomSynonyms(ctx, map[string][]string{
		"sick leave": {"wellness days"},
		"overtime":   {"extra hours"},
	}, true)
	if err != nil || saved != 2 {
		t.Fatalf("save: %d %v", saved, err)
	}

	loaded, err := s.CustomSynonyms(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded["sick leave"][0] != "wellness days" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}

	// Replace mode drops previous entries.
	if _, err := s.SaveCustomSynonyms(ctx, map[string][]string{"vacation": {"time off"}}, true); err != nil {
		t.Fatalf("replace: %v", err)
	}
	loaded, _ = s.CustomSynonyms(ctx)
	if len(loaded) != 1 {
		t.Fatalf("replace failed: %+v", loaded)
	}

	deleted, err := s.DeleteCustomSynonym(ctx, "vacation")
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if deleted, _ := s.DeleteCustomSynonym(ctx, "vacation"); deleted {
		t.Fatal("second delete should report not found")
	}
}
