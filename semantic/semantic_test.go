//go:build cgo

package semantic

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunobiangulo/casearch/llm"
	"github.com/brunobiangulo/casearch/store"
)

// fakeEmbedder maps known phrases onto fixed unit vectors so nearest
// neighbours are predictable.
type fakeEmbedder struct {
	prefixes []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		f.prefixes = append(f.prefixes, text)
		switch {
		case strings.Contains(text, "sick"):
			out[i] = []float32{1, 0, 0, 0}
		case strings.Contains(text, "overtime"):
			out[i] = []float32{0, 1, 0, 0}
		default:
			out[i] = []float32{0, 0, 1, 0}
		}
	}
	return out, nil
}

// fakeReranker reverses bi-encoder order by scoring later docs higher.
type fakeReranker struct{ fail bool }

func (f *fakeReranker) Rerank(_ context.Context, _ string, docs []string) ([]float64, error) {
	if f.fail {
		return nil, fmt.Errorf("reranker down")
	}
	scores := make([]float64, len(docs))
	for i := range docs {
		scores[i] = float64(i)
	}
	return scores, nil
}

func newTestIndex(t *testing.T, reranker *fakeReranker) (*Index, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	var r llm.Reranker
	if reranker != nil {
		r = reranker
	}
	return New(s, &fakeEmbedder{}, r, "BAAI/bge-base-en-v1.5"), s
}

func seedChunks(t *testing.T, s *store.Store) []store.Chunk {
	t.Helper()
	ctx := context.Background()
	id, err := s.InsertFile(ctx, store.File{
		Path: "/docs/a.pdf", Filename: "a.pdf", SHA256: "x", Mtime: 1, Size: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	chunks := []store.Chunk{
		{ChunkNumber: 1, Text: "sick leave entitlement details", Heading: "Sick Leave", PageStart: 1, PageEnd: 1, ChunkType: "text"},
		{ChunkNumber: 2, Text: "overtime payment rules", Heading: "Overtime", PageStart: 2, PageEnd: 2, ChunkType: "text"},
	}
	if _, _, err := s.ReplaceDocumentContent(ctx, id, nil, chunks, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFileIndexed(ctx, id, 2); err != nil {
		t.Fatal(err)
	}
	stored, err := s.GetFileChunks(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	return stored
}

func TestAddAndSearch(t *testing.T) {
	idx, s := newTestIndex(t, nil)
	ctx := context.Background()

	for _, c := range seedChunks(t, s) {
		if err := idx.AddChunkEmbedding(ctx, c); err != nil {
			t.Fatalf("add embedding: %v", err)
		}
	}

	results, err := idx.Search(ctx, "sick leave question", Options{Limit: 2, ChunksOnly: true})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results: %d", len(results))
	}
	if results[0].Heading != "Sick Leave" {
		t.Errorf("nearest hit: %+v", results[0])
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("similarity not descending")
	}
	if results[0].Similarity < 0 || results[0].Similarity > 1 {
		t.Errorf("similarity out of range: %f", results[0].Similarity)
	}
}

func TestBGEPrefixes(t *testing.T) {
	embedder := &fakeEmbedder{}
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	idx := New(s, embedder, nil, "BAAI/bge-base-en-v1.5")
	ctx := context.Background()

	chunks := seedChunks(t, s)
	if err := idx.AddChunkEmbedding(ctx, chunks[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Search(ctx, "sick leave", Options{Limit: 1}); err != nil {
		t.Fatal(err)
	}

	var sawPassage, sawQuery bool
	for _, p := range embedder.prefixes {
		if strings.HasPrefix(p, "passage: ") {
			sawPassage = true
		}
		if strings.HasPrefix(p, "query: ") {
			sawQuery = true
		}
	}
	if !sawPassage || !sawQuery {
		t.Errorf("asymmetric prefixes missing: passage=%v query=%v", sawPassage, sawQuery)
	}
}

func TestSearchWithRerankDegradesGracefully(t *testing.T) {
	idx, s := newTestIndex(t, &fakeReranker{fail: true})
	ctx := context.Background()

	for _, c := range seedChunks(t, s) {
		if err := idx.AddChunkEmbedding(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	results, err := idx.SearchWithRerank(ctx, "sick leave", 1, 0, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Heading != "Sick Leave" {
		t.Errorf("fallback order wrong: %+v", results)
	}
}

func TestSearchWithRerankReorders(t *testing.T) {
	idx, s := newTestIndex(t, &fakeReranker{})
	ctx := context.Background()

	for _, c := range seedChunks(t, s) {
		if err := idx.AddChunkEmbedding(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	// The fake reranker scores the last candidate highest, inverting the
	// bi-encoder order.
	results, err := idx.SearchWithRerank(ctx, "sick leave", 1, 0, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Heading != "Overtime" {
		t.Errorf("rerank did not reorder: %+v", results)
	}
}

func TestRebuild(t *testing.T) {
	idx, s := newTestIndex(t, nil)
	ctx := context.Background()
	seedChunks(t, s)

	var progressCalls int
	result := idx.Rebuild(ctx, true, func(current, total int, message string) {
		progressCalls++
		if total != 2 {
			t.Errorf("total: %d", total)
		}
	})

	if !result.Success || result.ItemsIndexed != 2 {
		t.Fatalf("rebuild: %+v", result)
	}
	if progressCalls == 0 {
		t.Error("progress callback never invoked")
	}

	n, err := idx.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("count: %d %v", n, err)
	}
}

func TestDeleteFileEmbeddings(t *testing.T) {
	idx, s := newTestIndex(t, nil)
	ctx := context.Background()

	chunks := seedChunks(t, s)
	for _, c := range chunks {
		if err := idx.AddChunkEmbedding(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	if err := idx.DeleteFileEmbeddings(ctx, chunks[0].FileID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := idx.Count(ctx); n != 0 {
		t.Errorf("embeddings left: %d", n)
	}
}
