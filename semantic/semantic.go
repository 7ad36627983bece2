// Package semantic maintains the dense-vector side of the index: chunk and
// page embeddings in the store's sqlite-vec collections, bi-encoder search,
// and optional two-stage cross-encoder reranking.
package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/brunobiangulo/casearch/llm"
	"github.com/brunobiangulo/casearch/store"
)

// maxEmbedChars bounds the text sent to the embedding model.
const maxEmbedChars = 2000

// rebuildBatchSize is the embedding batch size during full rebuilds.
const rebuildBatchSize = 32

// Result is a semantic search hit. Similarity is max(0, 1-cosine distance),
// replaced by the raw cross-encoder score after reranking.
type Result struct {
	FileID     int64   `json:"file_id"`
	ChunkID    int64   `json:"chunk_id,omitempty"` // 0 for page hits
	PageNumber int     `json:"page_number"`
	PageEnd    int     `json:"page_end"`
	Filename   string  `json:"filename"`
	FilePath   string  `json:"file_path"`
	Text       string  `json:"text"`
	Heading    string  `json:"heading,omitempty"`
	Parent     string  `json:"parent_heading,omitempty"`
	Section    string  `json:"section_number,omitempty"`
	Similarity float64 `json:"similarity"`
	IsPage     bool    `json:"is_page,omitempty"`
}

// Options configures a semantic search.
type Options struct {
	Limit      int
	FileID     int64
	ChunksOnly bool
}

// RebuildResult reports the outcome of a full index rebuild.
type RebuildResult struct {
	Success      bool   `json:"success"`
	ItemsIndexed int    `json:"items_indexed"`
	Message      string `json:"message"`
}

// ProgressFunc receives rebuild progress: (current, total, message).
type ProgressFunc func(current, total int, message string)

// Index owns the semantic retrieval path. The embedder and reranker are
// shared immutable handles, safe for concurrent use.
type Index struct {
	store    *store.Store
	embedder llm.EmbeddingProvider
	reranker llm.Reranker
	model    string
}

// New creates a semantic index. reranker may be nil.
func New(s *store.Store, embedder llm.EmbeddingProvider, reranker llm.Reranker, model string) *Index {
	return &Index{store: s, embedder: embedder, reranker: reranker, model: model}
}

// embed runs one batch through the embedding model, applying asymmetric
// query/passage prefixes for models that require them (BGE family).
func (x *Index) embed(ctx context.Context, texts []string, isQuery bool) ([][]float32, error) {
	prefixed := texts
	if strings.Contains(strings.ToLower(x.model), "bge") {
		prefix := "passage: "
		if isQuery {
			prefix = "query: "
		}
		prefixed = make([]string, len(texts))
		for i, t := range texts {
			prefixed[i] = prefix + t
		}
	}
	return x.embedder.Embed(ctx, prefixed)
}

// truncateForEmbed cuts text at the last space before maxEmbedChars.
func truncateForEmbed(text string) string {
	if len(text) <= maxEmbedChars {
		return text
	}
	cut := strings.LastIndex(text[:maxEmbedChars], " ")
	if cut <= 0 {
		cut = maxEmbedChars
	}
	return text[:cut]
}

// AddChunkEmbedding embeds one chunk and upserts its vector.
func (x *Index) AddChunkEmbedding(ctx context.Context, c store.Chunk) error {
	text := c.Text
	if c.Heading != "" {
		text = c.Heading + ": " + text
	}
	embeddings, err := x.embed(ctx, []string{truncateForEmbed(text)}, false)
	if err != nil {
		return err
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return fmt.Errorf("empty embedding returned")
	}
	return x.store.InsertChunkEmbedding(ctx, c.ID, embeddings[0])
}

// DeleteFileEmbeddings removes every vector belonging to a file.
func (x *Index) DeleteFileEmbeddings(ctx context.Context, fileID int64) error {
	return x.store.DeleteFileEmbeddings(ctx, fileID)
}

// Search runs a single-stage bi-encoder search.
func (x *Index) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if opts.Limit == 0 {
		opts.Limit = 10
	}

	embeddings, err := x.embed(ctx, []string{query}, true)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	queryVec := embeddings[0]

	chunkHits, err := x.store.VectorSearchChunks(ctx, queryVec, opts.Limit, opts.FileID)
	if err != nil {
		return nil, err
	}

	var pageHits []store.VecHit
	if !opts.ChunksOnly {
		pageHits, err = x.store.VectorSearchPages(ctx, queryVec, opts.Limit, opts.FileID)
		if err != nil {
			slog.Warn("semantic: page vector search failed", "error", err)
		}
	}

	results := make([]Result, 0, len(chunkHits)+len(pageHits))
	for _, h := range append(chunkHits, pageHits...) {
		results = append(results, vecHitToResult(h))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// SearchWithRerank runs two-stage retrieval: initialLimit bi-encoder
// candidates re-scored by the cross-encoder. Falls back to bi-encoder
// order when the reranker is unavailable.
func (x *Index) SearchWithRerank(ctx context.Context, query string, limit int, fileID int64, initialLimit int) ([]Result, error) {
	if limit == 0 {
		limit = 10
	}
	if initialLimit == 0 {
		initialLimit = 50
	}

	candidates, err := x.Search(ctx, query, Options{Limit: initialLimit, FileID: fileID})
	if err != nil {
		return nil, err
	}
	if x.reranker == nil || len(candidates) <= limit {
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		return candidates, nil
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Text
	}

	scores, err := x.reranker.Rerank(ctx, query, docs)
	if err != nil {
		slog.Warn("semantic: rerank failed, falling back to bi-encoder order", "error", err)
		return candidates[:limit], nil
	}

	for i := range candidates {
		candidates[i].Similarity = scores[i]
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	return candidates[:limit], nil
}

// Rebuild clears the collections and re-embeds all chunks (or pages) of
// indexed files in batches, reporting progress through the callback.
func (x *Index) Rebuild(ctx context.Context, useChunks bool, progress ProgressFunc) RebuildResult {
	if err := x.store.ClearEmbeddings(ctx); err != nil {
		return RebuildResult{Message: fmt.Sprintf("clearing collections: %v", err)}
	}

	type item struct {
		id   int64
		text string
	}
	var items []item

	if useChunks {
		chunks, err := x.store.IndexedChunks(ctx)
		if err != nil {
			return RebuildResult{Message: fmt.Sprintf("loading chunks: %v", err)}
		}
		for _, c := range chunks {
			text := c.Text
			if c.Heading != "" {
				text = c.Heading + ": " + text
			}
			items = append(items, item{id: c.ID, text: truncateForEmbed(text)})
		}
	} else {
		pages, err := x.store.IndexedPages(ctx)
		if err != nil {
			return RebuildResult{Message: fmt.Sprintf("loading pages: %v", err)}
		}
		for _, p := range pages {
			items = append(items, item{id: p.ID, text: truncateForEmbed(p.Text)})
		}
	}

	if len(items) == 0 {
		return RebuildResult{Message: "No content found to index"}
	}

	total := len(items)
	if progress != nil {
		progress(0, total, "Starting semantic indexing...")
	}

	indexed := 0
	for start := 0; start < total; start += rebuildBatchSize {
		end := start + rebuildBatchSize
		if end > total {
			end = total
		}
		batch := items[start:end]

		texts := make([]string, len(batch))
		for i, it := range batch {
			texts[i] = it.text
		}

		embeddings, err := x.embed(ctx, texts, false)
		if err != nil {
			return RebuildResult{
				ItemsIndexed: indexed,
				Message:      fmt.Sprintf("embedding batch at %d: %v", start, err),
			}
		}

		for i, emb := range embeddings {
			if len(emb) == 0 {
				continue
			}
			var serr error
			if useChunks {
				serr = x.store.InsertChunkEmbedding(ctx, batch[i].id, emb)
			} else {
				serr = x.store.InsertPageEmbedding(ctx, batch[i].id, emb)
			}
			if serr != nil {
				slog.Warn("semantic: storing embedding failed", "id", batch[i].id, "error", serr)
				continue
			}
			indexed++
		}

		if progress != nil {
			progress(indexed, total, fmt.Sprintf("Indexed %d/%d items...", indexed, total))
		}
	}

	return RebuildResult{
		Success:      true,
		ItemsIndexed: indexed,
		Message:      fmt.Sprintf("Successfully indexed %d items", indexed),
	}
}

// Count returns the number of stored vectors.
func (x *Index) Count(ctx context.Context) (int, error) {
	return x.store.CountEmbeddings(ctx)
}

func vecHitToResult(h store.VecHit) Result {
	similarity := 1.0 - h.Distance
	if similarity < 0 {
		similarity = 0
	}
	return Result{
		FileID:     h.FileID,
		ChunkID:    h.ChunkID,
		PageNumber: h.PageStart,
		PageEnd:    h.PageEnd,
		Filename:   h.Filename,
		FilePath:   h.Path,
		Text:       h.Text,
		Heading:    h.Heading,
		Parent:     h.ParentHeading,
		Section:    h.SectionNumber,
		Similarity: similarity,
		IsPage:     h.IsPage,
	}
}
