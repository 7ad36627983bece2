package search

import (
	"context"
	"log/slog"
	"math"

	"github.com/brunobiangulo/casearch/store"
)

// Result is a page-level search hit, the common currency fused by the
// retrieval orchestrator.
type Result struct {
	FileID     int64   `json:"file_id"`
	FilePath   string  `json:"file_path"`
	Filename   string  `json:"filename"`
	PageNumber int     `json:"page_number"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

// ChunkResult is a chunk-level hit carrying heading metadata.
type ChunkResult struct {
	FileID        int64   `json:"file_id"`
	FilePath      string  `json:"file_path"`
	Filename      string  `json:"filename"`
	ChunkID       int64   `json:"chunk_id"`
	Heading       string  `json:"heading,omitempty"`
	ParentHeading string  `json:"parent_heading,omitempty"`
	SectionNumber string  `json:"section_number,omitempty"`
	PageStart     int     `json:"page_start"`
	PageEnd       int     `json:"page_end"`
	Snippet       string  `json:"snippet"`
	Score         float64 `json:"score"`
}

// Options configures a lexical search.
type Options struct {
	Limit        int
	Mode         string // "and" (default) or "or"
	FileID       int64  // restrict to one file when > 0
	FallbackToOR bool   // retry AND-mode misses with OR
}

// Engine runs lexical searches against the store's FTS indexes.
// Bad queries return empty results, never errors.
type Engine struct {
	store *store.Store
}

// NewEngine creates a lexical search engine over the given store.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// SearchPages searches indexed page text. AND mode with no results
// retries with OR when FallbackToOR is set.
func (e *Engine) SearchPages(ctx context.Context, query string, opts Options) []Result {
	if opts.Limit == 0 {
		opts.Limit = 10
	}
	if opts.Mode == "" {
		opts.Mode = "and"
	}

	ftsQuery := BuildFTSQuery(query, opts.Mode)
	if ftsQuery == "" {
		return nil
	}

	results := e.execPages(ctx, ftsQuery, opts)
	if len(results) == 0 && opts.Mode == "and" && opts.FallbackToOR {
		if orQuery := BuildFTSQuery(query, "or"); orQuery != "" && orQuery != ftsQuery {
			results = e.execPages(ctx, orQuery, opts)
		}
	}
	return results
}

func (e *Engine) execPages(ctx context.Context, ftsQuery string, opts Options) []Result {
	hits, err := e.store.FTSSearchPages(ctx, ftsQuery, opts.Limit, opts.FileID)
	if err != nil {
		slog.Warn("search: page FTS error", "query", ftsQuery, "error", err)
		return nil
	}
	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{
			FileID:     h.FileID,
			FilePath:   h.Path,
			Filename:   h.Filename,
			PageNumber: h.PageNumber,
			Snippet:    h.Snippet,
			Score:      math.Abs(h.Rank), // BM25 ranks are negative
		}
	}
	return results
}

// SearchChunks searches chunk text, returning heading metadata with each hit.
func (e *Engine) SearchChunks(ctx context.Context, query string, opts Options) []ChunkResult {
	if opts.Limit == 0 {
		opts.Limit = 10
	}
	if opts.Mode == "" {
		opts.Mode = "and"
	}

	ftsQuery := BuildFTSQuery(query, opts.Mode)
	if ftsQuery == "" {
		return nil
	}

	results := e.execChunks(ctx, ftsQuery, opts)
	if len(results) == 0 && opts.Mode == "and" && opts.FallbackToOR {
		if orQuery := BuildFTSQuery(query, "or"); orQuery != "" && orQuery != ftsQuery {
			results = e.execChunks(ctx, orQuery, opts)
		}
	}
	return results
}

func (e *Engine) execChunks(ctx context.Context, ftsQuery string, opts Options) []ChunkResult {
	hits, err := e.store.FTSSearchChunks(ctx, ftsQuery, opts.Limit, opts.FileID)
	if err != nil {
		slog.Warn("search: chunk FTS error", "query", ftsQuery, "error", err)
		return nil
	}
	results := make([]ChunkResult, len(hits))
	for i, h := range hits {
		results[i] = ChunkResult{
			FileID:        h.FileID,
			FilePath:      h.Path,
			Filename:      h.Filename,
			ChunkID:       h.ChunkID,
			Heading:       h.Heading,
			ParentHeading: h.ParentHeading,
			SectionNumber: h.SectionNumber,
			PageStart:     h.PageStart,
			PageEnd:       h.PageEnd,
			Snippet:       h.Snippet,
			Score:         math.Abs(h.Rank),
		}
	}
	return results
}

// Store exposes the underlying store for heading probes.
func (e *Engine) Store() *store.Store {
	return e.store
}
