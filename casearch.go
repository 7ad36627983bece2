// Package casearch is the retrieval and question-answering core of the
// collective-agreement search system: structure-aware PDF ingestion into
// a SQLite store with FTS5 and sqlite-vec indexes, hybrid retrieval with
// weighted RRF fusion, and evidence-grounded answer synthesis with
// post-hoc verification.
package casearch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brunobiangulo/casearch/chunker"
	"github.com/brunobiangulo/casearch/extract"
	"github.com/brunobiangulo/casearch/llm"
	"github.com/brunobiangulo/casearch/qa"
	"github.com/brunobiangulo/casearch/retrieval"
	"github.com/brunobiangulo/casearch/scanner"
	"github.com/brunobiangulo/casearch/search"
	"github.com/brunobiangulo/casearch/semantic"
	"github.com/brunobiangulo/casearch/store"
	"github.com/brunobiangulo/casearch/synonyms"
)

// IndexOptions configures one file indexing run.
type IndexOptions struct {
	UseStructure    bool // produce semantic chunks (the server handlers turn it on by default)
	BuildEmbeddings bool // embed chunks into the vector collection
}

// IndexResult reports one successful file indexing.
type IndexResult struct {
	Status     string `json:"status"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
	Embeddings int    `json:"embeddings"`
}

// ReindexResult summarizes a reindex-all run.
type ReindexResult struct {
	Success int                `json:"success"`
	Failed  int                `json:"failed"`
	Errors  []ReindexFileError `json:"errors"`
}

// ReindexFileError records one per-file reindex failure.
type ReindexFileError struct {
	FileID int64  `json:"file_id"`
	Error  string `json:"error"`
}

// Engine wires the whole core together.
type Engine struct {
	cfg       Config
	store     *store.Store
	lexical   *search.Engine
	semantic  *semantic.Index
	synonyms  *synonyms.Service
	retriever *retrieval.Orchestrator
	qa        *qa.Engine
	chunker   *chunker.Chunker
}

// New creates an engine from configuration. The embedding and reranker
// backends are optional; without an embedding endpoint the semantic
// retriever contributes nothing and the lexical paths carry the load.
func New(cfg Config) (*Engine, error) {
	s, err := store.New(cfg.resolveDBPath(), cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	lexical := search.NewEngine(s)
	syn := synonyms.New(s)

	var semanticIdx *semantic.Index
	if cfg.Embedding.BaseURL != "" {
		embedder := llm.NewOpenAICompat(llm.Config{
			Model:   cfg.Embedding.Model,
			BaseURL: cfg.Embedding.BaseURL,
			APIKey:  cfg.Embedding.APIKey,
		})
		var reranker llm.Reranker
		if cfg.Reranker.BaseURL != "" {
			reranker = llm.NewReranker(llm.Config{
				Model:   cfg.Reranker.Model,
				BaseURL: cfg.Reranker.BaseURL,
				APIKey:  cfg.Reranker.APIKey,
			})
		}
		semanticIdx = semantic.New(s, embedder, reranker, cfg.Embedding.Model)
	}

	retriever := retrieval.New(s, lexical, semanticIdx, syn, retrieval.Config{
		Limit:   cfg.MaxRetrievalResults,
		RRFK:    cfg.RRFK,
		Weights: cfg.RRFWeights,
	})

	var chat llm.ChatProvider
	if cfg.AnthropicAPIKey != "" {
		chat = llm.NewAnthropic(llm.Config{
			Model:  cfg.ClaudeModel,
			APIKey: cfg.AnthropicAPIKey,
		})
	}

	qaEngine := qa.New(s, lexical, retriever, syn, chat, qa.Config{
		Model:               cfg.ClaudeModel,
		MaxContextBudget:    cfg.MaxContextBudget,
		MaxContextPerSource: cfg.MaxContextPerSource,
		MaxRetrievalResults: cfg.MaxRetrievalResults,
	})

	return &Engine{
		cfg:       cfg,
		store:     s,
		lexical:   lexical,
		semantic:  semanticIdx,
		synonyms:  syn,
		retriever: retriever,
		qa:        qaEngine,
		chunker: chunker.New(chunker.Config{
			MaxSize:     cfg.ChunkMaxSize,
			MinSize:     cfg.ChunkMinSize,
			OverlapSize: cfg.ChunkOverlapSize,
		}),
	}, nil
}

// Close shuts the engine down.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the underlying store for diagnostics and tests.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Synonyms exposes the synonym service for admin operations.
func (e *Engine) Synonyms() *synonyms.Service {
	return e.synonyms
}

// Scan walks the agreements directory, registering new and changed PDFs.
// It never raises; per-file failures are reported in the result.
func (e *Engine) Scan(ctx context.Context) scanner.Result {
	return scanner.Scan(ctx, e.store, e.cfg.AgreementsDir)
}

// IndexFile extracts, chunks, persists, and optionally embeds one file.
// Extraction failures leave the file in status error with the message;
// the store never holds a half-indexed file.
func (e *Engine) IndexFile(ctx context.Context, fileID int64, opts IndexOptions) (*IndexResult, error) {
	f, err := e.store.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrFileNotFound, fileID)
		}
		return nil, err
	}

	if err := e.store.SetFileStatus(ctx, fileID, "indexing", ""); err != nil {
		return nil, err
	}

	result, err := e.indexFileInner(ctx, f, opts)
	if err != nil {
		if serr := e.store.SetFileStatus(ctx, fileID, "error", err.Error()); serr != nil {
			slog.Error("indexer: recording error status failed", "file_id", fileID, "error", serr)
		}
		return nil, err
	}
	return result, nil
}

func (e *Engine) indexFileInner(ctx context.Context, f *store.File, opts IndexOptions) (*IndexResult, error) {
	start := time.Now()
	slog.Info("indexer: extracting", "file", f.Filename, "file_id", f.ID)

	pages, err := extract.ExtractPages(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	tables := extract.ExtractTables(f.Path, pages)

	storePages := make([]store.Page, len(pages))
	for i, p := range pages {
		storePages[i] = store.Page{
			PageNumber: p.PageNumber,
			Text:       p.Text,
			RawText:    p.RawText,
		}
	}

	var storeChunks []store.Chunk
	if opts.UseStructure {
		structured := extract.StructurePages(pages)
		for _, c := range e.chunker.Chunk(structured, tables) {
			storeChunks = append(storeChunks, store.Chunk{
				ChunkNumber:   c.ChunkNumber,
				Text:          c.Text,
				Heading:       c.Heading,
				ParentHeading: c.ParentHeading,
				SectionNumber: c.SectionNumber,
				PageStart:     c.PageStart,
				PageEnd:       c.PageEnd,
				Headings:      c.Headings,
				ChunkType:     c.ChunkType,
			})
		}
	}

	storeTables := make([]store.Table, len(tables))
	for i, t := range tables {
		storeTables[i] = store.Table{
			PageNumber:     t.PageNumber,
			TableIndex:     t.TableIndex,
			Headers:        t.Headers,
			Rows:           t.Rows,
			MarkdownText:   t.MarkdownText,
			ContextHeading: t.ContextHeading,
			IsWageTable:    t.IsWageTable,
		}
	}

	// Pages, chunks, tables, and both FTS indexes replaced in one
	// transaction; readers never observe a half-indexed file.
	_, chunkIDs, err := e.store.ReplaceDocumentContent(ctx, f.ID, storePages, storeChunks, storeTables)
	if err != nil {
		return nil, fmt.Errorf("storing content: %w", err)
	}

	embeddings := 0
	if opts.BuildEmbeddings && e.semantic != nil && len(chunkIDs) > 0 {
		if err := e.semantic.DeleteFileEmbeddings(ctx, f.ID); err != nil {
			slog.Warn("indexer: clearing embeddings failed", "file_id", f.ID, "error", err)
		}
		chunks, err := e.store.GetFileChunks(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("loading chunks for embedding: %w", err)
		}
		for _, c := range chunks {
			if err := e.semantic.AddChunkEmbedding(ctx, c); err != nil {
				slog.Warn("indexer: embedding chunk failed", "chunk_id", c.ID, "error", err)
				continue
			}
			embeddings++
		}
	}

	if err := e.store.SetFileIndexed(ctx, f.ID, len(pages)); err != nil {
		return nil, fmt.Errorf("marking indexed: %w", err)
	}

	slog.Info("indexer: file indexed",
		"file", f.Filename, "pages", len(pages), "chunks", len(storeChunks),
		"tables", len(storeTables), "embeddings", embeddings,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return &IndexResult{
		Status:     "success",
		Pages:      len(pages),
		Chunks:     len(storeChunks),
		Embeddings: embeddings,
	}, nil
}

// ReindexAll indexes every registered file. A per-file failure increments
// the error counter but does not abort the batch.
func (e *Engine) ReindexAll(ctx context.Context, opts IndexOptions) (*ReindexResult, error) {
	files, err := e.store.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	result := &ReindexResult{Errors: []ReindexFileError{}}
	for _, f := range files {
		if _, err := e.IndexFile(ctx, f.ID, opts); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ReindexFileError{
				FileID: f.ID, Error: err.Error(),
			})
			continue
		}
		result.Success++
	}
	return result, nil
}

// Search runs a lexical page search with phrase/proximity reranking.
// Bad queries return empty results, never errors.
func (e *Engine) Search(ctx context.Context, query string, opts search.Options) []search.Result {
	if opts.Limit == 0 {
		opts.Limit = e.cfg.MaxRetrievalResults
	}
	results := e.lexical.SearchPages(ctx, query, opts)
	return e.lexical.RankByPhraseProximity(ctx, results, query)
}

// SearchChunks runs a lexical chunk search.
func (e *Engine) SearchChunks(ctx context.Context, query string, opts search.Options) []search.ChunkResult {
	if opts.Limit == 0 {
		opts.Limit = e.cfg.MaxRetrievalResults
	}
	return e.lexical.SearchChunks(ctx, query, opts)
}

// Answer runs the full question-answering pipeline.
func (e *Engine) Answer(ctx context.Context, question string) qa.Response {
	return e.qa.Answer(ctx, question)
}

// TogglePublic flips a file's public flag, returning the new value.
func (e *Engine) TogglePublic(ctx context.Context, fileID int64) (bool, error) {
	public, err := e.store.TogglePublicRead(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: id %d", ErrFileNotFound, fileID)
		}
		return false, err
	}
	return public, nil
}

// RebuildFTS rebuilds both FTS indexes from the entity tables.
func (e *Engine) RebuildFTS(ctx context.Context) (pagesIndexed, chunksIndexed int, err error) {
	return e.store.RebuildFTS(ctx)
}

// RebuildVectorIndex re-embeds all chunks of indexed files, reporting
// progress through the callback.
func (e *Engine) RebuildVectorIndex(ctx context.Context, progress semantic.ProgressFunc) semantic.RebuildResult {
	if e.semantic == nil {
		return semantic.RebuildResult{Message: "no embedding backend configured"}
	}
	return e.semantic.Rebuild(ctx, true, progress)
}

// Watch rescans the agreements directory whenever its PDFs change.
// Blocks until the context is cancelled.
func (e *Engine) Watch(ctx context.Context) error {
	return scanner.Watch(ctx, e.cfg.AgreementsDir, func() {
		result := e.Scan(ctx)
		slog.Info("scanner: auto-rescan",
			"new", result.New, "changed", result.Changed, "missing", result.Missing)
	})
}
