// Package retrieval orchestrates hybrid retrieval: parallel semantic,
// chunk-FTS, page-FTS, and synonym-expanded searches fused with weighted
// RRF, wage-table augmentation, and a staged fallback ladder when the
// parallel path comes up empty.
package retrieval

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/casearch/search"
	"github.com/brunobiangulo/casearch/semantic"
	"github.com/brunobiangulo/casearch/store"
	"github.com/brunobiangulo/casearch/synonyms"
)

// ContextHit carries the heading metadata of a chunk or semantic hit,
// preserved for context packing.
type ContextHit struct {
	FileID        int64
	ChunkID       int64 // 0 when the hit is page-level
	PageStart     int
	PageEnd       int
	Heading       string
	ParentHeading string
	SectionNumber string
	Text          string
}

// Config holds orchestrator tuning.
type Config struct {
	Limit          int
	RRFK           int
	Weights        []float64 // [semantic, chunk, page, expanded]
	PerTaskTimeout time.Duration
	GatherTimeout  time.Duration
}

// Orchestrator runs the hybrid retrieval pipeline.
type Orchestrator struct {
	store    *store.Store
	lexical  *search.Engine
	semantic *semantic.Index
	synonyms *synonyms.Service
	cfg      Config
}

// New creates an orchestrator. semanticIdx may be nil when no embedding
// backend is configured.
func New(s *store.Store, lexical *search.Engine, semanticIdx *semantic.Index, syn *synonyms.Service, cfg Config) *Orchestrator {
	if cfg.Limit == 0 {
		cfg.Limit = 10
	}
	if cfg.RRFK == 0 {
		cfg.RRFK = DefaultRRFK
	}
	if len(cfg.Weights) == 0 {
		cfg.Weights = []float64{1.5, 1.2, 1.0, 0.8}
	}
	if cfg.PerTaskTimeout == 0 {
		cfg.PerTaskTimeout = 10 * time.Second
	}
	if cfg.GatherTimeout == 0 {
		cfg.GatherTimeout = 30 * time.Second
	}
	return &Orchestrator{
		store:    s,
		lexical:  lexical,
		semantic: semanticIdx,
		synonyms: syn,
		cfg:      cfg,
	}
}

// wageQueryTerms trigger the wage-table augmentation.
var wageQueryTerms = []string{
	"wage", "salary", "pay", "rate", "hour", "compensation",
	"overtime", "benefit", "allowance", "premium", "differential",
}

func isWageQuery(question string) bool {
	lower := strings.ToLower(question)
	for _, term := range wageQueryTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Retrieve runs the full pipeline. It returns the fused hits, a short
// method tag identifying the stage that produced them, and the raw
// chunk/semantic hits carrying heading metadata.
func (o *Orchestrator) Retrieve(ctx context.Context, question string) ([]search.Result, string, []ContextHit) {
	limit := o.cfg.Limit

	scopedFileID, topicQuery := o.synonyms.DetectDocumentReference(ctx, question)

	if scopedFileID == 0 {
		results, contextHits := o.parallelHybrid(ctx, question, limit)
		if len(results) > 0 {
			method := "hybrid_parallel"
			if isWageQuery(question) {
				if tableResults := o.wageTableResults(ctx, 0); len(tableResults) > 0 {
					results = fuseWeightedRRF(
						[][]search.Result{tableResults, results},
						[]float64{2.0, 1.0}, o.cfg.RRFK, limit)
					method += "+tables"
				}
			}
			return results, method, contextHits
		}
	}

	return o.fallbackLadder(ctx, question, topicQuery, scopedFileID, limit)
}

// parallelHybrid dispatches the four retrievers on a bounded pool,
// tolerating per-task failure, and fuses the survivors with weighted RRF.
func (o *Orchestrator) parallelHybrid(ctx context.Context, question string, limit int) ([]search.Result, []ContextHit) {
	gatherCtx, cancel := context.WithTimeout(ctx, o.cfg.GatherTimeout)
	defer cancel()

	// Slots are fixed: [semantic, chunk, page, expanded]. A failed or
	// empty task leaves a nil slot, which fusion skips.
	lists := make([][]search.Result, 4)
	contexts := make([][]ContextHit, 2)

	g, taskCtx := errgroup.WithContext(gatherCtx)
	g.SetLimit(4)

	run := func(fn func(context.Context)) {
		g.Go(func() error {
			tctx, tcancel := context.WithTimeout(taskCtx, o.cfg.PerTaskTimeout)
			defer tcancel()
			fn(tctx)
			return nil
		})
	}

	run(func(tctx context.Context) {
		if o.semantic == nil {
			return
		}
		hits, err := o.semantic.SearchWithRerank(tctx, question, limit*2, 0, 0)
		if err != nil {
			slog.Warn("retrieval: semantic task failed", "error", err)
			return
		}
		lists[0] = semanticToResults(hits)
		contexts[0] = semanticToContext(hits)
	})

	run(func(tctx context.Context) {
		chunks := o.lexical.SearchChunks(tctx, question, search.Options{
			Limit: limit * 2, Mode: "or",
		})
		lists[1] = chunksToResults(chunks)
		contexts[1] = chunksToContext(chunks)
	})

	run(func(tctx context.Context) {
		lists[2] = o.lexical.SearchPages(tctx, question, search.Options{
			Limit: limit * 2, Mode: "or",
		})
	})

	run(func(tctx context.Context) {
		expanded := o.synonyms.ExpandQuery(tctx, question)
		if len(expanded) > 1 {
			lists[3] = o.lexical.SearchPages(tctx, expanded[1], search.Options{
				Limit: limit, Mode: "or",
			})
		}
	})

	_ = g.Wait()

	var nonEmpty [][]search.Result
	var weights []float64
	for i, list := range lists {
		if len(list) > 0 {
			nonEmpty = append(nonEmpty, list)
			weights = append(weights, o.cfg.Weights[i%len(o.cfg.Weights)])
		}
	}
	if len(nonEmpty) == 0 {
		return nil, nil
	}

	var contextHits []ContextHit
	for _, c := range contexts {
		contextHits = append(contextHits, c...)
	}

	return fuseWeightedRRF(nonEmpty, weights, o.cfg.RRFK, limit), contextHits
}

// wageTableResults fetches wage-table rows, falling back to a page-text
// heuristic when no detected wage tables exist.
func (o *Orchestrator) wageTableResults(ctx context.Context, fileID int64) []search.Result {
	tables, err := o.store.WageTables(ctx, fileID, 5)
	if err != nil {
		slog.Warn("retrieval: wage table query failed", "error", err)
		return nil
	}

	if len(tables) > 0 {
		results := make([]search.Result, len(tables))
		for i, t := range tables {
			snippet := t.MarkdownText
			if len(snippet) > 200 {
				snippet = snippet[:200]
			}
			results[i] = search.Result{
				FileID:     t.FileID,
				FilePath:   t.Path,
				Filename:   t.Filename,
				PageNumber: t.PageNumber,
				Snippet:    snippet,
				Score:      2.0,
			}
		}
		return results
	}

	matches, err := o.store.MoneyPages(ctx, fileID, 5)
	if err != nil {
		return nil
	}
	results := make([]search.Result, len(matches))
	for i, m := range matches {
		snippet := m.Text
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		results[i] = search.Result{
			FileID:     m.FileID,
			FilePath:   m.Path,
			Filename:   m.Filename,
			PageNumber: m.PageNumber,
			Snippet:    snippet,
			Score:      1.0,
		}
	}
	return results
}

// --- conversions ---

func chunksToResults(chunks []search.ChunkResult) []search.Result {
	results := make([]search.Result, len(chunks))
	for i, c := range chunks {
		results[i] = search.Result{
			FileID:     c.FileID,
			FilePath:   c.FilePath,
			Filename:   c.Filename,
			PageNumber: c.PageStart,
			Snippet:    c.Snippet,
			Score:      c.Score,
		}
	}
	return results
}

func chunksToContext(chunks []search.ChunkResult) []ContextHit {
	hits := make([]ContextHit, len(chunks))
	for i, c := range chunks {
		hits[i] = ContextHit{
			FileID:        c.FileID,
			ChunkID:       c.ChunkID,
			PageStart:     c.PageStart,
			PageEnd:       c.PageEnd,
			Heading:       c.Heading,
			ParentHeading: c.ParentHeading,
			SectionNumber: c.SectionNumber,
			Text:          c.Snippet,
		}
	}
	return hits
}

func semanticToResults(hits []semantic.Result) []search.Result {
	results := make([]search.Result, len(hits))
	for i, h := range hits {
		results[i] = search.Result{
			FileID:     h.FileID,
			FilePath:   h.FilePath,
			Filename:   h.Filename,
			PageNumber: h.PageNumber,
			Snippet:    h.Text,
			Score:      h.Similarity,
		}
	}
	return results
}

func semanticToContext(hits []semantic.Result) []ContextHit {
	out := make([]ContextHit, 0, len(hits))
	for _, h := range hits {
		if h.IsPage {
			continue
		}
		out = append(out, ContextHit{
			FileID:        h.FileID,
			ChunkID:       h.ChunkID,
			PageStart:     h.PageNumber,
			PageEnd:       h.PageEnd,
			Heading:       h.Heading,
			ParentHeading: h.Parent,
			SectionNumber: h.Section,
			Text:          h.Text,
		})
	}
	return out
}

func likeToResults(matches []store.LikeMatch) []search.Result {
	results := make([]search.Result, len(matches))
	for i, m := range matches {
		snippet := m.Text
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		results[i] = search.Result{
			FileID:     m.FileID,
			FilePath:   m.Path,
			Filename:   m.Filename,
			PageNumber: m.PageNumber,
			Snippet:    snippet,
			Score:      1.0,
		}
	}
	return results
}

// wholeWordFilter keeps matches containing at least one keyword on a word
// boundary, dropping pure substring false positives.
func wholeWordFilter(matches []store.LikeMatch, keywords []string, limit int) []store.LikeMatch {
	var patterns []*regexp.Regexp
	for _, kw := range keywords {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
	}
	var out []store.LikeMatch
	for _, m := range matches {
		for _, p := range patterns {
			if p.MatchString(m.Text) {
				out = append(out, m)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}
