package retrieval

import (
	"context"

	"github.com/brunobiangulo/casearch/search"
	"github.com/brunobiangulo/casearch/semantic"
)

// fallbackLadder runs the staged fallback: scoped to a referenced
// document first when one was detected, then corpus-wide. Each stage
// returns as soon as it produces results, tagged with the stage name.
func (o *Orchestrator) fallbackLadder(ctx context.Context, question, topicQuery string, scopedFileID int64, limit int) ([]search.Result, string, []ContextHit) {
	if scopedFileID > 0 {
		if results, method, hits := o.runStages(ctx, topicQuery, scopedFileID, limit, "_scoped"); len(results) > 0 {
			return results, method, hits
		}
	}

	if results, method, hits := o.runStages(ctx, question, 0, limit, ""); len(results) > 0 {
		return results, method, hits
	}

	// Last resort: merge page FTS OR with single-stage semantic search.
	ftsResults := o.lexical.SearchPages(ctx, question, search.Options{
		Limit: limit * 2, Mode: "or",
	})
	var semResults []search.Result
	if o.semantic != nil {
		if hits, err := o.semantic.Search(ctx, question, semantic.Options{Limit: limit * 2}); err == nil {
			semResults = semanticToResults(hits)
		}
	}
	if len(ftsResults) > 0 || len(semResults) > 0 {
		fused := fuseWeightedRRF(
			[][]search.Result{ftsResults, semResults},
			[]float64{1.0, 1.0}, o.cfg.RRFK, limit)
		if len(fused) > 0 {
			return fused, "hybrid", nil
		}
	}

	return nil, "none", nil
}

// runStages executes the single-path ladder against one scope
// (fileID == 0 means corpus-wide).
func (o *Orchestrator) runStages(ctx context.Context, query string, fileID int64, limit int, tagSuffix string) ([]search.Result, string, []ContextHit) {
	// Semantic search first: best for meaning.
	if o.semantic != nil {
		hits, err := o.semantic.SearchWithRerank(ctx, query, limit, fileID, 0)
		if err == nil && len(hits) > 0 {
			return semanticToResults(hits), "semantic" + tagSuffix, semanticToContext(hits)
		}
	}

	// Chunk FTS: AND then OR, heading context comes along.
	for _, mode := range []string{"and", "or"} {
		chunks := o.lexical.SearchChunks(ctx, query, search.Options{
			Limit: limit, Mode: mode, FileID: fileID,
		})
		if len(chunks) > 0 {
			return chunksToResults(chunks), "chunk_" + mode + tagSuffix, chunksToContext(chunks)
		}
	}

	// Page FTS: AND then OR.
	for _, mode := range []string{"and", "or"} {
		results := o.lexical.SearchPages(ctx, query, search.Options{
			Limit: limit, Mode: mode, FileID: fileID,
		})
		if len(results) > 0 {
			return results, "fts_" + mode + tagSuffix, nil
		}
	}

	// Synonym-expanded variants, skipping the original.
	expanded := o.synonyms.ExpandQuery(ctx, query)
	for _, variant := range expanded[1:] {
		results := o.lexical.SearchPages(ctx, variant, search.Options{
			Limit: limit, Mode: "or", FileID: fileID,
		})
		if len(results) > 0 {
			return results, "fts_synonym" + tagSuffix, nil
		}
	}

	// SQL substring search with word-boundary post-filter.
	keywords := search.ExtractKeywords(query)
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	if len(keywords) > 0 {
		matches, err := o.store.LikePages(ctx, keywords, fileID, limit*3)
		if err == nil {
			if filtered := wholeWordFilter(matches, keywords, limit); len(filtered) > 0 {
				return likeToResults(filtered), "sql_like" + tagSuffix, nil
			}
		}
	}

	return nil, "none", nil
}
