// Package eval is the golden-query harness: Recall@k and MRR over the
// fused retrieval pipeline against labor-contract queries with
// expected-keyword sets.
package eval

import (
	"context"
	"strings"

	"github.com/brunobiangulo/casearch/retrieval"
	"github.com/brunobiangulo/casearch/store"
)

// GoldenQuery is one evaluation case. A retrieved page is relevant when
// its text contains any of the expected keywords (case-insensitive).
type GoldenQuery struct {
	Query            string   `json:"query"`
	ExpectedKeywords []string `json:"expected_keywords"`
}

// QueryResult records the judged outcome of one query.
type QueryResult struct {
	Query     string `json:"query"`
	Method    string `json:"method"`
	FirstHit  int    `json:"first_hit"` // 1-based rank of the first relevant hit, 0 = none
	Retrieved int    `json:"retrieved"`
}

// Metrics aggregates retrieval quality over a query set.
type Metrics struct {
	Queries  int           `json:"queries"`
	RecallAt map[int]float64 `json:"recall_at"`
	MRR      float64       `json:"mrr"`
	Results  []QueryResult `json:"results"`
}

// recallCutoffs are the k values reported by Evaluate.
var recallCutoffs = []int{1, 3, 5}

// Evaluate runs every golden query through the orchestrator and judges
// hits against the store's page text.
func Evaluate(ctx context.Context, o *retrieval.Orchestrator, s *store.Store, queries []GoldenQuery) *Metrics {
	m := &Metrics{
		Queries:  len(queries),
		RecallAt: make(map[int]float64, len(recallCutoffs)),
	}
	if len(queries) == 0 {
		return m
	}

	recallHits := make(map[int]int, len(recallCutoffs))
	var mrrSum float64

	for _, gq := range queries {
		results, method, _ := o.Retrieve(ctx, gq.Query)

		firstHit := 0
		for rank, r := range results {
			text, err := s.GetPageText(ctx, r.FileID, r.PageNumber)
			if err != nil {
				continue
			}
			if isRelevant(text+" "+r.Snippet, gq.ExpectedKeywords) {
				firstHit = rank + 1
				break
			}
		}

		if firstHit > 0 {
			mrrSum += 1.0 / float64(firstHit)
			for _, k := range recallCutoffs {
				if firstHit <= k {
					recallHits[k]++
				}
			}
		}

		m.Results = append(m.Results, QueryResult{
			Query:     gq.Query,
			Method:    method,
			FirstHit:  firstHit,
			Retrieved: len(results),
		})
	}

	for _, k := range recallCutoffs {
		m.RecallAt[k] = float64(recallHits[k]) / float64(len(queries))
	}
	m.MRR = mrrSum / float64(len(queries))
	return m
}

// isRelevant reports whether the text contains any expected keyword.
func isRelevant(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
