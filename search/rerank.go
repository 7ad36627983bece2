package search

import (
	"context"
	"sort"
	"strings"
)

// rerankKey is the composite sort key for phrase/proximity reranking.
// Heading matches dominate, then phrase matches, then proximity; the
// original BM25 score breaks ties ascending (lower is better).
type rerankKey struct {
	heading   int
	phrases   int
	proximity int
	original  float64
}

// RankByPhraseProximity re-ranks results so heading matches come first,
// then exact phrase matches, then hits whose query words sit close
// together in the snippet.
func (e *Engine) RankByPhraseProximity(ctx context.Context, results []Result, query string) []Result {
	if len(results) == 0 {
		return results
	}

	phrases, words := ParseQuery(query)

	score := func(r Result) rerankKey {
		key := rerankKey{original: r.Score}

		if match, _ := e.PageHasHeadingMatch(ctx, r.FileID, r.PageNumber, query); match {
			key.heading = 100
		}

		snippetLower := strings.ToLower(r.Snippet)
		for _, phrase := range phrases {
			if strings.Contains(snippetLower, strings.ToLower(phrase)) {
				key.phrases += 10
			}
		}

		if len(words) >= 2 {
			var positions []int
			for _, w := range words {
				if pos := strings.Index(snippetLower, w); pos >= 0 {
					positions = append(positions, pos)
				}
			}
			if len(positions) >= 2 {
				sort.Ints(positions)
				for i := 0; i < len(positions)-1; i++ {
					gap := positions[i+1] - positions[i]
					switch {
					case gap < 50:
						key.proximity += 5
					case gap < 100:
						key.proximity += 2
					}
				}
			}
		}

		return key
	}

	type scored struct {
		key    rerankKey
		result Result
	}
	scoredResults := make([]scored, len(results))
	for i, r := range results {
		scoredResults[i] = scored{key: score(r), result: r}
	}

	sort.SliceStable(scoredResults, func(i, j int) bool {
		a, b := scoredResults[i].key, scoredResults[j].key
		if a.heading != b.heading {
			return a.heading > b.heading
		}
		if a.phrases != b.phrases {
			return a.phrases > b.phrases
		}
		if a.proximity != b.proximity {
			return a.proximity > b.proximity
		}
		return a.original < b.original
	})

	out := make([]Result, len(scoredResults))
	for i, s := range scoredResults {
		out[i] = s.result
	}
	return out
}
