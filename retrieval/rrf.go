package retrieval

import (
	"sort"

	"github.com/brunobiangulo/casearch/search"
)

// DefaultRRFK is the standard RRF constant from the literature.
const DefaultRRFK = 60

// fuseWeightedRRF combines multiple ranked lists with weighted Reciprocal
// Rank Fusion: score(x) = sum(weight_i / (k + rank_i)). Hits are
// deduplicated by (file_id, page_number), keeping the first-seen full hit.
// Tied scores break by (file_id asc, page asc) for determinism.
func fuseWeightedRRF(lists [][]search.Result, weights []float64, k, limit int) []search.Result {
	if k == 0 {
		k = DefaultRRFK
	}

	type pageKey struct {
		fileID int64
		page   int
	}
	type fusedEntry struct {
		result search.Result
		score  float64
	}

	fused := make(map[pageKey]*fusedEntry)

	for listIdx, results := range lists {
		weight := 1.0
		if listIdx < len(weights) {
			weight = weights[listIdx]
		}
		for rank, r := range results {
			key := pageKey{fileID: r.FileID, page: r.PageNumber}
			entry, ok := fused[key]
			if !ok {
				entry = &fusedEntry{result: r}
				fused[key] = entry
			}
			entry.score += weight / float64(k+rank+1)
		}
	}

	entries := make([]*fusedEntry, 0, len(fused))
	for _, e := range fused {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		if entries[i].result.FileID != entries[j].result.FileID {
			return entries[i].result.FileID < entries[j].result.FileID
		}
		return entries[i].result.PageNumber < entries[j].result.PageNumber
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	results := make([]search.Result, len(entries))
	for i, e := range entries {
		results[i] = e.result
		results[i].Score = e.score
	}
	return results
}
