package retrieval

import (
	"math"
	"testing"

	"github.com/brunobiangulo/casearch/search"
)

func hit(fileID int64, page int) search.Result {
	return search.Result{FileID: fileID, PageNumber: page, Filename: "a.pdf"}
}

func TestFuseRRFSingleList(t *testing.T) {
	lists := [][]search.Result{{hit(1, 1), hit(1, 2)}}
	fused := fuseWeightedRRF(lists, []float64{1.5}, 60, 10)

	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}

	// score(x) = w / (k + rank), ranks are 1-based.
	want0 := 1.5 / 61.0
	want1 := 1.5 / 62.0
	if math.Abs(fused[0].Score-want0) > 1e-12 {
		t.Errorf("rank 1 score: got %v, want %v", fused[0].Score, want0)
	}
	if math.Abs(fused[1].Score-want1) > 1e-12 {
		t.Errorf("rank 2 score: got %v, want %v", fused[1].Score, want1)
	}
}

func TestFuseRRFScoresAdd(t *testing.T) {
	shared := hit(1, 1)
	lists := [][]search.Result{
		{shared, hit(2, 1)},
		{hit(3, 1), shared},
	}
	fused := fuseWeightedRRF(lists, []float64{1.0, 1.0}, 60, 10)

	want := 1.0/61.0 + 1.0/62.0
	if fused[0].FileID != 1 || math.Abs(fused[0].Score-want) > 1e-12 {
		t.Errorf("shared hit: got file %d score %v, want file 1 score %v",
			fused[0].FileID, fused[0].Score, want)
	}
}

func TestFuseRRFDeduplicatesKeepingFirstSeen(t *testing.T) {
	first := search.Result{FileID: 1, PageNumber: 1, Snippet: "first seen"}
	second := search.Result{FileID: 1, PageNumber: 1, Snippet: "second seen"}
	fused := fuseWeightedRRF([][]search.Result{{first}, {second}}, []float64{1, 1}, 60, 10)

	if len(fused) != 1 {
		t.Fatalf("expected 1 deduplicated result, got %d", len(fused))
	}
	if fused[0].Snippet != "first seen" {
		t.Errorf("kept wrong hit: %q", fused[0].Snippet)
	}
}

func TestFuseRRFTieBreakDeterministic(t *testing.T) {
	// Four hits, each rank 1 in its own list with equal weight: all tied.
	lists := [][]search.Result{
		{hit(2, 5)}, {hit(1, 9)}, {hit(2, 1)}, {hit(1, 3)},
	}
	fused := fuseWeightedRRF(lists, []float64{1, 1, 1, 1}, 60, 10)

	wantOrder := []struct {
		fileID int64
		page   int
	}{{1, 3}, {1, 9}, {2, 1}, {2, 5}}

	for i, want := range wantOrder {
		if fused[i].FileID != want.fileID || fused[i].PageNumber != want.page {
			t.Errorf("position %d: got (%d,%d), want (%d,%d)",
				i, fused[i].FileID, fused[i].PageNumber, want.fileID, want.page)
		}
	}
}

func TestFuseRRFLimit(t *testing.T) {
	lists := [][]search.Result{{hit(1, 1), hit(1, 2), hit(1, 3), hit(1, 4)}}
	fused := fuseWeightedRRF(lists, []float64{1}, 60, 2)
	if len(fused) != 2 {
		t.Fatalf("limit not applied: %d", len(fused))
	}
}

func TestIsWageQuery(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"what is the hourly wage", true},
		{"overtime compensation rules", true},
		{"shift premium amounts", true},
		{"grievance procedure steps", false},
		{"seniority list posting", false},
	}
	for _, tt := range tests {
		if got := isWageQuery(tt.query); got != tt.want {
			t.Errorf("isWageQuery(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
