//go:build cgo

package eval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/casearch/retrieval"
	"github.com/brunobiangulo/casearch/search"
	"github.com/brunobiangulo/casearch/store"
	"github.com/brunobiangulo/casearch/synonyms"
)

func newTestSetup(t *testing.T) (*retrieval.Orchestrator, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	lexical := search.NewEngine(s)
	syn := synonyms.New(s)
	return retrieval.New(s, lexical, nil, syn, retrieval.Config{Limit: 10}), s
}

func seedCorpus(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	docs := []struct {
		name string
		text string
	}{
		{"overtime.pdf", "ARTICLE 7 OVERTIME\nOvertime is paid at time and one-half the regular rate."},
		{"sick.pdf", "ARTICLE 5 SICK LEAVE\nEmployees accumulate sick leave at one and one-quarter days per month."},
		{"vacation.pdf", "ARTICLE 9 VACATION\nAnnual vacation entitlement increases with years of service."},
	}
	for i, d := range docs {
		id, err := s.InsertFile(ctx, store.File{
			Path: "/docs/" + d.name, Filename: d.name, SHA256: "x", Mtime: float64(i), Size: 1,
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := s.ReplaceDocumentContent(ctx, id,
			[]store.Page{{PageNumber: 1, Text: d.text}}, nil, nil); err != nil {
			t.Fatal(err)
		}
		if err := s.SetFileIndexed(ctx, id, 1); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEvaluate(t *testing.T) {
	o, s := newTestSetup(t)
	seedCorpus(t, s)

	queries := []GoldenQuery{
		{"What is the overtime rate?", []string{"overtime"}},
		{"How much sick leave do employees earn?", []string{"sick leave"}},
		{"What is the quokka allowance?", []string{"quokka"}}, // unanswerable
	}

	m := Evaluate(context.Background(), o, s, queries)

	if m.Queries != 3 {
		t.Fatalf("queries: %d", m.Queries)
	}
	if len(m.Results) != 3 {
		t.Fatalf("results: %d", len(m.Results))
	}

	// Two of three hit at rank 1: Recall@1 = 2/3, MRR = 2/3.
	want := 2.0 / 3.0
	if diff := m.RecallAt[1] - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("recall@1: got %v, want %v", m.RecallAt[1], want)
	}
	if diff := m.MRR - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("mrr: got %v, want %v", m.MRR, want)
	}
	if m.RecallAt[5] < m.RecallAt[1] {
		t.Errorf("recall@5 (%v) cannot be below recall@1 (%v)", m.RecallAt[5], m.RecallAt[1])
	}
}

func TestEvaluateEmptyQuerySet(t *testing.T) {
	o, s := newTestSetup(t)
	m := Evaluate(context.Background(), o, s, nil)
	if m.Queries != 0 || m.MRR != 0 {
		t.Errorf("empty set: %+v", m)
	}
}

func TestGoldenQueriesWellFormed(t *testing.T) {
	if len(GoldenQueries) < 50 {
		t.Fatalf("golden set too small: %d", len(GoldenQueries))
	}
	for _, q := range GoldenQueries {
		if q.Query == "" || len(q.ExpectedKeywords) == 0 {
			t.Errorf("malformed golden query: %+v", q)
		}
	}
}
