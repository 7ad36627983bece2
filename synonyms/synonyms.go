// Package synonyms expands queries with labor-contract term synonyms and
// detects per-document references in questions. The merged view of the
// built-in dictionary and the user-editable overlay is cached and
// invalidated on every write.
package synonyms

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/brunobiangulo/casearch/store"
)

// Service owns the merged synonym view. Reads take a snapshot under
// RLock; writes reload the merged map and reverse map.
type Service struct {
	store *store.Store

	mu      sync.RWMutex
	merged  map[string][]string
	reverse map[string]string // synonym -> canonical
	sorted  []string          // reverse-map keys, longest first
}

// New creates a synonym service over the given store.
func New(s *store.Store) *Service {
	return &Service{store: s}
}

// Reload rebuilds the merged view from the built-in dictionary and the
// database overlay.
func (s *Service) Reload(ctx context.Context) error {
	custom, err := s.store.CustomSynonyms(ctx)
	if err != nil {
		return err
	}

	merged := make(map[string][]string, len(Builtin)+len(custom))
	for canonical, syns := range Builtin {
		merged[canonical] = append([]string(nil), syns...)
	}
	for canonical, syns := range custom {
		canonical = strings.ToLower(canonical)
		existing := merged[canonical]
		for _, syn := range syns {
			syn = strings.ToLower(syn)
			if !containsString(existing, syn) {
				existing = append(existing, syn)
			}
		}
		merged[canonical] = existing
	}

	reverse := make(map[string]string)
	for canonical, syns := range merged {
		reverse[canonical] = canonical
		for _, syn := range syns {
			reverse[syn] = canonical
		}
	}

	sorted := make([]string, 0, len(reverse))
	for term := range reverse {
		sorted = append(sorted, term)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	s.mu.Lock()
	s.merged = merged
	s.reverse = reverse
	s.sorted = sorted
	s.mu.Unlock()
	return nil
}

// snapshot returns the current merged view, loading it on first use.
func (s *Service) snapshot(ctx context.Context) (map[string][]string, map[string]string, []string) {
	s.mu.RLock()
	if s.merged != nil {
		defer s.mu.RUnlock()
		return s.merged, s.reverse, s.sorted
	}
	s.mu.RUnlock()

	_ = s.Reload(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merged, s.reverse, s.sorted
}

// All returns the merged synonym dictionary (built-in + custom).
func (s *Service) All(ctx context.Context) map[string][]string {
	merged, _, _ := s.snapshot(ctx)
	out := make(map[string][]string, len(merged))
	for k, v := range merged {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Synonyms returns all synonyms for a term including the canonical form.
// Unknown terms return just the lowercased term.
func (s *Service) Synonyms(ctx context.Context, term string) []string {
	merged, reverse, _ := s.snapshot(ctx)
	termLower := strings.ToLower(term)

	canonical, ok := reverse[termLower]
	if !ok {
		return []string{termLower}
	}
	return append([]string{canonical}, merged[canonical]...)
}

// ExpandQuery returns query variants: the original first, then one variant
// per synonym of every known term appearing in the query, longest match
// first. Terms of 3 chars or fewer are skipped; duplicates eliminated.
func (s *Service) ExpandQuery(ctx context.Context, query string) []string {
	merged, reverse, sorted := s.snapshot(ctx)
	queryLower := strings.ToLower(query)

	expanded := []string{query}
	seen := map[string]bool{queryLower: true}

	for _, term := range sorted {
		if len(term) <= 3 || !strings.Contains(queryLower, term) {
			continue
		}
		canonical := reverse[term]
		variants := append([]string{canonical}, merged[canonical]...)
		for _, syn := range variants {
			if syn == term {
				continue
			}
			variant := strings.ReplaceAll(queryLower, term, syn)
			if !seen[variant] {
				seen[variant] = true
				expanded = append(expanded, variant)
			}
		}
	}

	return expanded
}

// SaveCustom persists custom synonyms and invalidates the cache.
func (s *Service) SaveCustom(ctx context.Context, entries map[string][]string, replace bool) (int, error) {
	normalized := make(map[string][]string, len(entries))
	for canonical, syns := range entries {
		var clean []string
		for _, syn := range syns {
			if syn = strings.ToLower(strings.TrimSpace(syn)); syn != "" {
				clean = append(clean, syn)
			}
		}
		if len(clean) > 0 {
			normalized[strings.ToLower(strings.TrimSpace(canonical))] = clean
		}
	}

	count, err := s.store.SaveCustomSynonyms(ctx, normalized, replace)
	if err != nil {
		return 0, err
	}
	return count, s.Reload(ctx)
}

// DeleteCustom removes one custom term and invalidates the cache.
func (s *Service) DeleteCustom(ctx context.Context, canonical string) (bool, error) {
	deleted, err := s.store.DeleteCustomSynonym(ctx, strings.ToLower(canonical))
	if err != nil || !deleted {
		return deleted, err
	}
	return true, s.Reload(ctx)
}

// Custom returns only the user-defined overlay.
func (s *Service) Custom(ctx context.Context) (map[string][]string, error) {
	return s.store.CustomSynonyms(ctx)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
