package synonyms

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
)

var filenamePrefixRe = regexp.MustCompile(`^(collective[_\s]?agreement[_\s]?[-_]?|ca[_\s]?[-_]?)`)

// DetectDocumentReference finds the longest substring of the query that
// matches a known per-file name (short name, employer, region, union
// local, or filename stem) among indexed files. It returns the matched
// file ID (0 when none) and the query with the reference and connecting
// "for/in/from" or possessive patterns removed. If the residue drops
// below two words, only the bare name is removed instead.
func (s *Service) DetectDocumentReference(ctx context.Context, query string) (int64, string) {
	files, err := s.store.ListIndexedFiles(ctx)
	if err != nil || len(files) == 0 {
		return 0, query
	}

	queryLower := strings.ToLower(query)

	// Build searchable name -> file ID. Later entries never override
	// earlier ones for the same name; the longest match decides anyway.
	names := make(map[string]int64)
	add := func(name string, id int64) {
		name = strings.TrimSpace(strings.ToLower(name))
		if name != "" {
			if _, ok := names[name]; !ok {
				names[name] = id
			}
		}
	}

	for _, f := range files {
		add(f.ShortName, f.ID)
		add(f.EmployerName, f.ID)
		add(f.Region, f.ID)
		add(f.UnionLocal, f.ID)
		add(f.Filename, f.ID)

		stem := strings.ToLower(strings.TrimSuffix(f.Filename, filepath.Ext(f.Filename)))
		stem = filenamePrefixRe.ReplaceAllString(stem, "")
		stem = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(stem))
		add(stem, f.ID)

		if words := strings.Fields(stem); len(words) >= 2 {
			add(strings.Join(words[:2], " "), f.ID)
			add(words[0], f.ID)
		}
	}

	var bestName string
	var bestID int64
	for name, id := range names {
		if len(name) > 2 && strings.Contains(queryLower, name) {
			if len(name) > len(bestName) || (len(name) == len(bestName) && name < bestName) {
				bestName = name
				bestID = id
			}
		}
	}
	if bestName == "" {
		return 0, query
	}

	escaped := regexp.QuoteMeta(bestName)
	scopedRe := regexp.MustCompile(`(?i)\b(for|in|from)\s+(the\s+)?` + escaped + `(\s+contract|\s+agreement|\s+local)?\b`)
	possessiveRe := regexp.MustCompile(`(?i)\b` + escaped + `('s|s')\s*`)
	bareRe := regexp.MustCompile(`(?i)\b` + escaped + `\b`)

	remaining := scopedRe.ReplaceAllString(query, "")
	remaining = possessiveRe.ReplaceAllString(remaining, "")
	remaining = strings.Join(strings.Fields(remaining), " ")

	if len(strings.Fields(remaining)) < 2 {
		remaining = bareRe.ReplaceAllString(query, "")
		remaining = strings.Join(strings.Fields(remaining), " ")
	}

	if remaining == "" {
		remaining = query
	}
	return bestID, remaining
}
