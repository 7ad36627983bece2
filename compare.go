package casearch

import (
	"context"
	"regexp"
	"strings"

	"github.com/brunobiangulo/casearch/store"
)

// TermMatch is one occurrence of a comparison topic in a document.
type TermMatch struct {
	FileID     int64  `json:"file_id"`
	Filename   string `json:"filename"`
	PageNumber int    `json:"page_number"`
	Snippet    string `json:"snippet"`
}

// CompareDocument summarizes one document in a comparison.
type CompareDocument struct {
	FileID    int64  `json:"file_id"`
	Filename  string `json:"filename"`
	PageCount int    `json:"page_count"`
}

// CompareResult is the outcome of a multi-document comparison.
type CompareResult struct {
	Documents []CompareDocument `json:"documents"`
	Matches   []TermMatch       `json:"matches"`
	Topic     string            `json:"topic,omitempty"`
}

// CompareDocumentsMulti compares multiple documents, optionally locating
// every occurrence of a topic term. Only indexed files participate.
func (e *Engine) CompareDocumentsMulti(ctx context.Context, fileIDs []int64, topic string) (*CompareResult, error) {
	topic = strings.TrimSpace(topic)
	result := &CompareResult{
		Documents: []CompareDocument{},
		Matches:   []TermMatch{},
		Topic:     topic,
	}

	for _, fileID := range fileIDs {
		f, err := e.store.GetFile(ctx, fileID)
		if err != nil || f.Status != "indexed" {
			continue
		}

		pages, err := e.store.GetFilePages(ctx, fileID)
		if err != nil {
			return nil, err
		}

		result.Documents = append(result.Documents, CompareDocument{
			FileID:    fileID,
			Filename:  f.Filename,
			PageCount: len(pages),
		})

		if topic != "" {
			for _, m := range findTermLocations(pages, topic) {
				m.FileID = fileID
				m.Filename = f.Filename
				result.Matches = append(result.Matches, m)
			}
		}
	}

	return result, nil
}

// findTermLocations finds all occurrences of a term across pages, each
// with a ±50-char word-aligned context and the term wrapped in <mark>.
func findTermLocations(pages []store.Page, term string) []TermMatch {
	termLower := strings.ToLower(term)
	highlightRe := regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(term) + `)`)

	var matches []TermMatch
	for _, page := range pages {
		text := page.Text
		textLower := strings.ToLower(text)

		start := 0
		for {
			pos := strings.Index(textLower[start:], termLower)
			if pos < 0 {
				break
			}
			pos += start

			contextStart := pos - 50
			if contextStart < 0 {
				contextStart = 0
			}
			contextEnd := pos + len(term) + 50
			if contextEnd > len(text) {
				contextEnd = len(text)
			}

			// Keep whole words at both edges.
			if contextStart > 0 {
				if spaceIdx := strings.Index(text[contextStart:pos], " "); spaceIdx >= 0 {
					contextStart += spaceIdx + 1
				}
			}
			if contextEnd < len(text) {
				if spaceIdx := strings.LastIndex(text[pos+len(term):contextEnd], " "); spaceIdx >= 0 {
					contextEnd = pos + len(term) + spaceIdx
				}
			}

			snippet := highlightRe.ReplaceAllString(text[contextStart:contextEnd], "<mark>$1</mark>")
			matches = append(matches, TermMatch{
				PageNumber: page.PageNumber,
				Snippet:    snippet,
			})

			start = pos + 1
		}
	}
	return matches
}
