package search

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

var headingCueRe = regexp.MustCompile(`[\d\-—:]`)

// isHeadingLine reports whether a line looks like a heading: an
// Article/Section prefix, mostly-uppercase text, or a short line with
// numbering cues near the top of the page.
func isHeadingLine(line string, lineIndex int) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "article") || strings.HasPrefix(lower, "section") {
		return true
	}

	alpha, upper := 0, 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			alpha++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if alpha > 0 && float64(upper)/float64(alpha) >= 0.6 {
		return true
	}

	if lineIndex < 10 && len(line) < 120 && headingCueRe.MatchString(line) {
		return true
	}

	return false
}

// HeadingLines extracts candidate heading lines from page text.
func HeadingLines(text string) []string {
	var headings []string
	for i, line := range strings.Split(text, "\n") {
		if isHeadingLine(line, i) {
			headings = append(headings, strings.TrimSpace(line))
		}
	}
	return headings
}

// PageHasHeadingMatch checks whether the query matches a heading line on
// the page: the full query as a substring, any quoted phrase, or at least
// half of the non-stopword keywords.
func (e *Engine) PageHasHeadingMatch(ctx context.Context, fileID int64, pageNumber int, query string) (bool, string) {
	text, err := e.store.GetPageText(ctx, fileID, pageNumber)
	if err != nil || text == "" {
		return false, ""
	}

	headings := HeadingLines(text)
	if len(headings) == 0 {
		return false, ""
	}

	phrases, words := ParseQuery(query)
	queryLower := strings.ToLower(query)

	for _, heading := range headings {
		headingLower := strings.ToLower(heading)

		if strings.Contains(headingLower, queryLower) {
			return true, heading
		}
		for _, phrase := range phrases {
			if strings.Contains(headingLower, strings.ToLower(phrase)) {
				return true, heading
			}
		}
		if len(words) > 0 {
			matches := 0
			for _, w := range words {
				if strings.Contains(headingLower, w) {
					matches++
				}
			}
			if float64(matches) >= float64(len(words))*0.5 {
				return true, heading
			}
		}
	}

	return false, ""
}
