// Package search implements lexical retrieval: query parsing, FTS5 query
// building, page and chunk search with AND→OR fallback, and phrase and
// proximity reranking.
package search

import (
	"regexp"
	"strings"
)

// Stopwords filtered from bare query words (never from quoted phrases).
var Stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true,
	"he": true, "in": true, "is": true, "it": true, "its": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "to": true,
	"was": true, "were": true, "will": true, "with": true, "what": true,
	"when": true, "where": true, "which": true, "who": true, "why": true,
	"how": true, "can": true, "could": true, "would": true, "should": true,
	"do": true, "does": true, "did": true, "have": true, "had": true,
	"this": true, "these": true, "those": true, "i": true, "you": true,
	"we": true, "they": true, "my": true, "your": true, "our": true,
	"their": true,
}

var (
	phraseRe     = regexp.MustCompile(`"([^"]+)"`)
	nonWordRe    = regexp.MustCompile(`[^\w\s\-']`)
	phraseTermRe = regexp.MustCompile(`[^\w\s]`)
)

// ParseQuery splits a query into quoted phrases and bare words. Stopwords
// and single-char words are dropped from the bare words only.
func ParseQuery(query string) (phrases, words []string) {
	for _, m := range phraseRe.FindAllStringSubmatch(query, -1) {
		if p := strings.TrimSpace(m[1]); p != "" {
			phrases = append(phrases, p)
		}
	}

	remaining := phraseRe.ReplaceAllString(query, " ")
	remaining = nonWordRe.ReplaceAllString(remaining, " ")

	for _, word := range strings.Fields(remaining) {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" && !Stopwords[word] && len(word) > 1 {
			words = append(words, word)
		}
	}

	return phrases, words
}

// BuildFTSQuery builds an FTS5 expression: "<phrase>" for phrases, bare
// <word>* prefix tokens for words — never "<word>"*, which is invalid FTS5
// — joined with AND or OR per mode. Returns "" for an empty query.
func BuildFTSQuery(query, mode string) string {
	phrases, words := ParseQuery(query)
	if len(phrases) == 0 && len(words) == 0 {
		return ""
	}

	var parts []string
	for _, phrase := range phrases {
		clean := phraseTermRe.ReplaceAllString(phrase, " ")
		clean = strings.Join(strings.Fields(clean), " ")
		if clean != "" {
			parts = append(parts, `"`+clean+`"`)
		}
	}
	for _, word := range words {
		parts = append(parts, word+"*")
	}
	if len(parts) == 0 {
		return ""
	}

	operator := " AND "
	if mode == "or" {
		operator = " OR "
	}
	return strings.Join(parts, operator)
}

// ExtractKeywords returns the lowercased non-stopword keywords of a
// question for the substring fallback search.
func ExtractKeywords(question string) []string {
	cleaned := nonWordRe.ReplaceAllString(question, " ")
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(cleaned)) {
		if !Stopwords[w] && len(w) > 2 {
			keywords = append(keywords, w)
		}
	}
	return keywords
}
