package qa

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation is the outcome of response format validation.
type Validation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// notFoundPhrases are the canonical "no evidence" forms, matched
// case-folded as exact phrases.
var notFoundPhrases = []string{
	"not found in the documents",
	"not found in documents",
	"no information available",
}

// noEvidencePhrases extend notFoundPhrases for the no_evidence decision.
var noEvidencePhrases = []string{
	"not found in the documents",
	"not found in documents",
	"no information available",
	"documents do not contain",
	"cannot find",
	"no relevant information",
	"not mentioned in",
	"does not contain",
}

var (
	boldHeadingRe = regexp.MustCompile(`^\*\*[^*]+\*\*`)
	citationRe    = regexp.MustCompile(`(?i)\[Source\s*\d+(?:\s*,\s*Source\s*\d+)*\]`)
	anyCitationRe = regexp.MustCompile(`(?i)\[source\s*\d+\]`)
)

// isNotFoundResponse reports whether the answer is one of the canonical
// "not found" forms.
func isNotFoundResponse(answer string) bool {
	lower := strings.ToLower(strings.TrimSpace(answer))
	for _, phrase := range notFoundPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ValidateResponse checks the formatting rules: bold heading when one was
// expected, [Source N] citations, bullet usage, per-bullet citations, and
// the 6-bullet cap. "Not found" responses bypass all checks.
func ValidateResponse(answer string, headingExpected bool) Validation {
	if isNotFoundResponse(answer) {
		return Validation{Valid: true}
	}

	var issues []string

	if headingExpected && !boldHeadingRe.MatchString(strings.TrimSpace(answer)) {
		issues = append(issues,
			"Missing heading: Response should start with bold heading (e.g., **Article Title**)")
	}

	if !citationRe.MatchString(answer) {
		issues = append(issues,
			"Missing citations: No [Source X] citations found in response")
	}

	bulletCount := strings.Count(answer, "•")
	if bulletCount == 0 {
		issues = append(issues,
			"Missing bullet points: Response should use bullet points with the bullet character")
	}

	// Each bullet's first text line must carry a citation.
	if bulletCount > 0 {
		segments := strings.Split(answer, "•")
		var uncited []int
		bulletIdx := 0
		for _, segment := range segments[1:] {
			bulletIdx++
			firstLine := strings.TrimSpace(strings.SplitN(segment, "\n", 2)[0])
			if firstLine == "" || strings.HasPrefix(strings.ToLower(firstLine), "source") {
				continue
			}
			if !citationRe.MatchString(firstLine) {
				uncited = append(uncited, bulletIdx)
			}
		}
		if len(uncited) > 0 {
			issues = append(issues,
				fmt.Sprintf("Uncited bullets: Bullet(s) %v missing [Source X] citation", uncited))
		}
	}

	if bulletCount > 6 {
		issues = append(issues,
			fmt.Sprintf("Too many bullets: Found %d bullets, maximum is 6", bulletCount))
	}

	return Validation{Valid: len(issues) == 0, Issues: issues}
}

var (
	dollarRe   = regexp.MustCompile(`\$[\d,]+(?:\.\d{1,2})?`)
	percentRe  = regexp.MustCompile(`\d+(?:\.\d+)?%`)
	durationRe = regexp.MustCompile(`(?i)(\d+)\s+(days?|hours?|weeks?|months?|years?|shifts?)`)
	dateRe     = regexp.MustCompile(`(?i)(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`)
)

// VerifyContent checks that specific values in the answer appear in the
// packed source text: dollar amounts (comma-stripped variants accepted),
// percentages, durations, and long-form dates. Each missing value yields
// one warning; warnings never suppress the answer.
func VerifyContent(answer string, contextParts []string) []string {
	var warnings []string
	sourceText := strings.ToLower(strings.Join(contextParts, " "))

	seen := make(map[string]bool)
	flag := func(warning string) {
		if !seen[warning] {
			seen[warning] = true
			warnings = append(warnings, warning)
		}
	}

	for _, amount := range dollarRe.FindAllString(answer, -1) {
		normalized := strings.ReplaceAll(amount, ",", "")
		if strings.Contains(sourceText, strings.ToLower(normalized)) ||
			strings.Contains(sourceText, strings.ToLower(amount)) {
			continue
		}
		numOnly := strings.TrimPrefix(normalized, "$")
		if !strings.Contains(sourceText, numOnly) {
			flag("Unverified dollar amount: " + amount)
		}
	}

	for _, pct := range percentRe.FindAllString(answer, -1) {
		if !strings.Contains(sourceText, strings.ToLower(pct)) {
			flag("Unverified percentage: " + pct)
		}
	}

	for _, m := range durationRe.FindAllStringSubmatch(answer, -1) {
		num, unit := m[1], strings.ToLower(m[2])
		candidates := []string{
			num + " " + unit,
			"(" + num + ") " + unit,
			num + unit,
		}
		found := false
		for _, c := range candidates {
			if strings.Contains(sourceText, c) {
				found = true
				break
			}
		}
		if !found {
			flag(fmt.Sprintf("Unverified duration: %s %s", num, m[2]))
		}
	}

	for _, date := range dateRe.FindAllString(answer, -1) {
		if !strings.Contains(sourceText, strings.ToLower(date)) {
			flag("Unverified date: " + date)
		}
	}

	return warnings
}
