// Package qa turns retrieval output into an evidence-grounded answer:
// query classification, adaptive prompt assembly, token-budgeted context
// packing, the external LLM call, and post-hoc response verification.
package qa

import "strings"

// Classification describes a query for adaptive prompting.
type Classification struct {
	Type             string `json:"type"`            // factual, comparison, procedural, definition
	ExpectedLength   string `json:"expected_length"` // short, medium, long
	NeedsMultipleDoc bool   `json:"needs_multiple_docs"`
	NeedsExactMatch  bool   `json:"needs_exact_match"`
}

var (
	comparisonIndicators = []string{"compare", "difference", "vs", "versus", "between", "differ"}
	proceduralIndicators = []string{"how to", "how do", "process", "procedure", "steps", "what happens", "file a"}
	definitionIndicators = []string{"what is", "define", "meaning of", "definition", "what does", "what are"}
	valueIndicators      = []string{"how much", "how many", "rate", "amount", "percentage", "days", "hours", "salary", "wage"}
)

// Classify applies the deterministic rule engine over the lowercased query.
func Classify(query string) Classification {
	lower := strings.ToLower(query)

	c := Classification{Type: "factual", ExpectedLength: "short"}

	if containsAny(lower, comparisonIndicators) {
		c.Type = "comparison"
		c.NeedsMultipleDoc = true
		c.ExpectedLength = "medium"
	}
	if containsAny(lower, proceduralIndicators) {
		c.Type = "procedural"
		c.ExpectedLength = "long"
	}
	if containsAny(lower, definitionIndicators) {
		c.Type = "definition"
	}
	if containsAny(lower, valueIndicators) {
		c.NeedsExactMatch = true
	}

	return c
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
