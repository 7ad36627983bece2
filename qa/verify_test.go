package qa

import (
	"strings"
	"testing"
)

const wellFormedAnswer = `**Article 5 — Sick Time**

• Full-time employees accrue sick leave at one day per month [Source 1]
• Maximum accrual is 12 days per calendar year [Source 1]
• Sick time can be used for personal illness or family care [Source 2]

Sources:
- Source 1: Contract_2024.pdf, Page 15
- Source 2: Contract_2024.pdf, Page 16`

func TestValidateResponseWellFormed(t *testing.T) {
	v := ValidateResponse(wellFormedAnswer, true)
	if !v.Valid {
		t.Fatalf("expected valid, issues: %v", v.Issues)
	}
}

func TestValidateResponseMissingHeading(t *testing.T) {
	answer := strings.TrimPrefix(wellFormedAnswer, "**Article 5 — Sick Time**\n\n")
	v := ValidateResponse(answer, true)
	if v.Valid {
		t.Fatal("expected invalid")
	}
	if !hasIssueContaining(v.Issues, "Missing heading") {
		t.Errorf("issues: %v", v.Issues)
	}

	// Without an expected heading the same answer is fine.
	if v := ValidateResponse(answer, false); !v.Valid {
		t.Errorf("unexpected issues: %v", v.Issues)
	}
}

func TestValidateResponseMissingCitations(t *testing.T) {
	answer := "**Heading**\n\n• A statement without any citation\n"
	v := ValidateResponse(answer, true)
	if v.Valid {
		t.Fatal("expected invalid")
	}
	if !hasIssueContaining(v.Issues, "Missing citations") {
		t.Errorf("issues: %v", v.Issues)
	}
	if !hasIssueContaining(v.Issues, "Uncited bullets") {
		t.Errorf("issues: %v", v.Issues)
	}
}

func TestValidateResponseMissingBullets(t *testing.T) {
	answer := "**Heading**\n\nThe policy allows leave [Source 1]."
	v := ValidateResponse(answer, true)
	if v.Valid {
		t.Fatal("expected invalid")
	}
	if !hasIssueContaining(v.Issues, "Missing bullet points") {
		t.Errorf("issues: %v", v.Issues)
	}
}

func TestValidateResponseTooManyBullets(t *testing.T) {
	var b strings.Builder
	b.WriteString("**Heading**\n\n")
	for i := 0; i < 7; i++ {
		b.WriteString("• A fact [Source 1]\n")
	}
	v := ValidateResponse(b.String(), true)
	if !hasIssueContaining(v.Issues, "Too many bullets") {
		t.Errorf("issues: %v", v.Issues)
	}
}

func TestValidateResponseNotFoundBypasses(t *testing.T) {
	v := ValidateResponse("Not found in the documents provided.", true)
	if !v.Valid || len(v.Issues) != 0 {
		t.Fatalf("not-found responses must bypass validation: %v", v.Issues)
	}
}

func TestValidateResponseMultiSourceCitation(t *testing.T) {
	answer := "**H**\n\n• Both agreements provide it [Source 1, Source 2]\n\nSources:\n- Source 1: a.pdf, Page 1"
	v := ValidateResponse(answer, true)
	if !v.Valid {
		t.Errorf("multi-source citation rejected: %v", v.Issues)
	}
}

func hasIssueContaining(issues []string, substr string) bool {
	for _, issue := range issues {
		if strings.Contains(issue, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Content verification
// ---------------------------------------------------------------------------

func TestVerifyContentDollarAmounts(t *testing.T) {
	contextParts := []string{"The hourly rate is $28.50 effective January 1, 2024."}

	// Present value: no warning.
	warnings := VerifyContent("The rate is $28.50 [Source 1]", contextParts)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	// Absent value: exactly one warning.
	warnings = VerifyContent("The rate is $99.99 [Source 1]", contextParts)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "$99.99") {
		t.Fatalf("warnings: %v", warnings)
	}
}

func TestVerifyContentCommaStripped(t *testing.T) {
	contextParts := []string{"The annual salary is $130845.26 per year."}
	warnings := VerifyContent("Salary is $130,845.26 [Source 1]", contextParts)
	if len(warnings) != 0 {
		t.Fatalf("comma-stripped variant should verify: %v", warnings)
	}
}

func TestVerifyContentPercentages(t *testing.T) {
	contextParts := []string{"a 2% increase in the first year"}
	if w := VerifyContent("An increase of 2% [Source 1]", contextParts); len(w) != 0 {
		t.Fatalf("warnings: %v", w)
	}
	if w := VerifyContent("An increase of 5% [Source 1]", contextParts); len(w) != 1 {
		t.Fatalf("warnings: %v", w)
	}
}

func TestVerifyContentDurations(t *testing.T) {
	contextParts := []string{"entitled to fourteen (14) days of leave"}

	// The parenthesized variant in the source verifies "14 days".
	if w := VerifyContent("Employees get 14 days [Source 1]", contextParts); len(w) != 0 {
		t.Fatalf("warnings: %v", w)
	}
	if w := VerifyContent("Employees get 30 days [Source 1]", contextParts); len(w) != 1 {
		t.Fatalf("warnings: %v", w)
	}
}

func TestVerifyContentDates(t *testing.T) {
	contextParts := []string{"effective January 1, 2024 through December 31, 2026"}
	if w := VerifyContent("Effective January 1, 2024 [Source 1]", contextParts); len(w) != 0 {
		t.Fatalf("warnings: %v", w)
	}
	if w := VerifyContent("Effective March 15, 2025 [Source 1]", contextParts); len(w) != 1 {
		t.Fatalf("warnings: %v", w)
	}
}

func TestVerifyContentDuplicateValuesOneWarning(t *testing.T) {
	warnings := VerifyContent("Pays $9.99 now and $9.99 later", []string{"no amounts here"})
	if len(warnings) != 1 {
		t.Fatalf("expected one warning for repeated value, got %v", warnings)
	}
}
