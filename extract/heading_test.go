package extract

import "testing"

func TestDetectHeading(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantLevel int // 0 = not a heading
		wantType  string
	}{
		{"article with em dash", "ARTICLE 5 — Sick Time", 1, "article"},
		{"article roman", "Article IV - Hours of Work", 1, "article"},
		{"art abbreviation", "ART. 12 Grievance Procedure", 1, "article"},
		{"section", "SECTION 3.1 Definitions", 2, "section"},
		{"decimal numbered", "7.01 Overtime", 2, "numbered"},
		{"deep decimal", "15.1.2 Standby Provisions", 2, "numbered"},
		{"roman enumerator", "IV. Compensation", 2, "roman"},
		{"lettered with content", "(a) An employee who is required to work", 3, "lettered"},
		{"roman subsection", "(ii) overtime worked on a holiday", 3, "roman_sub"},
		{"schedule", "SCHEDULE A - Wage Rates", 1, "appendix"},
		{"appendix", "Appendix 2: Classifications", 1, "appendix"},
		{"letter of understanding", "LETTER OF UNDERSTANDING", 1, "letter"},
		{"all caps", "HOURS OF WORK AND OVERTIME", 2, "caps"},
		{"keyword", "GRIEVANCE", 2, "caps"},
		{"plain prose is not a heading", "the employee shall be entitled to leave", 0, ""},
		{"short line not heading", "no", 0, ""},
		{
			"long line never a heading",
			"ARTICLE 5 — Sick Time provisions apply to all employees who have completed the probationary period described elsewhere in it",
			0, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := DetectHeading(tt.line, 1, 1)
			if tt.wantLevel == 0 {
				if h != nil {
					t.Fatalf("expected no heading, got level %d type %s", h.Level, h.Type)
				}
				return
			}
			if h == nil {
				t.Fatalf("expected heading level %d, got nil", tt.wantLevel)
			}
			if h.Level != tt.wantLevel {
				t.Errorf("level: got %d, want %d", h.Level, tt.wantLevel)
			}
			if h.Type != tt.wantType {
				t.Errorf("type: got %s, want %s", h.Type, tt.wantType)
			}
		})
	}
}

func TestDetectHeadingKeywordLevels(t *testing.T) {
	h := DetectHeading("PREAMBLE", 1, 1)
	if h == nil {
		t.Fatal("PREAMBLE should be a heading")
	}
	if h.Level != 1 && h.Type != "caps" {
		// PREAMBLE matches the keyword rule at level 1 unless the caps
		// pattern catches it first; either way it must be level <= 2.
		t.Errorf("unexpected classification: level %d type %s", h.Level, h.Type)
	}
}

func TestExtractSectionNumber(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"ARTICLE 5 — Sick Time", "5"},
		{"Article IV - Hours", "IV"},
		{"SECTION 3.1 Definitions", "3.1"},
		{"7.01 Overtime", "7.01"},
		{"HOURS OF WORK", ""},
	}
	for _, tt := range tests {
		if got := ExtractSectionNumber(tt.heading); got != tt.want {
			t.Errorf("ExtractSectionNumber(%q) = %q, want %q", tt.heading, got, tt.want)
		}
	}
}
