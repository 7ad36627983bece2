package extract

import (
	"regexp"
	"strings"
)

// headingPattern is one entry of the ordered heading detection table.
type headingPattern struct {
	re    *regexp.Regexp
	level int
	typ   string
}

// headingPatterns is the ordered pattern table; the first match wins.
// Case sensitivity is encoded per pattern: ALL-CAPS rules are case
// sensitive, everything else is not.
var headingPatterns = []headingPattern{
	// ARTICLE patterns (level 1)
	{regexp.MustCompile(`(?i)^ARTICLE\s+([IVXLCDM]+|\d+)[:\s]*[-–—]?\s*(.*)$`), 1, "article"},
	{regexp.MustCompile(`(?i)^ART\.?\s*([IVXLCDM]+|\d+)[:\s]*[-–—]?\s*(.*)$`), 1, "article"},

	// SECTION patterns (level 2)
	{regexp.MustCompile(`(?i)^SECTION\s+(\d+(?:\.\d+)?)[:\s]*[-–—]?\s*(.*)$`), 2, "section"},
	{regexp.MustCompile(`(?i)^Sec\.?\s*(\d+(?:\.\d+)?)[:\s]*[-–—]?\s*(.*)$`), 2, "section"},

	// Decimal numbered sections common in contracts: 7.01, 12.03, 15.1.2
	{regexp.MustCompile(`^(\d+\.\d{2})\s+(.+)$`), 2, "numbered"},
	{regexp.MustCompile(`^(\d+\.\d+(?:\.\d+)?)\s+(.+)$`), 2, "numbered"},

	// Roman numeral sections: IV.  Something
	{regexp.MustCompile(`^([IVXLCDM]+)\.\s+(.+)$`), 2, "roman"},

	// Letter subsections with content: (a) ..., A. ..., a) ...
	{regexp.MustCompile(`(?i)^\(([a-z])\)\s+(.{10,})$`), 3, "lettered"},
	{regexp.MustCompile(`(?i)^([a-z])\.\s+(.{10,})$`), 3, "lettered"},
	{regexp.MustCompile(`(?i)^([a-z])\)\s+(.{10,})$`), 3, "lettered"},

	// Roman numeral subsections: (i), (ii), (iii)
	{regexp.MustCompile(`^\(([ivxlcdm]+)\)\s+(.+)$`), 3, "roman_sub"},

	// SCHEDULE/APPENDIX patterns (level 1)
	{regexp.MustCompile(`(?i)^(SCHEDULE|APPENDIX|EXHIBIT)\s+([A-Z]|\d+)[:\s]*[-–—]?\s*(.*)$`), 1, "appendix"},

	// LETTER OF UNDERSTANDING (level 1)
	{regexp.MustCompile(`(?i)^LETTER\s+OF\s+(UNDERSTANDING|AGREEMENT)[:\s]*(.*)$`), 1, "letter"},

	// ALL-CAPS short lines (case sensitive)
	{regexp.MustCompile(`^([A-Z][A-Z\s]{4,50})$`), 2, "caps"},
}

// headingKeywords flags lines as headings even without numbering when they
// equal (or start with) one of these ALL-CAPS phrases.
var headingKeywords = []string{
	"PREAMBLE", "DEFINITIONS", "RECOGNITION", "MANAGEMENT RIGHTS",
	"UNION SECURITY", "GRIEVANCE", "ARBITRATION", "DISCIPLINE",
	"SENIORITY", "LAYOFF", "RECALL", "HOURS OF WORK", "OVERTIME",
	"HOLIDAYS", "VACATION", "SICK LEAVE", "LEAVE OF ABSENCE",
	"BENEFITS", "INSURANCE", "PENSION", "WAGES", "SALARIES",
	"CLASSIFICATIONS", "PROBATION", "TRAINING", "SAFETY", "HEALTH",
	"DURATION", "TERMINATION", "GENERAL PROVISIONS", "APPENDIX",
	"SCHEDULE", "LETTER OF UNDERSTANDING", "MEMORANDUM",
}

// DetectHeading classifies a line against the pattern table and the
// keyword list. Lines longer than 100 chars are never headings.
func DetectHeading(line string, lineNumber, pageNumber int) *Heading {
	line = strings.TrimSpace(line)
	if len(line) < 3 || len(line) > 100 {
		return nil
	}

	for _, p := range headingPatterns {
		if p.re.MatchString(line) {
			return &Heading{
				Level:      p.level,
				Text:       line,
				PageNumber: pageNumber,
				LineNumber: lineNumber,
				Type:       p.typ,
			}
		}
	}

	upper := strings.ToUpper(line)
	for _, keyword := range headingKeywords {
		if upper == keyword || strings.HasPrefix(upper, keyword+" ") {
			level := 2
			if keyword == "PREAMBLE" || keyword == "DEFINITIONS" {
				level = 1
			}
			return &Heading{
				Level:      level,
				Text:       line,
				PageNumber: pageNumber,
				LineNumber: lineNumber,
				Type:       "keyword",
			}
		}
	}

	return nil
}

var sectionNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ARTICLE\s+([IVXLCDM]+|\d+)`),
	regexp.MustCompile(`(?i)SECTION\s+(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`^(\d+\.\d+(?:\.\d+)?)`),
}

// ExtractSectionNumber pulls the section/article number out of a heading.
func ExtractSectionNumber(heading string) string {
	for _, p := range sectionNumberPatterns {
		if m := p.FindStringSubmatch(heading); m != nil {
			return m[1]
		}
	}
	return ""
}
