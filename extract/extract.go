// Package extract performs deterministic, structure-aware PDF extraction:
// page text with normalization, heading detection, and table detection.
package extract

import "errors"

// ErrExtraction is returned when a PDF cannot be read at all.
// Page-level failures are tolerated with a placeholder instead.
var ErrExtraction = errors.New("extract: cannot read PDF")

// PageText is the extracted text of a single page. Text is the cleaned
// variant used for indexing; RawText keeps headers/footers for display.
type PageText struct {
	PageNumber int     // 1-indexed
	Text       string  // cleaned text for indexing
	RawText    string  // normalized but complete text for display
	Tables     []Table // left empty by ExtractPages and Extract; ExtractTables returns tables as a separate list
}

// Table is a grid detected on a page.
type Table struct {
	PageNumber     int // 1-indexed
	TableIndex     int // 0-indexed within the page
	Headers        []string
	Rows           [][]string
	MarkdownText   string
	ContextHeading string
	IsWageTable    bool
}

// Heading is a line classified as a section boundary.
type Heading struct {
	Level      int // 1 = Article, 2 = Section, 3 = Subsection
	Text       string
	PageNumber int
	LineNumber int // 1-based within the cleaned page text
	Type       string
}

// StructuredPage is a page with heading annotations.
type StructuredPage struct {
	PageNumber int
	Text       string
	RawText    string
	Headings   []Heading
}

// Result bundles everything the extractor produces for one file.
type Result struct {
	Pages  []PageText
	Tables []Table
}
