package extract

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageLineTolerance groups text elements into visual lines by Y proximity.
const pageLineTolerance = 3.0

// ExtractPages extracts and normalizes the text of every page.
// Page-level failures are tolerated with a placeholder; only an unreadable
// file yields an error. Given identical input bytes the output is
// byte-identical.
func ExtractPages(path string) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer f.Close()

	totalPages := reader.NumPage()

	// First pass: raw text per page.
	rawPages := make([]string, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			rawPages = append(rawPages, fmt.Sprintf("[Page %d extraction failed]", i))
			continue
		}
		text, err := pageTextOrdered(page)
		if err != nil || strings.TrimSpace(text) == "" {
			text = fmt.Sprintf("[Page %d extraction failed]", i)
		}
		rawPages = append(rawPages, text)
	}

	// Detect repeated header/footer lines across normalized pages.
	normalizedPages := make([]string, len(rawPages))
	for i, p := range rawPages {
		normalizedPages[i] = NormalizeText(p)
	}
	repeated := detectRepeatedLines(normalizedPages, 0.6)

	// Second pass: cleaned vs raw variants.
	pages := make([]PageText, len(rawPages))
	for i, normalized := range normalizedPages {
		cleaned := normalized
		if len(repeated) > 0 {
			cleaned = removeRepeatedLines(normalized, repeated)
		}
		pages[i] = PageText{
			PageNumber: i + 1,
			Text:       cleaned,
			RawText:    normalized,
		}
	}

	return pages, nil
}

// ExtractStructured extracts pages and annotates heading lines per the
// pattern table.
func ExtractStructured(path string) ([]StructuredPage, error) {
	pages, err := ExtractPages(path)
	if err != nil {
		return nil, err
	}
	return StructurePages(pages), nil
}

// StructurePages annotates already-extracted pages with detected headings.
func StructurePages(pages []PageText) []StructuredPage {
	structured := make([]StructuredPage, len(pages))
	for i, p := range pages {
		sp := StructuredPage{
			PageNumber: p.PageNumber,
			Text:       p.Text,
			RawText:    p.RawText,
		}
		for lineNum, line := range strings.Split(p.Text, "\n") {
			if h := DetectHeading(line, lineNum+1, p.PageNumber); h != nil {
				sp.Headings = append(sp.Headings, *h)
			}
		}
		structured[i] = sp
	}
	return structured
}

// PageCount returns the number of pages without full extraction.
func PageCount(path string) int {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	return reader.NumPage()
}

// Extract runs the full pipeline for one file: pages plus tables.
func Extract(path string) (*Result, error) {
	pages, err := ExtractPages(path)
	if err != nil {
		return nil, err
	}
	tables := ExtractTables(path, pages)
	return &Result{Pages: pages, Tables: tables}, nil
}

// pageTextOrdered extracts page text sorted by visual position
// (top-to-bottom). The library's GetPlainText follows PDF object order,
// which can put headings after the body they label; this groups Content()
// elements into visual lines by Y proximity, preserving the content-stream
// order within each line, then sorts lines by Y.
func pageTextOrdered(page pdf.Page) (string, error) {
	content := page.Content()
	if len(content.Text) == 0 {
		return page.GetPlainText(nil)
	}

	type visualLine struct {
		y   float64
		buf strings.Builder
	}

	var lines []*visualLine
	var cur *visualLine

	for _, t := range content.Text {
		if cur == nil || math.Abs(t.Y-cur.y) > pageLineTolerance {
			lines = append(lines, &visualLine{y: t.Y})
			cur = lines[len(lines)-1]
		}
		cur.buf.WriteString(t.S)
	}

	// Higher Y = higher on the page in PDF coordinates.
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].y > lines[j].y
	})

	var parts []string
	for _, l := range lines {
		text := strings.TrimSpace(l.buf.String())
		if text != "" {
			parts = append(parts, text)
		}
	}

	result := strings.Join(parts, "\n")
	if strings.TrimSpace(result) == "" {
		return page.GetPlainText(nil)
	}
	return result, nil
}
