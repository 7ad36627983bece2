package extract

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// wageHeaderKeywords mark a table as wage data when any appears in a header.
var wageHeaderKeywords = []string{"$", "rate", "salary", "wage", "pay", "step", "hour", "annual"}

var (
	decimalAmountRe = regexp.MustCompile(`\d+\.\d{2}`)
	tableHeadingRe  = regexp.MustCompile(`^(ARTICLE|Article|SECTION|Section|SCHEDULE|Schedule|APPENDIX|Appendix)`)
)

// DetectWageTable applies the wage heuristic: wage keyword in a header, or
// enough of the first five rows carrying dollar amounts or percentages.
func DetectWageTable(headers []string, rows [][]string) bool {
	headerText := strings.ToLower(strings.Join(headers, " "))
	for _, kw := range wageHeaderKeywords {
		if strings.Contains(headerText, kw) {
			return true
		}
	}

	checked := rows
	if len(checked) > 5 {
		checked = checked[:5]
	}
	dollarCount := 0
	for _, row := range checked {
		rowText := strings.Join(row, " ")
		if strings.Contains(rowText, "$") || decimalAmountRe.MatchString(rowText) ||
			strings.Contains(rowText, "%") {
			dollarCount++
		}
	}

	need := 2
	if len(checked) < need {
		need = len(checked)
	}
	return len(checked) > 0 && dollarCount >= need
}

// FormatTableMarkdown renders headers and rows as a left-aligned markdown
// table. Pipes inside cells become '/' so the rendering stays parseable.
func FormatTableMarkdown(headers []string, rows [][]string) string {
	numCols := len(headers)
	for _, row := range rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}
	if numCols == 0 {
		return ""
	}

	clean := func(val string) string {
		val = strings.TrimSpace(val)
		val = strings.ReplaceAll(val, "|", "/")
		return strings.ReplaceAll(val, "\n", " ")
	}

	padRow := func(row []string) []string {
		out := make([]string, numCols)
		for i := range out {
			if i < len(row) {
				out[i] = clean(row[i])
			}
		}
		return out
	}

	cleanHeaders := padRow(headers)
	cleanRows := make([][]string, len(rows))
	for i, row := range rows {
		cleanRows[i] = padRow(row)
	}

	widths := make([]int, numCols)
	for i, h := range cleanHeaders {
		widths[i] = len(h)
		if widths[i] < 3 {
			widths[i] = 3
		}
	}
	for _, row := range cleanRows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	renderRow := func(cells []string) string {
		parts := make([]string, numCols)
		for i, cell := range cells {
			parts[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		return "| " + strings.Join(parts, " | ") + " |"
	}

	lines := []string{renderRow(cleanHeaders)}
	sep := make([]string, numCols)
	for i := range sep {
		sep[i] = strings.Repeat("-", widths[i])
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
	for _, row := range cleanRows {
		lines = append(lines, renderRow(row))
	}

	return strings.Join(lines, "\n")
}

// findContextHeading picks the heading most likely labelling tables on a
// page: the first Article/Section-style or ALL-CAPS line among the first
// ten lines of page text.
func findContextHeading(pageText string) string {
	if pageText == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(pageText), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if tableHeadingRe.MatchString(line) {
			return line
		}
		if len(line) > 5 && len(line) < 80 && line == strings.ToUpper(line) {
			r := rune(line[0])
			if r >= 'A' && r <= 'Z' {
				return line
			}
		}
	}
	return ""
}

// ExtractTables detects table grids on each page from positioned text.
// Grids with fewer than 2 rows or only empty cells are rejected. The
// cleaned page texts supply context headings.
func ExtractTables(path string, pages []PageText) []Table {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	pageTextByNumber := make(map[int]string, len(pages))
	for _, p := range pages {
		pageTextByNumber[p.PageNumber] = p.Text
	}

	var all []Table
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		grids := detectPageGrids(page)
		contextHeading := findContextHeading(pageTextByNumber[i])

		tableIdx := 0
		for _, grid := range grids {
			if len(grid) < 2 {
				continue
			}
			headers := grid[0]
			rows := grid[1:]

			empty := true
			for _, row := range grid {
				for _, cell := range row {
					if strings.TrimSpace(cell) != "" {
						empty = false
					}
				}
			}
			if empty {
				continue
			}

			markdown := FormatTableMarkdown(headers, rows)
			if markdown == "" {
				continue
			}

			all = append(all, Table{
				PageNumber:     i,
				TableIndex:     tableIdx,
				Headers:        headers,
				Rows:           rows,
				MarkdownText:   markdown,
				ContextHeading: contextHeading,
				IsWageTable:    DetectWageTable(headers, rows),
			})
			tableIdx++
		}
	}
	return all
}

// detectPageGrids reconstructs table grids from positioned text: words are
// grouped into rows by Y proximity; rows whose words align on shared column
// X positions across 2+ consecutive rows form a grid. A page with no
// multi-column alignment yields nothing.
func detectPageGrids(page pdf.Page) [][][]string {
	content := page.Content()
	if len(content.Text) == 0 {
		return nil
	}

	// Group text elements into rows by Y, keeping stream order within a row.
	var rows []*gridRow
	var cur *gridRow
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		if cur == nil || math.Abs(t.Y-cur.y) > pageLineTolerance {
			cur = &gridRow{y: t.Y}
			rows = append(rows, cur)
		}
		// Merge with the previous word when horizontally adjacent.
		if n := len(cur.words); n > 0 && t.X-cur.words[n-1].x < wordSpan(cur.words[n-1].text)+2 {
			cur.words[n-1].text += t.S
		} else {
			cur.words = append(cur.words, gridWord{x: t.X, text: t.S})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	// A candidate table row has 2+ column-separated cells.
	const minCols = 2
	var grids [][][]string
	var current [][]string
	var currentXs []float64

	flush := func() {
		if len(current) >= 2 {
			grids = append(grids, current)
		}
		current = nil
		currentXs = nil
	}

	for _, r := range rows {
		if len(r.words) < minCols {
			flush()
			continue
		}
		xs := make([]float64, len(r.words))
		cells := make([]string, len(r.words))
		for i, w := range r.words {
			xs[i] = w.x
			cells[i] = strings.TrimSpace(w.text)
		}
		if currentXs != nil && !columnsAlign(currentXs, xs) {
			flush()
		}
		if currentXs == nil {
			currentXs = xs
		}
		current = append(current, cells)
	}
	flush()

	return grids
}

// gridWord is a horizontally merged run of text at one X position.
type gridWord struct {
	x    float64
	text string
}

// gridRow is one visual line of positioned words.
type gridRow struct {
	y     float64
	words []gridWord
}

// wordSpan approximates a word's horizontal extent, assuming roughly
// 5 units per character. Used only for adjacency merging.
func wordSpan(text string) float64 {
	return float64(len(text)) * 5
}

// columnsAlign reports whether two rows share a compatible column layout:
// same cell count and each X within tolerance.
func columnsAlign(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	const tolerance = 12.0
	for i := range a {
		if math.Abs(a[i]-b[i]) > tolerance {
			return false
		}
	}
	return true
}
