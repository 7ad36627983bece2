// Package chunker builds semantic chunks from structured pages: chunks
// break at Article/Section boundaries with a word-aligned overlap carried
// from the previous chunk, falling back to one chunk per page for
// unstructured documents. Tables get dedicated chunks.
package chunker

import (
	"sort"
	"strings"

	"github.com/brunobiangulo/casearch/extract"
)

// Config controls the chunking behaviour.
type Config struct {
	MaxSize     int // force a flush when accumulated text reaches this many chars
	MinSize     int // minimum accumulated chars before a heading starts a new chunk
	OverlapSize int // chars of word-aligned overlap carried from the previous chunk
}

// Chunk is one store-ready semantic unit.
type Chunk struct {
	ChunkNumber   int
	Text          string
	Heading       string
	ParentHeading string
	SectionNumber string
	PageStart     int
	PageEnd       int
	Headings      []string
	ChunkType     string // "text" or "table"
}

// Chunker converts structured pages and tables into ordered chunks.
type Chunker struct {
	cfg Config
}

// New returns a Chunker; zero-value fields get the standard defaults.
func New(cfg Config) *Chunker {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 2000
	}
	if cfg.MinSize == 0 {
		cfg.MinSize = 200
	}
	if cfg.OverlapSize == 0 {
		cfg.OverlapSize = 200
	}
	return &Chunker{cfg: cfg}
}

// Chunk produces text chunks from the pages, then one chunk per table.
// Table chunks are exempt from size splitting and carry no overlap.
func (c *Chunker) Chunk(pages []extract.StructuredPage, tables []extract.Table) []Chunk {
	chunks := c.textChunks(pages)
	chunks = append(chunks, c.tableChunks(tables, chunks)...)
	for i := range chunks {
		chunks[i].ChunkNumber = i + 1
	}
	return chunks
}

// textChunks walks the pages line by line, flushing at level 1-2 heading
// boundaries (when enough text accumulated) and at the max size.
func (c *Chunker) textChunks(pages []extract.StructuredPage) []Chunk {
	hasHeadings := false
	for _, p := range pages {
		if len(p.Headings) > 0 {
			hasHeadings = true
			break
		}
	}

	var chunks []Chunk
	var previousText string

	// No structure anywhere: one chunk per page, each prefixed with
	// overlap from the previous chunk.
	if !hasHeadings {
		for _, page := range pages {
			chunks = append(chunks, Chunk{
				Text:      withOverlap(previousText, page.Text, c.cfg.OverlapSize),
				PageStart: page.PageNumber,
				PageEnd:   page.PageNumber,
				ChunkType: "text",
			})
			previousText = page.Text
		}
		return chunks
	}

	var (
		currentLines    []string
		currentHeading  string
		currentParent   string
		currentSection  string
		currentHeadings []string
		pageStart       = 1
	)

	flush := func(pageEnd int) {
		text := strings.TrimSpace(strings.Join(currentLines, "\n"))
		if text == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Text:          withOverlap(previousText, text, c.cfg.OverlapSize),
			Heading:       currentHeading,
			ParentHeading: currentParent,
			SectionNumber: currentSection,
			PageStart:     pageStart,
			PageEnd:       pageEnd,
			Headings:      append([]string(nil), currentHeadings...),
			ChunkType:     "text",
		})
		previousText = text
		currentLines = nil
		currentHeadings = nil
	}

	for _, page := range pages {
		headingByLine := make(map[int]extract.Heading, len(page.Headings))
		for _, h := range page.Headings {
			headingByLine[h.LineNumber] = h
		}

		for lineIdx, line := range strings.Split(page.Text, "\n") {
			h, isHeading := headingByLine[lineIdx+1]

			if isHeading && h.Level <= 2 {
				if len(strings.TrimSpace(strings.Join(currentLines, "\n"))) >= c.cfg.MinSize {
					flush(page.PageNumber)
					pageStart = page.PageNumber
				}

				// Level 1 resets the parent; level 2 nests under the
				// previous current heading.
				if h.Level == 1 {
					currentParent = ""
				} else if currentHeading != "" {
					currentParent = currentHeading
				}
				currentHeading = h.Text
				currentSection = extract.ExtractSectionNumber(h.Text)
				currentHeadings = append(currentHeadings, h.Text)
			}

			currentLines = append(currentLines, line)

			if len(strings.Join(currentLines, "\n")) >= c.cfg.MaxSize {
				flush(page.PageNumber)
				pageStart = page.PageNumber
			}
		}
	}

	if len(pages) > 0 {
		flush(pages[len(pages)-1].PageNumber)
	}

	return chunks
}

// tableChunks emits one chunk per table after the text chunks are complete.
// A table without its own context heading borrows the nearest heading from
// a text chunk whose page range contains the table's page.
func (c *Chunker) tableChunks(tables []extract.Table, textChunks []Chunk) []Chunk {
	if len(tables) == 0 {
		return nil
	}

	sorted := append([]extract.Table(nil), tables...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PageNumber != sorted[j].PageNumber {
			return sorted[i].PageNumber < sorted[j].PageNumber
		}
		return sorted[i].TableIndex < sorted[j].TableIndex
	})

	var chunks []Chunk
	for _, table := range sorted {
		heading := table.ContextHeading
		if heading == "" {
			for i := len(textChunks) - 1; i >= 0; i-- {
				tc := textChunks[i]
				if tc.PageStart <= table.PageNumber && table.PageNumber <= tc.PageEnd && tc.Heading != "" {
					heading = tc.Heading
					break
				}
			}
		}

		var headings []string
		if heading != "" {
			headings = []string{heading}
		}

		chunks = append(chunks, Chunk{
			Text:      table.MarkdownText,
			Heading:   heading,
			PageStart: table.PageNumber,
			PageEnd:   table.PageNumber,
			Headings:  headings,
			ChunkType: "table",
		})
	}
	return chunks
}

// withOverlap prefixes text with the word-aligned tail of the previous
// chunk, joined by a blank line.
func withOverlap(previous, text string, overlapSize int) string {
	if previous == "" {
		return text
	}
	overlap := overlapText(previous, overlapSize)
	if overlap == "" {
		return text
	}
	return strings.TrimSpace(overlap + "\n\n" + text)
}

// overlapText returns up to overlapSize trailing characters of text,
// trimmed forward to the first word boundary so no word is split.
func overlapText(text string, overlapSize int) string {
	if len(text) <= overlapSize {
		return text
	}
	overlap := text[len(text)-overlapSize:]
	if idx := strings.Index(overlap, " "); idx > 0 {
		overlap = overlap[idx+1:]
	}
	return strings.TrimSpace(overlap)
}
