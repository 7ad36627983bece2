package chunker

import (
	"strings"
	"testing"

	"github.com/brunobiangulo/casearch/extract"
)

func structuredPage(pageNum int, text string) extract.StructuredPage {
	sp := extract.StructuredPage{PageNumber: pageNum, Text: text, RawText: text}
	for i, line := range strings.Split(text, "\n") {
		if h := extract.DetectHeading(line, i+1, pageNum); h != nil {
			sp.Headings = append(sp.Headings, *h)
		}
	}
	return sp
}

func TestNoHeadingsOneChunkPerPage(t *testing.T) {
	pages := []extract.StructuredPage{
		{PageNumber: 1, Text: "first page body text without any structure"},
		{PageNumber: 2, Text: "second page body text also unstructured"},
		{PageNumber: 3, Text: "third page body"},
	}

	chunks := New(Config{}).Chunk(pages, nil)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.PageStart != i+1 || c.PageEnd != i+1 {
			t.Errorf("chunk %d: page range %d-%d, want %d-%d", i, c.PageStart, c.PageEnd, i+1, i+1)
		}
		if c.ChunkNumber != i+1 {
			t.Errorf("chunk %d: chunk number %d", i, c.ChunkNumber)
		}
	}

	// Second chunk carries an overlap prefix from the first page.
	if !strings.HasPrefix(chunks[1].Text, "first page body text without any structure") {
		t.Errorf("chunk 2 missing overlap prefix: %q", chunks[1].Text)
	}
	if !strings.Contains(chunks[1].Text, "second page body") {
		t.Errorf("chunk 2 missing its own text: %q", chunks[1].Text)
	}
}

func TestHeadingBoundariesAndContext(t *testing.T) {
	body := strings.Repeat("The parties agree to the terms herein described. ", 6)
	page1 := "ARTICLE 1 - RECOGNITION\n" + body + "\n7.01 Overtime\n" + body
	pages := []extract.StructuredPage{structuredPage(1, page1)}

	chunks := New(Config{}).Chunk(pages, nil)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	first := chunks[0]
	if first.Heading != "ARTICLE 1 - RECOGNITION" {
		t.Errorf("first chunk heading: %q", first.Heading)
	}
	if first.SectionNumber != "1" {
		t.Errorf("first chunk section: %q", first.SectionNumber)
	}

	second := chunks[1]
	if second.Heading != "7.01 Overtime" {
		t.Errorf("second chunk heading: %q", second.Heading)
	}
	if second.ParentHeading != "ARTICLE 1 - RECOGNITION" {
		t.Errorf("second chunk parent: %q", second.ParentHeading)
	}
	if second.SectionNumber != "7.01" {
		t.Errorf("second chunk section: %q", second.SectionNumber)
	}
}

func TestLevelOneResetsParent(t *testing.T) {
	body := strings.Repeat("Text of the clause follows in detail here. ", 6)
	text := "ARTICLE 1 - RECOGNITION\n" + body +
		"\n7.01 Overtime\n" + body +
		"\nARTICLE 2 - MANAGEMENT RIGHTS\n" + body
	pages := []extract.StructuredPage{structuredPage(1, text)}

	chunks := New(Config{}).Chunk(pages, nil)

	last := chunks[len(chunks)-1]
	if last.Heading != "ARTICLE 2 - MANAGEMENT RIGHTS" {
		t.Fatalf("last chunk heading: %q", last.Heading)
	}
	if last.ParentHeading != "" {
		t.Errorf("level-1 heading must reset parent, got %q", last.ParentHeading)
	}
}

func TestMaxSizeForcesFlush(t *testing.T) {
	// One long unbroken stream of lines under a single heading.
	var lines []string
	lines = append(lines, "ARTICLE 1 - RECOGNITION")
	for i := 0; i < 60; i++ {
		lines = append(lines, strings.Repeat("clause text ", 5))
	}
	pages := []extract.StructuredPage{structuredPage(1, strings.Join(lines, "\n"))}

	chunks := New(Config{MaxSize: 2000, MinSize: 200, OverlapSize: 200}).Chunk(pages, nil)
	if len(chunks) < 2 {
		t.Fatalf("expected size-forced split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		// MaxSize, the final line, and the overlap prefix bound each chunk.
		if len(c.Text) > 2000+200+100 {
			t.Errorf("chunk %d exceeds budget: %d chars", i, len(c.Text))
		}
	}
}

func TestOverlapIsWordAligned(t *testing.T) {
	prev := strings.Repeat("alpha beta gamma delta ", 20)
	overlap := overlapText(prev, 200)
	if len(overlap) > 200 {
		t.Fatalf("overlap too long: %d", len(overlap))
	}
	for _, word := range strings.Fields(overlap) {
		switch word {
		case "alpha", "beta", "gamma", "delta":
		default:
			t.Fatalf("overlap split a word: %q in %q", word, overlap)
		}
	}
}

func TestOverlapShortTextReturnedWhole(t *testing.T) {
	if got := overlapText("short tail", 200); got != "short tail" {
		t.Errorf("got %q", got)
	}
}

func TestTableChunks(t *testing.T) {
	body := strings.Repeat("Wage provisions are described in the attached schedule. ", 6)
	pages := []extract.StructuredPage{structuredPage(1, "ARTICLE 22 - WAGES\n"+body)}
	tables := []extract.Table{
		{
			PageNumber:   1,
			TableIndex:   0,
			Headers:      []string{"Class", "Rate"},
			Rows:         [][]string{{"Labourer", "$28.50"}},
			MarkdownText: "| Class | Rate |\n| --- | --- |\n| Labourer | $28.50 |",
			IsWageTable:  true,
		},
	}

	chunks := New(Config{}).Chunk(pages, tables)

	var tableChunk *Chunk
	for i := range chunks {
		if chunks[i].ChunkType == "table" {
			tableChunk = &chunks[i]
		}
	}
	if tableChunk == nil {
		t.Fatal("expected a table chunk")
	}
	if tableChunk.Text != tables[0].MarkdownText {
		t.Errorf("table chunk text: %q", tableChunk.Text)
	}
	// No context heading on the table: nearest text-chunk heading applies.
	if tableChunk.Heading != "ARTICLE 22 - WAGES" {
		t.Errorf("table chunk heading: %q", tableChunk.Heading)
	}
	if strings.Contains(tableChunk.Text, "\n\nARTICLE") {
		t.Error("table chunks must not carry overlap")
	}
}

func TestTableChunkKeepsOwnContextHeading(t *testing.T) {
	pages := []extract.StructuredPage{{PageNumber: 1, Text: "body"}}
	tables := []extract.Table{{
		PageNumber:     1,
		MarkdownText:   "| A |\n| --- |\n| 1 |",
		ContextHeading: "SCHEDULE A",
	}}

	chunks := New(Config{}).Chunk(pages, tables)
	last := chunks[len(chunks)-1]
	if last.Heading != "SCHEDULE A" {
		t.Errorf("heading: %q", last.Heading)
	}
}

func TestTextCoverage(t *testing.T) {
	body1 := strings.Repeat("Recognition clause content sentence here. ", 8)
	body2 := strings.Repeat("Overtime clause content sentence here. ", 8)
	text := "ARTICLE 1 - RECOGNITION\n" + body1 + "\nARTICLE 2 - HOURS\n" + body2
	pages := []extract.StructuredPage{structuredPage(1, text)}

	chunks := New(Config{}).Chunk(pages, nil)

	var all strings.Builder
	for _, c := range chunks {
		if c.ChunkType == "text" {
			all.WriteString(c.Text)
			all.WriteString("\n")
		}
	}
	joined := all.String()
	for _, line := range strings.Split(text, "\n") {
		prefix := strings.TrimSpace(line)
		if len(prefix) > 20 {
			prefix = prefix[:20]
		}
		if prefix == "" {
			continue
		}
		if !strings.Contains(joined, prefix) {
			t.Errorf("line not covered by any chunk: %q", line)
		}
	}
}
