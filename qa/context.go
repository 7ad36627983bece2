package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/brunobiangulo/casearch/retrieval"
	"github.com/brunobiangulo/casearch/search"
)

// Citation maps one packed source to its origin for the response.
type Citation struct {
	FileID     int64  `json:"file_id"`
	FilePath   string `json:"file_path"`
	Filename   string `json:"filename"`
	PageNumber int    `json:"page_number"`
	CitedText  string `json:"cited_text"`
}

// packedContext is the outcome of budget-limited context assembly.
type packedContext struct {
	parts           []string
	citations       []Citation
	headingDetected bool
	detectedHeading string
	truncated       bool
	sourcesUsed     int
}

// truncateAtSentence cuts text at the nearest sentence boundary before
// maxChars; when none exists within the last 200 chars it falls back to
// the last word boundary at >= 80% of the cap.
func truncateAtSentence(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	truncated := text[:maxChars]
	floor := len(truncated) - 200
	if floor < 0 {
		floor = 0
	}
	for i := len(truncated) - 1; i > floor; i-- {
		c := truncated[i]
		if c == '.' || c == '!' || c == '?' || c == '\n' {
			if i+1 >= len(truncated) || truncated[i+1] == ' ' || truncated[i+1] == '\n' || truncated[i+1] == '\t' {
				return truncated[:i+1]
			}
		}
	}

	if lastSpace := strings.LastIndexByte(truncated, ' '); lastSpace > maxChars*8/10 {
		return truncated[:lastSpace]
	}
	return truncated
}

// packContext assembles [Source i] blocks from fused hits in rank order,
// preferring chunk/semantic raw data (heading metadata, full chunk text)
// over plain page text, within the total and per-source budgets.
func (e *Engine) packContext(ctx context.Context, question string, results []search.Result, contextHits []retrieval.ContextHit) packedContext {
	var packed packedContext

	// Heading from chunk hits first (more reliable).
	for _, hit := range contextHits {
		if hit.Heading != "" {
			packed.headingDetected = true
			packed.detectedHeading = hit.Heading
			break
		}
	}

	// Fallback: heading-match probe on the top page hit.
	if !packed.headingDetected && len(results) > 0 {
		top := results[0]
		if match, heading := e.lexical.PageHasHeadingMatch(ctx, top.FileID, top.PageNumber, question); match {
			packed.headingDetected = true
			packed.detectedHeading = heading
		}
	}

	// Context metadata by (file, page) for lookup during packing.
	type pageKey struct {
		fileID int64
		page   int
	}
	contextMap := make(map[pageKey]retrieval.ContextHit)
	for _, hit := range contextHits {
		key := pageKey{hit.FileID, hit.PageStart}
		if _, ok := contextMap[key]; !ok {
			contextMap[key] = hit
		}
	}

	totalChars := 0
	for i, result := range results {
		if totalChars >= e.cfg.MaxContextBudget {
			packed.truncated = true
			break
		}

		sourceLimit := e.cfg.MaxContextPerSource
		if remaining := e.cfg.MaxContextBudget - totalChars; remaining < sourceLimit {
			sourceLimit = remaining
		}

		label := fmt.Sprintf("Source %d", i+1)
		hit, hasContext := contextMap[pageKey{result.FileID, result.PageNumber}]

		var part string
		var citedText string

		if hasContext {
			text := hit.Text
			if hit.ChunkID > 0 {
				if chunk, err := e.store.GetChunk(ctx, hit.ChunkID); err == nil && chunk != nil {
					text = chunk.Text
				}
			}
			text = truncateAtSentence(text, sourceLimit)
			citedText = text

			var headingInfo strings.Builder
			if hit.Heading != "" {
				if hit.ParentHeading != "" {
					fmt.Fprintf(&headingInfo, "\nPARENT: %s", hit.ParentHeading)
				}
				fmt.Fprintf(&headingInfo, "\nHEADING: %s", hit.Heading)
				if hit.SectionNumber != "" {
					fmt.Fprintf(&headingInfo, " (Section %s)", hit.SectionNumber)
				}
			}

			pageRange := fmt.Sprintf("Page %d", hit.PageStart)
			if hit.PageEnd > hit.PageStart {
				pageRange = fmt.Sprintf("Pages %d-%d", hit.PageStart, hit.PageEnd)
			}

			part = fmt.Sprintf("[%s] %s, %s:%s\n%s\n",
				label, result.Filename, pageRange, headingInfo.String(), text)
		} else {
			pageText, err := e.store.GetPageText(ctx, result.FileID, result.PageNumber)
			if err != nil || pageText == "" {
				continue
			}
			text := truncateAtSentence(pageText, sourceLimit)
			citedText = text

			if i == 0 && packed.detectedHeading != "" {
				part = fmt.Sprintf("[%s] %s, Page %d:\nHEADING: %s\n%s\n",
					label, result.Filename, result.PageNumber, packed.detectedHeading, text)
			} else {
				part = fmt.Sprintf("[%s] %s, Page %d:\n%s\n",
					label, result.Filename, result.PageNumber, text)
			}
		}

		// The label and heading lines count against the budget too; a
		// block that would overflow it is dropped whole.
		if totalChars+len(part) > e.cfg.MaxContextBudget && len(packed.parts) > 0 {
			packed.truncated = true
			break
		}

		packed.parts = append(packed.parts, part)
		totalChars += len(part)

		if len(citedText) > 200 {
			citedText = citedText[:200]
		}
		packed.citations = append(packed.citations, Citation{
			FileID:     result.FileID,
			FilePath:   result.FilePath,
			Filename:   result.Filename,
			PageNumber: result.PageNumber,
			CitedText:  citedText,
		})
	}

	packed.sourcesUsed = len(packed.parts)
	return packed
}
