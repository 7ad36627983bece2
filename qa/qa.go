package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brunobiangulo/casearch/llm"
	"github.com/brunobiangulo/casearch/retrieval"
	"github.com/brunobiangulo/casearch/search"
	"github.com/brunobiangulo/casearch/store"
)

// Response is the full result of answering a question.
type Response struct {
	Answer               string         `json:"answer"`
	Citations            []Citation     `json:"citations"`
	NoEvidence           bool           `json:"no_evidence"`
	RetrievalMethod      string         `json:"retrieval_method,omitempty"`
	SynonymsUsed         map[string][]string `json:"synonyms_used,omitempty"`
	Diagnostics          map[string]any `json:"diagnostics,omitempty"`
	VerificationWarnings []string       `json:"verification_warnings,omitempty"`
}

// Config holds QA engine tuning.
type Config struct {
	Model               string
	MaxContextBudget    int
	MaxContextPerSource int
	MaxRetrievalResults int
}

// Engine runs the answer pipeline.
type Engine struct {
	store     *store.Store
	lexical   *search.Engine
	retriever *retrieval.Orchestrator
	synonyms  synonymLookup
	chat      llm.ChatProvider
	cfg       Config
}

// synonymLookup is the slice of the synonym service the QA engine needs.
type synonymLookup interface {
	Synonyms(ctx context.Context, term string) []string
}

// New creates a QA engine. chat may be nil when no API key is configured.
func New(s *store.Store, lexical *search.Engine, retriever *retrieval.Orchestrator, syn synonymLookup, chat llm.ChatProvider, cfg Config) *Engine {
	if cfg.MaxContextBudget == 0 {
		cfg.MaxContextBudget = 200000
	}
	if cfg.MaxContextPerSource == 0 {
		cfg.MaxContextPerSource = 8000
	}
	if cfg.MaxRetrievalResults == 0 {
		cfg.MaxRetrievalResults = 10
	}
	return &Engine{
		store:     s,
		lexical:   lexical,
		retriever: retriever,
		synonyms:  syn,
		chat:      chat,
		cfg:       cfg,
	}
}

const notFoundAnswer = "Not found in the documents provided. No relevant content was found in the indexed collective agreements. Make sure documents are indexed and try rephrasing your question."

// Answer runs the full RAG pipeline for one question.
func (e *Engine) Answer(ctx context.Context, question string) Response {
	classification := Classify(question)

	if e.chat == nil {
		return Response{
			Answer:     "API key not configured. Please set the Anthropic API key in your configuration.",
			Citations:  []Citation{},
			NoEvidence: true,
		}
	}

	results, method, contextHits := e.retriever.Retrieve(ctx, question)

	diagnostics := map[string]any{
		"method":               method,
		"results_count":        len(results),
		"chunk_results_count":  len(contextHits),
		"query_classification": classification,
	}
	slog.Info("qa: retrieval complete",
		"method", method, "results", len(results), "context_hits", len(contextHits))

	if len(results) == 0 {
		return Response{
			Answer:          notFoundAnswer,
			Citations:       []Citation{},
			NoEvidence:      true,
			RetrievalMethod: method,
			Diagnostics:     diagnostics,
		}
	}

	packed := e.packContext(ctx, question, results, contextHits)
	if len(packed.parts) == 0 {
		return Response{
			Answer:          "Not found in the documents provided. Could not retrieve page content.",
			Citations:       []Citation{},
			NoEvidence:      true,
			RetrievalMethod: method,
			Diagnostics:     diagnostics,
		}
	}
	if packed.truncated {
		diagnostics["context_truncated"] = true
		diagnostics["sources_used"] = packed.sourcesUsed
		diagnostics["sources_available"] = len(results)
	}

	userMessage := e.buildUserMessage(question, method, packed)

	resp, err := e.chat.Chat(ctx, llm.ChatRequest{
		Model:     e.cfg.Model,
		System:    adaptiveSystemPrompt(classification),
		MaxTokens: 4096,
		Messages: []llm.Message{
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return errorResponse(err, method, diagnostics)
	}

	answerText := resp.Content

	// no_evidence only when the response is primarily a "not found"
	// message and carries no citations.
	answerLower := strings.ToLower(strings.TrimSpace(answerText))
	hasCitations := anyCitationRe.MatchString(answerLower)
	startsNotFound := false
	for _, phrase := range noEvidencePhrases {
		if strings.HasPrefix(answerLower, phrase) {
			startsNotFound = true
			break
		}
	}
	shortNotFound := len(answerText) < 200 && containsAny(answerLower, noEvidencePhrases)
	noEvidence := (startsNotFound || shortNotFound) && !hasCitations

	citations := e.citedSources(answerText, packed.citations, noEvidence)

	// Format validation is diagnostic only; the answer is returned unchanged.
	validation := ValidateResponse(answerText, packed.headingDetected)
	if !validation.Valid {
		diagnostics["format_issues"] = validation.Issues
	}

	var synonymsUsed map[string][]string
	if strings.Contains(method, "synonym") {
		synonymsUsed = make(map[string][]string)
		for _, word := range strings.Fields(strings.ToLower(question)) {
			syns := e.synonyms.Synonyms(ctx, word)
			if len(syns) > 1 {
				var others []string
				for _, s := range syns {
					if s != word {
						others = append(others, s)
					}
				}
				if len(others) > 0 {
					synonymsUsed[word] = others
				}
			}
		}
	}

	var warnings []string
	if !noEvidence {
		warnings = VerifyContent(answerText, packed.parts)
		if len(warnings) > 0 {
			slog.Warn("qa: content verification warnings", "warnings", warnings)
		}
	}

	if noEvidence {
		citations = []Citation{}
	}

	return Response{
		Answer:               answerText,
		Citations:            citations,
		NoEvidence:           noEvidence,
		RetrievalMethod:      method,
		SynonymsUsed:         synonymsUsed,
		Diagnostics:          diagnostics,
		VerificationWarnings: warnings,
	}
}

// buildUserMessage assembles the excerpts, heading instruction, format
// requirements, and retrieval-transparency trailer.
func (e *Engine) buildUserMessage(question, method string, packed packedContext) string {
	contextBlock := strings.Join(packed.parts, "\n---\n")

	var headingInstruction, headingFormat string
	if packed.headingDetected && packed.detectedHeading != "" {
		headingInstruction = fmt.Sprintf(`
HEADING DETECTED: %q
You MUST start your response with this heading in bold: **%s**
`, packed.detectedHeading, packed.detectedHeading)
		headingFormat = "Start with bold heading: **" + packed.detectedHeading + "**"
	} else {
		headingInstruction = "\nNo heading detected. Start directly with bullet points.\n"
		headingFormat = "Start directly with bullet points"
	}

	headingNote := "Heading match detected: No"
	if packed.headingDetected {
		headingNote = "Heading match detected: Yes"
	}
	retrievalNote := fmt.Sprintf("\n[Retrieval method: %s, %s]",
		strings.ReplaceAll(strings.ToUpper(method), "_", "-"), headingNote)

	return fmt.Sprintf(`Here are excerpts from collective agreement documents:

%s

---

Question: %s
%s
FORMAT REQUIREMENTS (follow exactly):
1. %s
2. Use bullet character for all points
3. Each bullet MUST have [Source X] citation at the end
4. Maximum 6 bullets
5. End with "Sources:" section listing document names and page numbers

Answer based ONLY on the excerpts above. If the answer is not in the excerpts, say "Not found in the documents provided."
%s
`, contextBlock, question, headingInstruction, headingFormat, retrievalNote)
}

// citedSources keeps the provisional citations the answer actually
// references; an uncited but evidenced answer keeps the top three.
func (e *Engine) citedSources(answerText string, citations []Citation, noEvidence bool) []Citation {
	answerLower := strings.ToLower(answerText)

	var cited []Citation
	for i, citation := range citations {
		patterns := []string{
			fmt.Sprintf("[source %d]", i+1),
			fmt.Sprintf("source %d", i+1),
		}
		mentioned := false
		for _, p := range patterns {
			if strings.Contains(answerLower, p) {
				mentioned = true
				break
			}
		}
		if !mentioned {
			filenameMentioned := strings.Contains(answerLower, strings.ToLower(citation.Filename))
			pageMentioned := strings.Contains(answerLower, fmt.Sprintf("page %d", citation.PageNumber))
			mentioned = filenameMentioned && pageMentioned
		}
		if mentioned {
			cited = append(cited, citation)
		}
	}

	if len(cited) == 0 && !noEvidence {
		if len(citations) > 3 {
			citations = citations[:3]
		}
		cited = citations
	}
	return cited
}

// errorResponse maps LLM errors onto user-facing responses per kind.
func errorResponse(err error, method string, diagnostics map[string]any) Response {
	var answer string
	switch {
	case errors.Is(err, llm.ErrAuth):
		answer = "Authentication failed. Please check your Anthropic API key."
	case errors.Is(err, llm.ErrRateLimit):
		answer = "Rate limit exceeded. Please try again in a moment."
	default:
		answer = fmt.Sprintf("An error occurred while processing your question: %v", err)
	}
	return Response{
		Answer:          answer,
		Citations:       []Citation{},
		NoEvidence:      true,
		RetrievalMethod: method,
		Diagnostics:     diagnostics,
	}
}
