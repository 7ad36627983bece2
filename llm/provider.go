// Package llm holds the HTTP clients for the external models: the
// Anthropic chat API used for answer synthesis, an OpenAI-compatible
// embedding endpoint, and an optional cross-encoder rerank endpoint.
package llm

import (
	"context"
	"errors"
)

// ChatProvider sends chat completion requests to the answer model.
type ChatProvider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// EmbeddingProvider generates dense embeddings for a batch of texts.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Reranker scores (query, passage) pairs with a cross-encoder.
// Scores are returned in input order, higher is more relevant.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]float64, error)
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the response from a chat completion.
type ChatResponse struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	StopReason       string `json:"stop_reason"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Config configures one model endpoint.
type Config struct {
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

var (
	// ErrAuth marks an authentication failure (bad or missing API key).
	ErrAuth = errors.New("llm: authentication failed")

	// ErrRateLimit marks a rate-limit rejection (HTTP 429).
	ErrRateLimit = errors.New("llm: rate limited")

	// ErrUnavailable marks a transport-level failure or a backend that is
	// not configured.
	ErrUnavailable = errors.New("llm: backend unavailable")
)
