package casearch

import "path/filepath"

// Config holds all configuration for the search engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to <DataDir>/app.db.
	DBPath string `json:"db_path" yaml:"db_path"`

	// DataDir is the root data directory holding the database, the vector
	// collection, index_version.txt, and the pending_update staging area.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// AgreementsDir is the directory scanned for source PDFs.
	AgreementsDir string `json:"agreements_dir" yaml:"agreements_dir"`

	// External LLM (answer synthesis)
	ClaudeModel     string `json:"claude_model" yaml:"claude_model"`
	AnthropicAPIKey string `json:"anthropic_api_key" yaml:"anthropic_api_key"`

	// Embedding backend (OpenAI-compatible /v1/embeddings endpoint)
	Embedding LLMEndpoint `json:"embedding" yaml:"embedding"`

	// Reranker backend (cross-encoder /rerank endpoint; optional)
	Reranker LLMEndpoint `json:"reranker" yaml:"reranker"`

	// EmbeddingDim must match the embedding model output (768 for bge-base).
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`

	// Retrieval
	MaxRetrievalResults int       `json:"max_retrieval_results" yaml:"max_retrieval_results"`
	RRFK                int       `json:"rrf_k" yaml:"rrf_k"`
	RRFWeights          []float64 `json:"rrf_weights" yaml:"rrf_weights"` // [semantic, chunk, page, expanded]

	// Context packing
	MaxContextBudget    int `json:"max_context_budget" yaml:"max_context_budget"`
	MaxContextPerSource int `json:"max_context_per_source" yaml:"max_context_per_source"`

	// Chunking
	ChunkMaxSize     int `json:"chunk_max_size" yaml:"chunk_max_size"`
	ChunkMinSize     int `json:"chunk_min_size" yaml:"chunk_min_size"`
	ChunkOverlapSize int `json:"chunk_overlap_size" yaml:"chunk_overlap_size"`
}

// LLMEndpoint configures one HTTP model endpoint.
type LLMEndpoint struct {
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url" yaml:"base_url"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with the standard defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:       "data",
		AgreementsDir: filepath.Join("data", "agreements"),
		ClaudeModel:   "claude-sonnet-4-5-20250929",
		Embedding: LLMEndpoint{
			Model:   "BAAI/bge-base-en-v1.5",
			BaseURL: "http://localhost:8081",
		},
		Reranker: LLMEndpoint{
			Model: "cross-encoder/ms-marco-MiniLM-L-6-v2",
		},
		EmbeddingDim:        768,
		MaxRetrievalResults: 10,
		RRFK:                60,
		RRFWeights:          []float64{1.5, 1.2, 1.0, 0.8},
		MaxContextBudget:    200000,
		MaxContextPerSource: 8000,
		ChunkMaxSize:        2000,
		ChunkMinSize:        200,
		ChunkOverlapSize:    200,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	dir := c.DataDir
	if dir == "" {
		dir = "data"
	}
	return filepath.Join(dir, "app.db")
}
