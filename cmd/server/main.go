package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/casearch"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	addr := flag.String("addr", ":8080", "Listen address")
	logFile := flag.String("log-file", "", "Optional rotating log file path")
	watch := flag.Bool("watch", false, "Watch the agreements directory and rescan on change")
	flag.Parse()

	// Structured JSON logging, optionally duplicated to a rotating file.
	var logOut io.Writer = os.Stdout
	if *logFile != "" {
		logOut = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		})
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := casearch.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			slog.Error("reading config", "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
	}

	// Environment overrides.
	if v := os.Getenv("CASEARCH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CASEARCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
		if cfg.AgreementsDir == filepath.Join("data", "agreements") {
			cfg.AgreementsDir = filepath.Join(v, "agreements")
		}
	}
	if v := os.Getenv("CASEARCH_AGREEMENTS_DIR"); v != "" {
		cfg.AgreementsDir = v
	}
	if v := os.Getenv("CLAUDE_MODEL"); v != "" {
		cfg.ClaudeModel = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := os.Getenv("CASEARCH_EMBED_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("CASEARCH_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("CASEARCH_RERANK_BASE_URL"); v != "" {
		cfg.Reranker.BaseURL = v
	}
	if v := os.Getenv("CASEARCH_RERANK_MODEL"); v != "" {
		cfg.Reranker.Model = v
	}

	apiKey := os.Getenv("CASEARCH_API_KEY")

	engine, err := casearch.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if *watch {
		go func() {
			if err := engine.Watch(watchCtx); err != nil && !strings.Contains(err.Error(), "context canceled") {
				slog.Error("watcher stopped", "error", err)
			}
		}()
	}

	h := newHandler(engine)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /scan", h.handleScan)
	mux.HandleFunc("POST /index/{id}", h.handleIndexFile)
	mux.HandleFunc("POST /reindex", h.handleReindexAll)
	mux.HandleFunc("GET /search", h.handleSearch)
	mux.HandleFunc("POST /qa", h.handleQA)
	mux.HandleFunc("POST /compare", h.handleCompare)
	mux.HandleFunc("GET /documents", h.handleListDocuments)
	mux.HandleFunc("POST /documents/{id}/toggle-public", h.handleTogglePublic)
	mux.HandleFunc("GET /synonyms", h.handleListSynonyms)
	mux.HandleFunc("POST /synonyms", h.handleSaveSynonyms)
	mux.HandleFunc("DELETE /synonyms/{term}", h.handleDeleteSynonym)
	mux.HandleFunc("POST /rebuild-fts", h.handleRebuildFTS)
	mux.HandleFunc("POST /rebuild-vector", h.handleRebuildVector)
	mux.HandleFunc("GET /diagnostics", h.handleDiagnostics)
	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // reindex and rebuild can be long
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")
	cancelWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
