package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/brunobiangulo/casearch"
	"github.com/brunobiangulo/casearch/search"
)

type handler struct {
	engine *casearch.Engine
}

func newHandler(e *casearch.Engine) *handler {
	return &handler{engine: e}
}

// POST /scan
func (h *handler) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	writeJSON(w, http.StatusOK, h.engine.Scan(ctx))
}

// POST /index/{id}
func (h *handler) handleIndexFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	var req struct {
		UseStructure    *bool `json:"use_structure,omitempty"`
		BuildEmbeddings bool  `json:"build_embeddings,omitempty"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	opts := casearch.IndexOptions{UseStructure: true, BuildEmbeddings: req.BuildEmbeddings}
	if req.UseStructure != nil {
		opts.UseStructure = *req.UseStructure
	}

	result, err := h.engine.IndexFile(ctx, id, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, casearch.ErrFileNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		slog.Error("index error", "file_id", id, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /reindex
func (h *handler) handleReindexAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
	defer cancel()

	var req struct {
		BuildEmbeddings bool `json:"build_embeddings,omitempty"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	result, err := h.engine.ReindexAll(ctx, casearch.IndexOptions{
		UseStructure:    true,
		BuildEmbeddings: req.BuildEmbeddings,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reindex failed")
		slog.Error("reindex error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /search?q=...&limit=...&mode=...&file_id=...
func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	opts := search.Options{Mode: r.URL.Query().Get("mode"), FallbackToOR: true}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("file_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			opts.FileID = id
		}
	}

	results := h.engine.Search(r.Context(), q, opts)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"results": results,
	})
}

// POST /qa
func (h *handler) handleQA(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	writeJSON(w, http.StatusOK, h.engine.Answer(ctx, req.Question))
}

// POST /compare
func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileIDs []int64 `json:"file_ids"`
		Topic   string  `json:"topic,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.FileIDs) < 2 {
		writeError(w, http.StatusBadRequest, "at least two file_ids are required")
		return
	}

	result, err := h.engine.CompareDocumentsMulti(r.Context(), req.FileIDs, req.Topic)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "compare failed")
		slog.Error("compare error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /documents
func (h *handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	files, err := h.engine.Store().ListFiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		slog.Error("list documents error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": files})
}

// POST /documents/{id}/toggle-public
func (h *handler) handleTogglePublic(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	public, err := h.engine.TogglePublic(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, casearch.ErrFileNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"file_id": id, "public_read": public})
}

// GET /synonyms
func (h *handler) handleListSynonyms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Synonyms().All(r.Context()))
}

// POST /synonyms
func (h *handler) handleSaveSynonyms(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Synonyms map[string][]string `json:"synonyms"`
		Replace  bool                `json:"replace,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	count, err := h.engine.Synonyms().SaveCustom(r.Context(), req.Synonyms, req.Replace)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "saving synonyms failed")
		slog.Error("save synonyms error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"saved": count})
}

// DELETE /synonyms/{term}
func (h *handler) handleDeleteSynonym(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.engine.Synonyms().DeleteCustom(r.Context(), r.PathValue("term"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "deleting synonym failed")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "synonym not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /rebuild-fts
func (h *handler) handleRebuildFTS(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	pages, chunks, err := h.engine.RebuildFTS(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rebuild failed")
		slog.Error("rebuild fts error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"pages_indexed":  pages,
		"chunks_indexed": chunks,
	})
}

// POST /rebuild-vector
func (h *handler) handleRebuildVector(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
	defer cancel()

	result := h.engine.RebuildVectorIndex(ctx, func(current, total int, message string) {
		slog.Info("vector rebuild progress", "current", current, "total", total, "message", message)
	})

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

// GET /diagnostics
func (h *handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Store().Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}

	outOfSync, err := h.engine.Store().FTSSyncStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sync status failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats":           stats,
		"fts_in_sync":     len(outOfSync) == 0,
		"fts_out_of_sync": outOfSync,
	})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
