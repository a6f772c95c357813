package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/contextcraft/docpipe/internal/core"
	"github.com/contextcraft/docpipe/internal/core/ingestion_engine"
)

// DocumentProcessor is the pipeline surface the handler needs.
type DocumentProcessor interface {
	Process(ctx context.Context, req ingestion_engine.ProcessRequest) (*ingestion_engine.ProcessResult, error)
}

type ProcessHandler struct {
	pipeline DocumentProcessor
}

func NewProcessHandler(pipeline DocumentProcessor) *ProcessHandler {
	return &ProcessHandler{pipeline: pipeline}
}

// ProcessDocument is the single RPC-style entry point: it blocks until
// extraction, chunking, all embeddings and all chunk writes complete, then
// returns the run summary.
func (h *ProcessHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestion_engine.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "documentId is required")
		return
	}

	result, err := h.pipeline.Process(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, core.ErrEmptyContent):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			// Logged with full detail; the response stays generic.
			log.Printf("processing document %s: %v", req.DocumentID, err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ingestion_engine.ProcessResult{Success: false, Error: msg})
}
