package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/spacesedan/emotiflow/internal/analysis"
	"github.com/spacesedan/emotiflow/internal/models"
)

const MAX_BODY_BYTES = 1 << 20

const (
	ERR_NO_TEXT         = "No text provided"
	ERR_TEXT_TOO_LONG   = "Text too long"
	ERR_INVALID_BODY    = "Invalid request body"
	ERR_INTERNAL_SERVER = "Internal server error"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MAX_BODY_BYTES)

	var req models.AnalysisRequest
	// An empty body is treated like a missing text field.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.DebugContext(r.Context(), "[Server] Rejected malformed analyze request",
			slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, ERR_INVALID_BODY)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, analysis.ErrNoText):
		writeError(w, http.StatusBadRequest, ERR_NO_TEXT)
	case errors.Is(err, analysis.ErrTextTooLong):
		writeError(w, http.StatusBadRequest, ERR_TEXT_TOO_LONG)
	default:
		slog.ErrorContext(r.Context(), "[Server] Analysis failed",
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, ERR_INTERNAL_SERVER)
	}
}
