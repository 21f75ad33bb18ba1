package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finlens/loansight/internal/api/middleware"
	"github.com/finlens/loansight/internal/pipeline"
	"github.com/finlens/loansight/internal/session"
)

// AnalysisHandler handles the analyze/progress/result endpoints.
type AnalysisHandler struct {
	store     session.Store
	publisher session.Publisher
	maxUpload int64
	log       zerolog.Logger
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(store session.Store, publisher session.Publisher, maxUpload int64, log zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		store:     store,
		publisher: publisher,
		maxUpload: maxUpload,
		log:       log,
	}
}

// Analyze handles POST /api/analyze: a multipart upload with a "file" part
// (the statement PDF) and a "loan_amount" field. It registers a session,
// enqueues the analysis job and returns the session token immediately; the
// caller polls progress and fetches the result separately.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	amount, err := strconv.ParseFloat(r.FormValue("loan_amount"), 64)
	if err != nil || amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "loan_amount must be a positive number")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	documentBytes, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	sessionID := uuid.NewString()
	h.store.Create(sessionID)

	job := &session.AnalysisJob{
		SessionID:       sessionID,
		DocumentBytes:   documentBytes,
		RequestedAmount: amount,
		CreatedAt:       time.Now(),
	}
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to enqueue analysis job")
		h.store.Fail(sessionID, "failed to enqueue analysis")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue analysis")
		return
	}

	h.log.Info().
		Str("session_id", sessionID).
		Int("document_bytes", len(documentBytes)).
		Float64("loan_amount", amount).
		Msg("Analysis session accepted")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"session_id":   sessionID,
		"current_step": pipeline.StepQueued,
		"status":       string(session.StatusPending),
	})
}

// Progress handles GET /api/progress/{sessionID}. The counter is coherent at
// any point of the run: 0-7, or -1 once the session failed.
func (h *AnalysisHandler) Progress(w http.ResponseWriter, r *http.Request, sessionID string) {
	rec, ok := h.store.Get(sessionID)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Unknown session")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{
		"current_step": rec.Step,
	})
}

// Result handles GET /api/result/{sessionID}: the full report once complete,
// an error payload when failed, or a pending marker while running.
func (h *AnalysisHandler) Result(w http.ResponseWriter, r *http.Request, sessionID string) {
	rec, ok := h.store.Get(sessionID)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Unknown session")
		return
	}

	switch rec.Status {
	case session.StatusFailed:
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": pipeline.StatusFailed,
			"error":  rec.Error,
		})
	case session.StatusCompleted:
		middleware.WriteJSON(w, http.StatusOK, rec.Report)
	default:
		middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
			"status":       string(rec.Status),
			"current_step": rec.Step,
		})
	}
}
