package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"govcon/research/internal/models"
)

// ResearchService is the part of research.Service the handlers use.
type ResearchService interface {
	Start(ctx context.Context, userID, solicitationID string) (models.ResearchJob, error)
	Latest(ctx context.Context, solicitationID string) (models.ResearchJob, error)
	Quote(result models.ResearchResult) models.Quote
}

type ResearchHandler struct {
	service ResearchService
	users   userResolver
	logger  *zap.Logger
}

type startResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	JobID     string           `json:"jobId"`
	JobStatus models.JobStatus `json:"jobStatus"`
}

// HandleStart acknowledges immediately; the pipeline runs in the background.
func (h *ResearchHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := h.service.Start(r.Context(), h.users.userID(r), id)
	if err != nil {
		h.writeServiceError(w, err, id)
		return
	}
	WriteJSON(w, http.StatusAccepted, startResponse{
		Success:   true,
		Message:   "Research started",
		ID:        id,
		Status:    "researching",
		JobID:     job.ID,
		JobStatus: job.Status,
	})
}

type researchResponse struct {
	Success  bool                   `json:"success"`
	Status   models.JobStatus       `json:"status"`
	Error    string                 `json:"error,omitempty"`
	Job      models.ResearchJob     `json:"job"`
	Research *models.ResearchResult `json:"research,omitempty"`
	Quote    *models.Quote          `json:"quote,omitempty"`
}

// HandleGet reports the latest job for the solicitation. The result is only
// present once the job has completed.
func (h *ResearchHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	includeQuote := false
	if v := r.URL.Query().Get("include_quote"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "include_quote must be a boolean")
			return
		}
		includeQuote = parsed
	}

	job, err := h.service.Latest(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, id)
		return
	}

	resp := researchResponse{Success: true, Status: job.Status, Error: job.Error, Job: job}
	if job.Status == models.JobCompleted && job.Result != nil {
		resp.Research = job.Result
		if includeQuote {
			q := h.service.Quote(*job.Result)
			resp.Quote = &q
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *ResearchHandler) writeServiceError(w http.ResponseWriter, err error, id string) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("research request failed", zap.String("solicitation_id", id), zap.Error(err))
	}
	WriteError(w, status, message)
}
