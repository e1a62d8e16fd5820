package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"govcon/research/internal/models"
	"govcon/research/internal/services/matching"
)

// MatchingService is the part of matching.Service the handlers use.
type MatchingService interface {
	Calculate(ctx context.Context, userID, solicitationID string) (models.MatchScore, error)
	Cached(ctx context.Context, userID, solicitationID string) (models.MatchScore, error)
	BatchCalculate(ctx context.Context, userID string, req matching.BatchRequest) (matching.BatchResult, error)
	List(ctx context.Context, userID string, opts matching.ListOptions) ([]models.MatchScoreEntry, error)
}

type MatchingHandler struct {
	service MatchingService
	users   userResolver
	logger  *zap.Logger
}

// maxBatchBody bounds the batch request body.
const maxBatchBody = 64 << 10

type matchResponse struct {
	Success bool              `json:"success"`
	Match   models.MatchScore `json:"match"`
}

func (h *MatchingHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	score, err := h.service.Calculate(r.Context(), h.users.userID(r), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, matchResponse{Success: true, Match: score})
}

func (h *MatchingHandler) HandleCached(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	score, err := h.service.Cached(r.Context(), h.users.userID(r), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, matchResponse{Success: true, Match: score})
}

type batchResponse struct {
	Success bool `json:"success"`
	matching.BatchResult
}

func (h *MatchingHandler) HandleBatchCalculate(w http.ResponseWriter, r *http.Request) {
	var req matching.BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.service.BatchCalculate(r.Context(), h.users.userID(r), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, batchResponse{Success: true, BatchResult: result})
}

type listResponse struct {
	Success bool                     `json:"success"`
	Count   int                      `json:"count"`
	Matches []models.MatchScoreEntry `json:"matches"`
}

func (h *MatchingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts matching.ListOptions

	if v := q.Get("min_score"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 || parsed > 100 {
			WriteError(w, http.StatusBadRequest, "min_score must be an integer between 0 and 100")
			return
		}
		opts.MinScore = parsed
	}
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = parsed
	}
	if v := q.Get("include_breakdown"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "include_breakdown must be a boolean")
			return
		}
		opts.IncludeBreakdown = parsed
	}

	entries, err := h.service.List(r.Context(), h.users.userID(r), opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []models.MatchScoreEntry{}
	}
	WriteJSON(w, http.StatusOK, listResponse{Success: true, Count: len(entries), Matches: entries})
}

func (h *MatchingHandler) writeServiceError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("matching request failed", zap.Error(err))
	}
	WriteError(w, status, message)
}
