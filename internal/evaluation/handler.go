package evaluation

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/translation-arena/backend/internal/middleware"
	"github.com/translation-arena/backend/internal/models"
)

type Handler struct {
	service *Service
}

// maxEvaluateBody bounds a submission request.
const maxEvaluateBody = 1 << 20

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Username(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxEvaluateBody)

	var req models.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.Evaluate(r.Context(), userID, req)
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid submission", Details: verr.Errors})
		case errors.Is(err, models.ErrNotFound):
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Exercise not found"})
		default:
			log.Printf("[evaluation] evaluate for %s failed: %v", userID, err)
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to evaluate translation"})
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Username(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	body, err := h.service.GetRecord(userID, mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Evaluation not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get evaluation"})
		return
	}

	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Username(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	limit := intQueryParam(r.URL.Query(), "limit", 20)
	history, err := h.service.History(userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list evaluations"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"evaluations": history})
}

// ── Helpers ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return min(v, 100)
}
