package exercises

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/translation-arena/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := min(intQueryParam(q, "limit", 20), 100)
	offset := intQueryParam(q, "offset", 0)

	resp, err := h.service.List(limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list exercises"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RandomExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := h.service.Random(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No exercises available"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get exercise"})
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (h *Handler) GetExercise(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exercise ID"})
		return
	}

	ex, err := h.service.GetExercise(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Exercise not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get exercise"})
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (h *Handler) ExportExercises(w http.ResponseWriter, r *http.Request) {
	envelope, err := h.service.Export()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Export failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope)
}

func (h *Handler) ImportExercises(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var envelope models.ExerciseEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	if len(envelope.Exercises) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "No exercises in payload"})
		return
	}

	result, err := h.service.Import(r.Context(), envelope)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Import failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

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
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
