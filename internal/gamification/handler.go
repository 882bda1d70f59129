package gamification

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/translation-arena/backend/internal/middleware"
	"github.com/translation-arena/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ── Sessions ────────────────────────────────────────────

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Username(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	writeJSON(w, http.StatusCreated, h.service.StartSession(userID))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Username(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	state, err := h.service.CurrentSession(userID)
	if errors.Is(err, ErrNoSession) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No active session"})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Username(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	state, err := h.service.EndSession(userID)
	if errors.Is(err, ErrNoSession) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No active session"})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ── Challenge ───────────────────────────────────────────

func (h *Handler) StartChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Username(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	writeJSON(w, http.StatusOK, h.service.StartChallenge(userID))
}

func (h *Handler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Username(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	status, running := h.service.ChallengeStatus(userID)
	if !running {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No challenge running"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ── Leaderboard ─────────────────────────────────────────

// GetLeaderboard is public; the caller's own entry is flagged when a token is present.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.Username(r.Context())
	limit := intQueryParam(r.URL.Query(), "limit", DefaultLeaderboardLimit)

	resp, err := h.service.Leaderboard(userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get leaderboard"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetAwards(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Username(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	events, err := h.service.AwardHistory(userID, intQueryParam(r.URL.Query(), "limit", DefaultHistoryLimit))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get award history"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"awards": events})
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
	return min(v, MaxPageLimit)
}
