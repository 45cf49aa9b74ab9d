package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/issakobayashi1992/Lightning-league/internal/app"
	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

// APIHandler covers the small REST surface next to the websocket: coaches
// create matches here and anyone can read player stats.
type APIHandler struct {
	matches  *app.MatchService
	practice *app.PracticeService
}

func NewAPIHandler(matches *app.MatchService, practice *app.PracticeService) *APIHandler {
	return &APIHandler{matches: matches, practice: practice}
}

type createMatchRequest struct {
	CoachID    string `json:"coachId"`
	TeamID     string `json:"teamId"`
	Subject    string `json:"subject"`
	PublicOnly bool   `json:"publicOnly"`
	MinYear    int    `json:"minYear"`
	MaxYear    int    `json:"maxYear"`
}

// CreateMatch registers a waiting match and returns its record.
func (h *APIHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CoachID == "" {
		http.Error(w, "missing coachId", http.StatusBadRequest)
		return
	}

	filter := domain.QuestionFilter{
		TeamID:      req.TeamID,
		SubjectArea: req.Subject,
		MinYear:     req.MinYear,
		MaxYear:     req.MaxYear,
	}
	if req.PublicOnly {
		public := true
		filter.IsPublic = &public
	}

	record, err := h.matches.CreateMatch(r.Context(), req.CoachID, req.TeamID, filter)
	if errors.Is(err, domain.ErrNoQuestions) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		log.Printf("create match failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// PlayerStats returns the lifetime aggregate for ?playerId=...
func (h *APIHandler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	stats, err := h.practice.PlayerStats(r.Context(), playerID)
	if err != nil {
		log.Printf("player stats failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
