package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/service"
)

// PublicHandler serves the routes that need no session: the leaderboard and
// the list of open events.
type PublicHandler struct {
	scoring *service.ScoringService
	events  *service.EventService
	logger  *slog.Logger
}

func NewPublicHandler(scoring *service.ScoringService, events *service.EventService, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		scoring: scoring,
		events:  events,
		logger:  logger,
	}
}

// HandleLeaderboard returns every team ranked by score.
//
// HTTP: GET /api/leaderboard
//
// RESPONSE FORMAT:
//
//	{"teams": [{"rank": 1, "id": "...", "teamName": "Alpha", "slug": "alpha-x7k2m9", "points": 80, "members": 3}]}
func (h *PublicHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.scoring.Leaderboard(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Teams []model.LeaderboardEntry `json:"teams"`
	}{entries})
}

// HandleListEvents returns the events open for registration.
//
// HTTP: GET /api/events
func (h *PublicHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Events []model.Event `json:"events"`
	}{events})
}
