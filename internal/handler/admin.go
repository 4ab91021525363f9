package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/service"
)

// AdminHandler serves the /api/admin routes. Which role may call which route
// is decided by auth.RequireCapability in the router, not here.
type AdminHandler struct {
	scoring *service.ScoringService
	teams   *service.TeamService
	users   *service.UserService
	events  *service.EventService
	logger  *slog.Logger
}

func NewAdminHandler(
	scoring *service.ScoringService,
	teams *service.TeamService,
	users *service.UserService,
	events *service.EventService,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		scoring: scoring,
		teams:   teams,
		users:   users,
		events:  events,
		logger:  logger,
	}
}

type eventResultBody struct {
	EventID string `json:"eventId"`
	TeamID  string `json:"teamId"`
	Rank    int    `json:"rank"`
	Marks   int    `json:"marks"`
}

// HandleSetEventResult records a team's marks and rank in one event.
//
// HTTP: POST /api/admin/event-results
// REQUEST BODY: {"eventId": "...", "teamId": "...", "rank": 1, "marks": 80}
func (h *AdminHandler) HandleSetEventResult(w http.ResponseWriter, r *http.Request) {
	var req eventResultBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.scoring.SetEventResult(r.Context(), req.EventID, req.TeamID, req.Rank, req.Marks); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleClearEventResult resets a registration's result and takes its
// marks back out of the team total.
//
// HTTP: DELETE /api/admin/event-results
// REQUEST BODY: {"eventId": "...", "teamId": "..."}
func (h *AdminHandler) HandleClearEventResult(w http.ResponseWriter, r *http.Request) {
	var req eventResultBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.scoring.ClearEventResult(r.Context(), req.EventID, req.TeamID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleSetTeamScore overwrites a team's total score.
//
// HTTP: POST /api/admin/teams/score
// REQUEST BODY: {"teamId": "...", "score": 120}
func (h *AdminHandler) HandleSetTeamScore(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	var req struct {
		TeamID string `json:"teamId"`
		Score  int    `json:"score"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	team, err := h.scoring.SetTeamScore(r.Context(), p.UserID, req.TeamID, req.Score)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool        `json:"success"`
		Team    *model.Team `json:"team"`
	}{true, team})
}

// HandleUpdateRole changes a user's role and returns the updated user.
//
// HTTP: POST /api/admin/users/role
// REQUEST BODY: {"userId": "...", "role": "moderator"}
func (h *AdminHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	var req struct {
		UserID string     `json:"userId"`
		Role   model.Role `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.UpdateRole(r.Context(), p.UserID, req.UserID, req.Role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleListTeams returns every team with its full member list.
//
// HTTP: GET /api/admin/teams
func (h *AdminHandler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.ListAdminTeams(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Teams      []model.AdminTeam `json:"teams"`
		TotalTeams int               `json:"totalTeams"`
	}{teams, len(teams)})
}

// HandleListUsers backs the admin users table.
//
// HTTP: GET /api/admin/users?role=moderator&q=ali&limit=50&offset=0
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// Malformed numbers fall back to the service defaults.
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	users, err := h.users.ListUsers(r.Context(), model.Role(q.Get("role")), q.Get("q"), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Users []model.User `json:"users"`
	}{users})
}

// HandleCreateEvent adds an event open for registration.
//
// HTTP: POST /api/admin/events
// REQUEST BODY: {"slug": "robo-race", "name": "Robo Race", "category": "racing", "maxScore": 100}
func (h *AdminHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEventInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// HandleListRegistrations returns an event's registrations with results.
//
// HTTP: GET /api/admin/events/{id}/registrations
func (h *AdminHandler) HandleListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.events.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Registrations []model.RegistrationView `json:"registrations"`
	}{regs})
}
