package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/robosaga/internal/auth"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/service"
)

// TeamHandler serves the participant-facing team routes: the public team
// page, the caller's own team, team lifecycle, the join-request workflow and
// event registration.
//
// Every mutating route runs behind auth.RequireAuth; the acting user's ID is
// taken from the Principal and passed to the service explicitly.
type TeamHandler struct {
	teams  *service.TeamService
	joins  *service.JoinService
	events *service.EventService
	logger *slog.Logger
}

func NewTeamHandler(
	teams *service.TeamService,
	joins *service.JoinService,
	events *service.EventService,
	logger *slog.Logger,
) *TeamHandler {
	return &TeamHandler{
		teams:  teams,
		joins:  joins,
		events: events,
		logger: logger,
	}
}

type teamPageResponse struct {
	Team    *model.PublicTeam  `json:"team"`
	Members []model.MemberView `json:"members"`
	Viewer  *model.TeamViewer  `json:"viewer,omitempty"`
}

// HandleGetBySlug returns the public view of one team. Signed-in visitors
// also get "viewer", telling whether they are a member or have a pending
// request to join.
//
// HTTP: GET /api/teams/{slug}
func (h *TeamHandler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	team, members, err := h.teams.GetTeamBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := teamPageResponse{Team: team, Members: members}
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		resp.Viewer, err = h.teams.ViewerOf(r.Context(), team.ID, p.UserID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMyTeam returns the caller's team, or {"team": null} when they have none.
//
// HTTP: GET /api/teams/user/me
func (h *TeamHandler) HandleMyTeam(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	details, err := h.teams.GetUserTeam(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Team *model.TeamDetails `json:"team"`
	}{details})
}

// HandleProfile returns the caller's team with event count and rank.
//
// HTTP: GET /api/teams/user/profile
func (h *TeamHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	profile, err := h.teams.GetUserTeamProfile(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Team *model.TeamProfile `json:"team"`
	}{profile})
}

// HandleMyRequests lists the join requests the caller has sent.
//
// HTTP: GET /api/teams/user/requests
func (h *TeamHandler) HandleMyRequests(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	requests, err := h.joins.ListUserRequests(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Requests []model.UserRequestView `json:"requests"`
	}{requests})
}

// HandleCreate creates a team led by the caller.
//
// HTTP: POST /api/teams/create
// REQUEST BODY: {"teamName": "Alpha"}
func (h *TeamHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	var req struct {
		TeamName string `json:"teamName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	team, err := h.teams.CreateTeam(r.Context(), p.UserID, req.TeamName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Slug    string `json:"slug"`
	}{true, team.Slug})
}

// HandleRequestJoin files a join request to the team with the given code.
//
// HTTP: POST /api/teams/join/request
// REQUEST BODY: {"slug": "alpha-x7k2m9"}
func (h *TeamHandler) HandleRequestJoin(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	var req struct {
		Slug string `json:"slug"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	team, err := h.joins.RequestJoin(r.Context(), p.UserID, req.Slug)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success  bool   `json:"success"`
		TeamName string `json:"teamName"`
	}{true, team.Name})
}

type requestIDBody struct {
	RequestID string `json:"requestId"`
}

// HandleAccept accepts a pending join request. Only the team leader may.
//
// HTTP: POST /api/teams/requests/accept
// REQUEST BODY: {"requestId": "..."}
func (h *TeamHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	var req requestIDBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.joins.AcceptRequest(r.Context(), p.UserID, req.RequestID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleReject rejects a pending join request. Only the team leader may.
//
// HTTP: POST /api/teams/requests/reject
// REQUEST BODY: {"requestId": "..."}
func (h *TeamHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	var req requestIDBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.joins.RejectRequest(r.Context(), p.UserID, req.RequestID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleRemoveMember removes a member from the caller's team.
//
// HTTP: POST /api/teams/members/remove
// REQUEST BODY: {"memberId": "..."}
func (h *TeamHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	var req struct {
		MemberID string `json:"memberId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.teams.RemoveMember(r.Context(), p.UserID, req.MemberID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleLeave removes the caller from their team. Leaders cannot leave.
//
// HTTP: POST /api/teams/leave
func (h *TeamHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	if err := h.teams.LeaveTeam(r.Context(), p.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleDelete deletes a team with its memberships, join requests and
// event registrations. Only the leader may.
//
// HTTP: DELETE /api/teams/{id}
func (h *TeamHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	if err := h.teams.DeleteTeam(r.Context(), p.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleRegisterEvent registers the caller's team for an event.
//
// HTTP: POST /api/teams/events/register
// REQUEST BODY: {"eventId": "..."}
func (h *TeamHandler) HandleRegisterEvent(w http.ResponseWriter, r *http.Request) {
	p, found := principal(w, r)
	if !found {
		return
	}

	var req struct {
		EventID string `json:"eventId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	reg, err := h.events.RegisterTeam(r.Context(), p.UserID, req.EventID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success      bool                     `json:"success"`
		Registration *model.EventRegistration `json:"registration"`
	}{true, reg})
}
