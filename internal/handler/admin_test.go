package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/robosaga/internal/model"
)

// registeredTeam creates an active event and a two-member team registered for it.
func registeredTeam(t *testing.T, e *env, maxScore int) (*model.Event, *model.Team) {
	t.Helper()
	ctx := context.Background()
	event := &model.Event{Slug: "arena", Name: "Arena", MaxScore: maxScore, IsActive: true}
	require.NoError(t, e.db.CreateEvent(ctx, event))
	team, _ := e.teamOf(t, "Fighters", 2)
	_, err := e.events.RegisterTeam(ctx, team.LeaderID, event.ID)
	require.NoError(t, err)
	return event, team
}

func teamScore(t *testing.T, e *env, teamID string) int {
	t.Helper()
	team, err := e.db.GetTeamByID(context.Background(), teamID)
	require.NoError(t, err)
	return team.Score
}

func TestAdminHandler_EventResults(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin")
	event, team := registeredTeam(t, e, 100)
	result := func(rank, marks string) string {
		return `{"eventId":"` + event.ID + `","teamId":"` + team.ID + `","rank":` + rank + `,"marks":` + marks + `}`
	}

	rr := serve(e.admin.HandleSetEventResult, call{method: http.MethodPost, target: "/api/admin/event-results", body: result("1", "80"), as: admin})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 80, teamScore(t, e, team.ID))

	rr = serve(e.admin.HandleSetEventResult, call{method: http.MethodPost, target: "/api/admin/event-results", body: result("2", "50"), as: admin})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 50, teamScore(t, e, team.ID))

	rr = serve(e.admin.HandleSetEventResult, call{method: http.MethodPost, target: "/api/admin/event-results", body: result("1", "150"), as: admin})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	res := decode[errorBody](t, rr)
	assert.Equal(t, "invalid_marks", res.Error)
	assert.Equal(t, "Marks must be between 0 and 100", res.Message)

	rr = serve(e.admin.HandleClearEventResult, call{method: http.MethodDelete, target: "/api/admin/event-results", body: result("0", "0"), as: admin})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, teamScore(t, e, team.ID))

	rr = serve(e.admin.HandleSetEventResult, call{
		method: http.MethodPost, target: "/api/admin/event-results",
		body: `{"eventId":"` + event.ID + `","teamId":"unregistered","rank":1,"marks":10}`, as: admin,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "registration_not_found", decode[errorBody](t, rr).Error)
}

func TestAdminHandler_HandleSetTeamScore(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin")
	team, _ := e.teamOf(t, "Adjusted", 1)

	rr := serve(e.admin.HandleSetTeamScore, call{
		method: http.MethodPost, target: "/api/admin/teams/score",
		body: `{"teamId":"` + team.ID + `","score":42}`, as: admin,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[struct {
		Success bool        `json:"success"`
		Team    *model.Team `json:"team"`
	}](t, rr)
	assert.True(t, res.Success)
	assert.Equal(t, 42, res.Team.Score)

	rr = serve(e.admin.HandleSetTeamScore, call{
		method: http.MethodPost, target: "/api/admin/teams/score",
		body: `{"teamId":"` + team.ID + `","score":-1}`, as: admin,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminHandler_HandleUpdateRole(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin")
	u := e.user(t, "volunteer")

	rr := serve(e.admin.HandleUpdateRole, call{
		method: http.MethodPost, target: "/api/admin/users/role",
		body: `{"userId":"` + u.ID + `","role":"moderator"}`, as: admin,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[model.User](t, rr)
	assert.Equal(t, u.ID, updated.ID)
	assert.Equal(t, model.RoleModerator, updated.Role)

	rr = serve(e.admin.HandleUpdateRole, call{
		method: http.MethodPost, target: "/api/admin/users/role",
		body: `{"userId":"` + u.ID + `","role":"owner"}`, as: admin,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_role", decode[errorBody](t, rr).Error)
}

func TestAdminHandler_Listings(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin")
	e.teamOf(t, "One", 2)
	e.teamOf(t, "Two", 1)

	rr := serve(e.admin.HandleListTeams, call{method: http.MethodGet, target: "/api/admin/teams", as: admin})
	require.Equal(t, http.StatusOK, rr.Code)
	teams := decode[struct {
		Teams      []model.AdminTeam `json:"teams"`
		TotalTeams int               `json:"totalTeams"`
	}](t, rr)
	assert.Equal(t, 2, teams.TotalTeams)
	assert.Len(t, teams.Teams, 2)

	rr = serve(e.admin.HandleListUsers, call{method: http.MethodGet, target: "/api/admin/users?q=one-", as: admin})
	require.Equal(t, http.StatusOK, rr.Code)
	users := decode[struct {
		Users []model.User `json:"users"`
	}](t, rr)
	assert.Len(t, users.Users, 2, "One-leader and One-member1")

	rr = serve(e.admin.HandleListUsers, call{method: http.MethodGet, target: "/api/admin/users?role=root", as: admin})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminHandler_Events(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin")

	rr := serve(e.admin.HandleCreateEvent, call{
		method: http.MethodPost, target: "/api/admin/events",
		body: `{"name":"Robo Race","category":"racing","maxScore":100}`, as: admin,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	event := decode[model.Event](t, rr)
	assert.Equal(t, "robo-race", event.Slug)
	assert.True(t, event.IsActive)

	rr = serve(e.admin.HandleCreateEvent, call{
		method: http.MethodPost, target: "/api/admin/events",
		body: `{"slug":"robo-race","name":"Again","maxScore":10}`, as: admin,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "event_exists", decode[errorBody](t, rr).Error)

	rr = serve(e.admin.HandleListRegistrations, call{
		method: http.MethodGet, target: "/api/admin/events/" + event.ID + "/registrations",
		as: admin, params: map[string]string{"id": event.ID},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"registrations":[]}`, rr.Body.String())

	rr = serve(e.admin.HandleListRegistrations, call{
		method: http.MethodGet, target: "/api/admin/events/missing/registrations",
		as: admin, params: map[string]string{"id": "missing"},
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
