package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/robosaga/internal/model"
)

func TestPublicHandler_HandleLeaderboard(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	rr := serve(e.public.HandleLeaderboard, call{method: http.MethodGet, target: "/api/leaderboard"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"teams":[]}`, rr.Body.String())

	low, _ := e.teamOf(t, "Low", 1)
	high, _ := e.teamOf(t, "High", 2)
	_, err := e.db.SetTeamScore(ctx, high.ID, 30)
	require.NoError(t, err)

	rr = serve(e.public.HandleLeaderboard, call{method: http.MethodGet, target: "/api/leaderboard"})
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[struct {
		Teams []model.LeaderboardEntry `json:"teams"`
	}](t, rr)
	require.Len(t, res.Teams, 2)
	assert.Equal(t, model.LeaderboardEntry{Rank: 1, TeamID: high.ID, TeamName: "High", Slug: high.Slug, Points: 30, Members: 2}, res.Teams[0])
	assert.Equal(t, model.LeaderboardEntry{Rank: 2, TeamID: low.ID, TeamName: "Low", Slug: low.Slug, Points: 0, Members: 1}, res.Teams[1])
}

func TestPublicHandler_HandleListEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.db.CreateEvent(ctx, &model.Event{Slug: "open", Name: "Open", MaxScore: 10, IsActive: true}))
	require.NoError(t, e.db.CreateEvent(ctx, &model.Event{Slug: "closed", Name: "Closed", MaxScore: 10}))

	rr := serve(e.public.HandleListEvents, call{method: http.MethodGet, target: "/api/events"})
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[struct {
		Events []model.Event `json:"events"`
	}](t, rr)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "open", res.Events[0].Slug)
}
