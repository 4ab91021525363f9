package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/model"
)

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	event, err := f.events.CreateEvent(ctx, CreateEventInput{
		Name:     "  Robo Soccer ",
		Category: " sports ",
		MaxScore: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "robo-soccer", event.Slug)
	assert.Equal(t, "Robo Soccer", event.Name)
	assert.Equal(t, "sports", event.Category)
	assert.True(t, event.IsActive)
	assert.NotEmpty(t, event.ID)

	_, err = f.events.CreateEvent(ctx, CreateEventInput{Slug: "Robo Soccer", Name: "Again", MaxScore: 10})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "event_exists", apperror.CodeOf(err))
}

func TestCreateEvent_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   CreateEventInput
	}{
		{"missing name", CreateEventInput{Name: "  ", MaxScore: 10}},
		{"zero max score", CreateEventInput{Name: "Maze", MaxScore: 0}},
		{"negative max score", CreateEventInput{Name: "Maze", MaxScore: -10}},
		{"name without letters", CreateEventInput{Name: "!!!", MaxScore: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.events.CreateEvent(context.Background(), tt.in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestListEvents_ActiveOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createEvent(t, f, "open", 10)
	require.NoError(t, f.store.CreateEvent(ctx, &model.Event{
		Slug: "closed", Name: "Closed", MaxScore: 10, IsActive: false,
	}))

	events, err := f.events.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "open", events[0].Slug)
}

func TestRegisterTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := createEvent(t, f, "race", 100)
	team, _ := f.teamOf(t, "Racers", 2)

	reg, err := f.events.RegisterTeam(ctx, team.LeaderID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, team.ID, reg.TeamID)
	assert.Equal(t, 0, reg.Score)
	assert.Nil(t, reg.Rank)

	_, err = f.events.RegisterTeam(ctx, team.LeaderID, event.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	regs, err := f.events.ListRegistrations(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "Racers", regs[0].TeamName)
	assert.Equal(t, team.Slug, regs[0].TeamSlug)
}

func TestRegisterTeam_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := createEvent(t, f, "race", 100)
	require.NoError(t, f.store.CreateEvent(ctx, &model.Event{
		Slug: "closed", Name: "Closed", MaxScore: 10, IsActive: false,
	}))
	closed, err := f.store.ListEvents(ctx, false)
	require.NoError(t, err)
	var closedID string
	for _, e := range closed {
		if !e.IsActive {
			closedID = e.ID
		}
	}
	require.NotEmpty(t, closedID)

	team, members := f.teamOf(t, "Pair", 2)
	solo, _ := f.teamOf(t, "Solo", 1)
	loner := f.user(t, "loner")

	tests := []struct {
		name    string
		userID  string
		eventID string
		wantErr error
	}{
		{"no team", loner.ID, event.ID, ErrNotInTeam},
		{"not the leader", members[1].ID, event.ID, ErrNotLeader},
		{"unknown event", team.LeaderID, "missing", ErrEventNotFound},
		{"inactive event", team.LeaderID, closedID, ErrEventInactive},
		{"team too small", solo.LeaderID, event.ID, ErrTeamTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.events.RegisterTeam(ctx, tt.userID, tt.eventID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListRegistrations_UnknownEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.events.ListRegistrations(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}
