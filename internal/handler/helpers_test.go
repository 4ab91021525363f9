package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/robosaga/internal/auth"
	"github.com/sakif/robosaga/internal/cache"
	"github.com/sakif/robosaga/internal/handler"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository/sqlite"
	"github.com/sakif/robosaga/internal/service"
)

// env holds real services over an in-memory database. Handlers are called
// directly; routing and session checks are covered by the server tests.
type env struct {
	db      *sqlite.DB
	teams   *service.TeamService
	joins   *service.JoinService
	scoring *service.ScoringService
	events  *service.EventService
	users   *service.UserService
	logger  *slog.Logger

	team   *handler.TeamHandler
	admin  *handler.AdminHandler
	public *handler.PublicHandler

	nextGitHubID int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := &env{
		db:      db,
		teams:   service.NewTeamService(db, cache.Noop{}, logger),
		joins:   service.NewJoinService(db, cache.Noop{}, logger),
		scoring: service.NewScoringService(db, cache.Noop{}, logger),
		events:  service.NewEventService(db, logger),
		users:   service.NewUserService(db, logger),
		logger:  logger,
	}
	e.team = handler.NewTeamHandler(e.teams, e.joins, e.events, logger)
	e.admin = handler.NewAdminHandler(e.scoring, e.teams, e.users, e.events, logger)
	e.public = handler.NewPublicHandler(e.scoring, e.events, logger)
	return e
}

func (e *env) user(t *testing.T, login string) *model.User {
	t.Helper()
	e.nextGitHubID++
	u := &model.User{GitHubID: e.nextGitHubID, Login: login, Email: login + "@example.com"}
	require.NoError(t, e.db.Upsert(context.Background(), u))
	return u
}

// teamOf creates a team led by a new user with size members in total.
func (e *env) teamOf(t *testing.T, name string, size int) (*model.Team, []*model.User) {
	t.Helper()
	ctx := context.Background()
	leader := e.user(t, name+"-leader")
	team, err := e.teams.CreateTeam(ctx, leader.ID, name)
	require.NoError(t, err)

	members := []*model.User{leader}
	for i := 1; i < size; i++ {
		u := e.user(t, fmt.Sprintf("%s-member%d", name, i))
		_, err := e.joins.RequestJoin(ctx, u.ID, team.Slug)
		require.NoError(t, err)
		require.NoError(t, e.joins.AcceptRequest(ctx, leader.ID, e.pendingRequestID(t, team.ID, u.ID)))
		members = append(members, u)
	}
	return team, members
}

func (e *env) pendingRequestID(t *testing.T, teamID, userID string) string {
	t.Helper()
	reqs, err := e.db.ListPendingForTeam(context.Background(), teamID)
	require.NoError(t, err)
	for _, r := range reqs {
		if r.UserID == userID {
			return r.ID
		}
	}
	t.Fatalf("no pending request from %s", userID)
	return ""
}

type call struct {
	method string
	target string
	body   string
	as     *model.User
	params map[string]string
}

// serve builds the request for c and runs h on it.
func serve(h http.HandlerFunc, c call) *httptest.ResponseRecorder {
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.target, body)
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if c.as != nil {
		ctx = auth.WithPrincipal(ctx, auth.Principal{UserID: c.as.ID, Role: c.as.Role})
	}
	if len(c.params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range c.params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	rr := httptest.NewRecorder()
	h(rr, req.WithContext(ctx))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type successBody struct {
	Success bool `json:"success"`
}
