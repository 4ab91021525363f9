package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/robosaga/internal/cache"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository"
	"github.com/sakif/robosaga/internal/repository/sqlite"
)

// fixture wires every service to one real SQLite database. The services rely
// on transactions and unique indexes, so a hand-written fake store would
// test the fake rather than the rules.
type fixture struct {
	store   *sqlite.DB
	teams   *TeamService
	joins   *JoinService
	scoring *ScoringService
	events  *EventService
	users   *UserService

	nextGitHubID int64
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newFixture(t *testing.T) *fixture {
	return newFixtureAt(t, ":memory:", cache.Noop{})
}

func newFixtureAt(t *testing.T, dbPath string, board cache.LeaderboardCache) *fixture {
	t.Helper()
	db, err := sqlite.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := testLogger()
	return &fixture{
		store:   db,
		teams:   NewTeamService(db, board, logger),
		joins:   NewJoinService(db, board, logger),
		scoring: NewScoringService(db, board, logger),
		events:  NewEventService(db, logger),
		users:   NewUserService(db, logger),
	}
}

func (f *fixture) user(t *testing.T, login string) *model.User {
	t.Helper()
	f.nextGitHubID++
	u := &model.User{
		GitHubID: f.nextGitHubID,
		Login:    login,
		Email:    fmt.Sprintf("%s@example.com", login),
	}
	require.NoError(t, f.store.Upsert(context.Background(), u))
	return u
}

// join files a request from u to team and has the leader accept it.
func (f *fixture) join(t *testing.T, team *model.Team, u *model.User) {
	t.Helper()
	ctx := context.Background()

	_, err := f.joins.RequestJoin(ctx, u.ID, team.Slug)
	require.NoError(t, err)

	reqs, err := f.store.ListPendingForTeam(ctx, team.ID)
	require.NoError(t, err)
	for _, r := range reqs {
		if r.UserID == u.ID {
			require.NoError(t, f.joins.AcceptRequest(ctx, team.LeaderID, r.ID))
			return
		}
	}
	t.Fatalf("no pending request from %s to %s", u.Login, team.Slug)
}

// teamOf creates a team led by a new user plus extra members, size in total.
func (f *fixture) teamOf(t *testing.T, name string, size int) (*model.Team, []*model.User) {
	t.Helper()
	leader := f.user(t, name+"-leader")
	team, err := f.teams.CreateTeam(context.Background(), leader.ID, name)
	require.NoError(t, err)

	members := []*model.User{leader}
	for i := 1; i < size; i++ {
		u := f.user(t, fmt.Sprintf("%s-member%d", name, i))
		f.join(t, team, u)
		members = append(members, u)
	}
	return team, members
}

func (f *fixture) pendingRequestID(t *testing.T, teamID, userID string) string {
	t.Helper()
	reqs, err := f.store.ListPendingForTeam(context.Background(), teamID)
	require.NoError(t, err)
	for _, r := range reqs {
		if r.UserID == userID {
			return r.ID
		}
	}
	t.Fatalf("no pending request from %s to team %s", userID, teamID)
	return ""
}

func (f *fixture) teamScore(t *testing.T, teamID string) int {
	t.Helper()
	team, err := f.store.GetTeamByID(context.Background(), teamID)
	require.NoError(t, err)
	return team.Score
}

func (f *fixture) memberCount(t *testing.T, teamID string) int {
	t.Helper()
	n, err := f.store.CountMembers(context.Background(), teamID)
	require.NoError(t, err)
	return n
}

var repositoryAll = repository.ListOptions{}

func createEvent(t *testing.T, f *fixture, slug string, maxScore int) *model.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), CreateEventInput{
		Slug:     slug,
		Name:     slug,
		Category: "robotics",
		MaxScore: maxScore,
	})
	require.NoError(t, err)
	return event
}
