// Package repository declares the storage interfaces the services depend on.
//
// Every multi-statement mutation runs inside Store.WithTx: the callback gets a
// Tx bound to one transaction, and the transaction commits only if the
// callback returns nil. Methods on Store itself run outside any transaction
// and are used for read-only views.
package repository

import (
	"context"

	"github.com/sakif/robosaga/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserFilter narrows the admin user listing. Empty fields match everything.
type UserFilter struct {
	Role   model.Role
	Search string // substring of name, login or email
	ListOptions
}

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error)
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)
	UpdateProfile(ctx context.Context, id, rollNo, branch, phone string) error
}

type TeamRepository interface {
	CreateTeam(ctx context.Context, team *model.Team) error
	GetTeamByID(ctx context.Context, id string) (*model.Team, error)
	GetTeamBySlug(ctx context.Context, slug string) (*model.Team, error)
	ListTeams(ctx context.Context, opts ListOptions) ([]model.Team, error)
	DeleteTeam(ctx context.Context, id string) error

	// AddTeamScore applies delta with a single UPDATE ... SET score = score + ?.
	AddTeamScore(ctx context.Context, teamID string, delta int) error
	SetTeamScore(ctx context.Context, teamID string, score int) (*model.Team, error)
	// CountTeamsAbove counts teams with a strictly greater score.
	CountTeamsAbove(ctx context.Context, score int) (int, error)
	// Leaderboard returns every team ordered by score desc, createdAt asc, id asc.
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)

	AddMember(ctx context.Context, member *model.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	// GetMembership returns the user's single membership row, or ErrNotFound.
	GetMembership(ctx context.Context, userID string) (*model.TeamMember, error)
	CountMembers(ctx context.Context, teamID string) (int, error)
	ListMembers(ctx context.Context, teamID string) ([]model.MemberView, error)
}

type JoinRequestRepository interface {
	CreateJoinRequest(ctx context.Context, req *model.JoinRequest) error
	GetJoinRequest(ctx context.Context, id string) (*model.JoinRequest, error)
	HasPendingRequest(ctx context.Context, teamID, userID string) (bool, error)
	SetRequestStatus(ctx context.Context, id string, status model.RequestStatus) error
	// RejectOtherPending rejects every pending request of userID except keepID.
	RejectOtherPending(ctx context.Context, userID, keepID string) (int, error)
	ListPendingForTeam(ctx context.Context, teamID string) ([]model.PendingRequestView, error)
	ListForUser(ctx context.Context, userID string) ([]model.UserRequestView, error)
}

type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, activeOnly bool) ([]model.Event, error)
	CreateRegistration(ctx context.Context, reg *model.EventRegistration) error
	GetRegistration(ctx context.Context, eventID, teamID string) (*model.EventRegistration, error)
	SetRegistrationResult(ctx context.Context, id string, score int, rank *int) error
	CountRegistrations(ctx context.Context, teamID string) (int, error)
	ListRegistrations(ctx context.Context, eventID string) ([]model.RegistrationView, error)
}

// Tx is the full set of repository operations, bound to a transaction when
// obtained through WithTx.
type Tx interface {
	UserRepository
	TeamRepository
	JoinRequestRepository
	EventRepository
}

type Store interface {
	Tx
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
