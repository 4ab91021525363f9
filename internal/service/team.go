package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/cache"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository"
)

// TeamService covers the team lifecycle, membership changes and the
// read-only team views.
type TeamService struct {
	store  repository.Store
	board  cache.LeaderboardCache
	logger *slog.Logger
}

func NewTeamService(store repository.Store, board cache.LeaderboardCache, logger *slog.Logger) *TeamService {
	return &TeamService{
		store:  store,
		board:  orNoop(board),
		logger: logger,
	}
}

// CreateTeam creates a team led by userID. The team row and the leader's
// membership row are written in one transaction.
func (s *TeamService) CreateTeam(ctx context.Context, userID, name string) (*model.Team, error) {
	name = strings.TrimSpace(name)

	var team *model.Team
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		existing, err := membershipOf(ctx, tx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errAlreadyInTeamOnCreate
		}

		if name == "" {
			return ErrInvalidTeamName
		}
		if utf8.RuneCountInString(name) > MaxTeamNameLength {
			return ErrTeamNameTooLong
		}

		team = &model.Team{
			Name:     name,
			Slug:     teamSlug(name),
			LeaderID: userID,
		}
		if err := tx.CreateTeam(ctx, team); err != nil {
			return err
		}

		err = tx.AddMember(ctx, &model.TeamMember{
			TeamID: team.ID,
			UserID: userID,
			Role:   model.MemberRoleLeader,
		})
		if errors.Is(err, apperror.ErrConflict) {
			return errAlreadyInTeamOnCreate
		}
		return err
	})
	if err != nil {
		return nil, s.fail("create team", err, slog.String("userID", userID))
	}

	s.logger.Info("team created",
		slog.String("teamID", team.ID),
		slog.String("slug", team.Slug),
		slog.String("leaderID", userID),
	)
	invalidateLeaderboard(ctx, s.board, s.logger)
	return team, nil
}

// DeleteTeam removes the team together with its members, join requests and
// event registrations. Only the leader may do it.
func (s *TeamService) DeleteTeam(ctx context.Context, requesterID, teamID string) error {
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		team, err := tx.GetTeamByID(ctx, teamID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return errTeamIDNotFound
			}
			return err
		}
		if team.LeaderID != requesterID {
			return errNotLeaderDelete
		}
		return tx.DeleteTeam(ctx, teamID)
	})
	if err != nil {
		return s.fail("delete team", err, slog.String("teamID", teamID))
	}

	s.logger.Info("team deleted",
		slog.String("teamID", teamID),
		slog.String("leaderID", requesterID),
	)
	invalidateLeaderboard(ctx, s.board, s.logger)
	return nil
}

// RemoveMember lets the leader drop another member from the team.
func (s *TeamService) RemoveMember(ctx context.Context, leaderID, memberID string) error {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return ErrMemberIDRequired
	}

	var teamID string
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		m, err := membershipOf(ctx, tx, leaderID)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotInTeam
		}
		if m.Role != model.MemberRoleLeader {
			return errNotLeaderRemove
		}
		if memberID == leaderID {
			return ErrCannotRemoveSelf
		}

		teamID = m.TeamID
		err = tx.RemoveMember(ctx, m.TeamID, memberID)
		if errors.Is(err, apperror.ErrNotFound) {
			return ErrNotTeamMember
		}
		return err
	})
	if err != nil {
		return s.fail("remove member", err, slog.String("memberID", memberID))
	}

	s.logger.Info("member removed",
		slog.String("teamID", teamID),
		slog.String("memberID", memberID),
	)
	invalidateLeaderboard(ctx, s.board, s.logger)
	return nil
}

// LeaveTeam removes the caller from their team. The leader cannot leave;
// there is no leadership transfer, so a leader can only delete the team.
func (s *TeamService) LeaveTeam(ctx context.Context, userID string) error {
	var teamID string
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		m, err := membershipOf(ctx, tx, userID)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotInTeam
		}
		if m.Role == model.MemberRoleLeader {
			return ErrLeaderCannotLeave
		}
		teamID = m.TeamID
		return tx.RemoveMember(ctx, m.TeamID, userID)
	})
	if err != nil {
		return s.fail("leave team", err, slog.String("userID", userID))
	}

	s.logger.Info("member left team",
		slog.String("teamID", teamID),
		slog.String("userID", userID),
	)
	invalidateLeaderboard(ctx, s.board, s.logger)
	return nil
}

// GetUserTeam returns the caller's team with its members, and the pending
// join requests when the caller leads it. It returns nil if the caller is in
// no team.
func (s *TeamService) GetUserTeam(ctx context.Context, userID string) (*model.TeamDetails, error) {
	m, err := membershipOf(ctx, s.store, userID)
	if err != nil || m == nil {
		return nil, err
	}

	team, err := s.store.GetTeamByID(ctx, m.TeamID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("loading members of team %s: %w", team.ID, err)
	}

	details := &model.TeamDetails{
		Team:            *team,
		Members:         hidePhones(members),
		PendingRequests: []model.PendingRequestView{},
		IsLeader:        team.LeaderID == userID,
		MinTeamSize:     model.MinTeamSize,
		MaxTeamSize:     model.MaxTeamSize,
	}
	if details.IsLeader {
		details.PendingRequests, err = s.store.ListPendingForTeam(ctx, team.ID)
		if err != nil {
			return nil, fmt.Errorf("loading pending requests of team %s: %w", team.ID, err)
		}
	}
	return details, nil
}

// GetTeamBySlug is the public team page. It needs no session.
func (s *TeamService) GetTeamBySlug(ctx context.Context, slug string) (*model.PublicTeam, []model.MemberView, error) {
	team, err := s.store.GetTeamBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, errTeamIDNotFound
		}
		return nil, nil, err
	}

	members, err := s.store.ListMembers(ctx, team.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading members of team %s: %w", team.ID, err)
	}

	public := &model.PublicTeam{
		ID:        team.ID,
		Name:      team.Name,
		Slug:      team.Slug,
		LeaderID:  team.LeaderID,
		CreatedAt: team.CreatedAt,
	}
	return public, hidePhones(members), nil
}

// ViewerOf tells whether userID belongs to teamID or is waiting on a pending
// request to join it.
func (s *TeamService) ViewerOf(ctx context.Context, teamID, userID string) (*model.TeamViewer, error) {
	m, err := membershipOf(ctx, s.store, userID)
	if err != nil {
		return nil, fmt.Errorf("loading membership of user %s: %w", userID, err)
	}

	viewer := &model.TeamViewer{IsMember: m != nil && m.TeamID == teamID}
	if !viewer.IsMember {
		viewer.HasPendingRequest, err = s.store.HasPendingRequest(ctx, teamID, userID)
		if err != nil {
			return nil, fmt.Errorf("checking pending request of user %s: %w", userID, err)
		}
	}
	return viewer, nil
}

// GetUserTeamProfile returns the caller's team with event and rank stats, or
// nil if the caller is in no team. Rank is one plus the number of teams with
// a strictly greater score, so tied teams share a rank here.
func (s *TeamService) GetUserTeamProfile(ctx context.Context, userID string) (*model.TeamProfile, error) {
	m, err := membershipOf(ctx, s.store, userID)
	if err != nil || m == nil {
		return nil, err
	}

	team, err := s.store.GetTeamByID(ctx, m.TeamID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("loading members of team %s: %w", team.ID, err)
	}
	events, err := s.store.CountRegistrations(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	above, err := s.store.CountTeamsAbove(ctx, team.Score)
	if err != nil {
		return nil, err
	}

	return &model.TeamProfile{
		Team:         *team,
		Members:      hidePhones(members),
		UserRole:     m.Role,
		EventsJoined: events,
		Rank:         above + 1,
	}, nil
}

// ListAdminTeams returns every team, newest first, with full member details
// including phone numbers.
func (s *TeamService) ListAdminTeams(ctx context.Context) ([]model.AdminTeam, error) {
	teams, err := s.store.ListTeams(ctx, repository.ListOptions{})
	if err != nil {
		s.logger.Error("failed to list teams", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing teams: %w", err)
	}

	out := make([]model.AdminTeam, 0, len(teams))
	for _, t := range teams {
		members, err := s.store.ListMembers(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("loading members of team %s: %w", t.ID, err)
		}
		out = append(out, model.AdminTeam{Team: t, Members: members})
	}
	return out, nil
}

// fail logs unexpected errors and passes domain errors through untouched.
func (s *TeamService) fail(op string, err error, attrs ...any) error {
	return logFailure(s.logger, op, err, attrs...)
}
