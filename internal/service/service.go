// Package service holds the festival's business rules: team lifecycle, the
// join-request workflow, membership changes, event registration and scoring.
//
// Services never see HTTP. Each operation takes the acting user's ID as an
// explicit argument, runs every multi-step mutation inside one
// repository.Store transaction, and returns either a result or an
// *apperror.AppError the handler layer maps to a status code.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/cache"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository"
)

const (
	MaxTeamNameLength = 50
	DefaultListLimit  = 50
	MaxListLimit      = 500
)

// membershipOf returns the user's team membership, or nil if the user is in
// no team.
func membershipOf(ctx context.Context, teams repository.TeamRepository, userID string) (*model.TeamMember, error) {
	m, err := teams.GetMembership(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// invalidateLeaderboard drops the cached leaderboard after a change to team
// scores, team membership or the set of teams. The change is already
// committed, so a cache failure is only logged; the entry expires on its own.
func invalidateLeaderboard(ctx context.Context, board cache.LeaderboardCache, logger *slog.Logger) {
	if err := board.Invalidate(ctx); err != nil {
		logger.Warn("failed to invalidate leaderboard cache", slog.String("error", err.Error()))
	}
}

func orNoop(board cache.LeaderboardCache) cache.LeaderboardCache {
	if board == nil {
		return cache.Noop{}
	}
	return board
}

// hidePhones blanks phone numbers in member views shown outside the admin area.
func hidePhones(members []model.MemberView) []model.MemberView {
	for i := range members {
		members[i].Phone = ""
	}
	return members
}

// logFailure logs err at Error level unless it is an expected domain
// failure, and returns it with the operation name attached.
func logFailure(logger *slog.Logger, op string, err error, attrs ...any) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	logger.Error("failed to "+op, append(attrs, slog.String("error", err.Error()))...)
	return fmt.Errorf("%s: %w", op, err)
}
