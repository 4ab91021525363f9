package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/cache"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository"
)

// JoinService runs the join-request workflow. A request moves from pending
// to accepted or rejected exactly once; both are terminal.
//
// Every check is repeated inside the transaction that commits the change.
// Membership and team size may have changed since the request was created,
// so staleness is resolved at accept time.
type JoinService struct {
	store  repository.Store
	board  cache.LeaderboardCache
	logger *slog.Logger
}

func NewJoinService(store repository.Store, board cache.LeaderboardCache, logger *slog.Logger) *JoinService {
	return &JoinService{
		store:  store,
		board:  orNoop(board),
		logger: logger,
	}
}

// RequestJoin files a pending request from userID to the team with the given
// slug and returns that team. Checks run in a fixed order: team exists, team
// has room, user has no team, no pending request to this team yet.
func (s *JoinService) RequestJoin(ctx context.Context, userID, slug string) (*model.Team, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrTeamCodeRequired
	}

	var team *model.Team
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		team, err = tx.GetTeamBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		count, err := tx.CountMembers(ctx, team.ID)
		if err != nil {
			return err
		}
		if count >= model.MaxTeamSize {
			return ErrTeamFull
		}

		m, err := membershipOf(ctx, tx, userID)
		if err != nil {
			return err
		}
		if m != nil {
			return ErrAlreadyInTeam
		}

		pending, err := tx.HasPendingRequest(ctx, team.ID, userID)
		if err != nil {
			return err
		}
		if pending {
			return ErrRequestAlreadyPending
		}

		err = tx.CreateJoinRequest(ctx, &model.JoinRequest{TeamID: team.ID, UserID: userID})
		if errors.Is(err, apperror.ErrConflict) {
			return ErrRequestAlreadyPending
		}
		return err
	})
	if err != nil {
		return nil, logFailure(s.logger, "request to join team", err,
			slog.String("userID", userID), slog.String("slug", slug))
	}

	s.logger.Info("join request created",
		slog.String("teamID", team.ID),
		slog.String("userID", userID),
	)
	return team, nil
}

// AcceptRequest adds the requesting user to the leader's team.
//
// If the user has joined another team since asking, the request is marked
// rejected and ErrUserAlreadyInTeam is returned; the rejection is committed
// even though the call fails. On success the user's other pending requests
// are rejected in the same transaction.
func (s *JoinService) AcceptRequest(ctx context.Context, leaderID, requestID string) error {
	var (
		req   *model.JoinRequest
		stale bool
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = pendingRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}

		team, err := tx.GetTeamByID(ctx, req.TeamID)
		if err != nil {
			return err
		}
		if team.LeaderID != leaderID {
			return errNotLeaderAccept
		}

		count, err := tx.CountMembers(ctx, team.ID)
		if err != nil {
			return err
		}
		if count >= model.MaxTeamSize {
			return ErrTeamFull
		}

		m, err := membershipOf(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if m == nil {
			err = tx.AddMember(ctx, &model.TeamMember{
				TeamID: team.ID,
				UserID: req.UserID,
				Role:   model.MemberRoleMember,
			})
			if err != nil && !errors.Is(err, apperror.ErrConflict) {
				return err
			}
			stale = err != nil
		} else {
			stale = true
		}

		if stale {
			return tx.SetRequestStatus(ctx, req.ID, model.RequestRejected)
		}

		if err := tx.SetRequestStatus(ctx, req.ID, model.RequestAccepted); err != nil {
			return err
		}
		rejected, err := tx.RejectOtherPending(ctx, req.UserID, req.ID)
		if err != nil {
			return err
		}
		if rejected > 0 {
			s.logger.Info("rejected other pending requests",
				slog.String("userID", req.UserID),
				slog.Int("count", rejected),
			)
		}
		return nil
	})
	if err != nil {
		return logFailure(s.logger, "accept join request", err, slog.String("requestID", requestID))
	}

	if stale {
		s.logger.Info("join request rejected: user already in a team",
			slog.String("requestID", requestID),
			slog.String("userID", req.UserID),
		)
		return ErrUserAlreadyInTeam
	}

	s.logger.Info("join request accepted",
		slog.String("requestID", requestID),
		slog.String("teamID", req.TeamID),
		slog.String("userID", req.UserID),
	)
	invalidateLeaderboard(ctx, s.board, s.logger)
	return nil
}

// RejectRequest marks a pending request rejected. Rejecting a request that
// is no longer pending fails with ErrRequestNotFound and changes nothing.
func (s *JoinService) RejectRequest(ctx context.Context, leaderID, requestID string) error {
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		req, err := pendingRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}

		team, err := tx.GetTeamByID(ctx, req.TeamID)
		if err != nil {
			return err
		}
		if team.LeaderID != leaderID {
			return errNotLeaderReject
		}

		return tx.SetRequestStatus(ctx, req.ID, model.RequestRejected)
	})
	if err != nil {
		return logFailure(s.logger, "reject join request", err, slog.String("requestID", requestID))
	}

	s.logger.Info("join request rejected", slog.String("requestID", requestID))
	return nil
}

// ListUserRequests returns every request the user has made, newest first.
func (s *JoinService) ListUserRequests(ctx context.Context, userID string) ([]model.UserRequestView, error) {
	return s.store.ListForUser(ctx, userID)
}

func pendingRequest(ctx context.Context, tx repository.JoinRequestRepository, id string) (*model.JoinRequest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrRequestIDRequired
	}
	req, err := tx.GetJoinRequest(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.Status != model.RequestPending {
		return nil, ErrRequestNotFound
	}
	return req, nil
}
