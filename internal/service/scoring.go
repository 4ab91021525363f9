package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/cache"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository"
)

// ScoringService records event results and serves the leaderboard.
//
// teams.score is a running total. Every path that changes a registration's
// score goes through applyResult, which writes the registration and adds the
// difference to the team in the same transaction. The addition happens in
// SQL (score = score + ?), never as a read-modify-write in Go.
type ScoringService struct {
	store  repository.Store
	board  cache.LeaderboardCache
	logger *slog.Logger
}

func NewScoringService(store repository.Store, board cache.LeaderboardCache, logger *slog.Logger) *ScoringService {
	return &ScoringService{
		store:  store,
		board:  orNoop(board),
		logger: logger,
	}
}

// SetEventResult records marks and rank for a registered team. marks must be
// within [0, event.MaxScore] and rank at least 1.
func (s *ScoringService) SetEventResult(ctx context.Context, eventID, teamID string, rank, marks int) error {
	if rank < 1 {
		return ErrInvalidRank
	}

	var diff int
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if marks < 0 || marks > event.MaxScore {
			return invalidMarks(event.MaxScore)
		}

		diff, err = applyResult(ctx, tx, eventID, teamID, marks, &rank)
		return err
	})
	if err != nil {
		return logFailure(s.logger, "set event result", err,
			slog.String("eventID", eventID), slog.String("teamID", teamID))
	}

	s.logger.Info("event result recorded",
		slog.String("eventID", eventID),
		slog.String("teamID", teamID),
		slog.Int("marks", marks),
		slog.Int("rank", rank),
		slog.Int("scoreDiff", diff),
	)
	invalidateLeaderboard(ctx, s.board, s.logger)
	return nil
}

// ClearEventResult takes the registration's score back out of the team total
// and resets the registration to score 0 with no rank.
func (s *ScoringService) ClearEventResult(ctx context.Context, eventID, teamID string) error {
	var diff int
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		diff, err = applyResult(ctx, tx, eventID, teamID, 0, nil)
		return err
	})
	if err != nil {
		return logFailure(s.logger, "clear event result", err,
			slog.String("eventID", eventID), slog.String("teamID", teamID))
	}

	s.logger.Info("event result cleared",
		slog.String("eventID", eventID),
		slog.String("teamID", teamID),
		slog.Int("scoreDiff", diff),
	)
	invalidateLeaderboard(ctx, s.board, s.logger)
	return nil
}

// applyResult is the only writer of registration scores. It returns the
// delta applied to the team total. A negative delta larger than the total
// is refused; that can only happen after SetTeamScore lowered the total.
func applyResult(ctx context.Context, tx repository.Tx, eventID, teamID string, marks int, rank *int) (int, error) {
	reg, err := tx.GetRegistration(ctx, eventID, teamID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, ErrRegistrationNotFound
		}
		return 0, err
	}

	diff := marks - reg.Score
	if diff < 0 {
		team, err := tx.GetTeamByID(ctx, teamID)
		if err != nil {
			return 0, err
		}
		if team.Score+diff < 0 {
			return 0, ErrTotalBelowZero
		}
	}
	if err := tx.SetRegistrationResult(ctx, reg.ID, marks, rank); err != nil {
		return 0, err
	}
	if diff != 0 {
		if err := tx.AddTeamScore(ctx, teamID, diff); err != nil {
			return 0, err
		}
	}
	return diff, nil
}

// SetTeamScore overwrites a team's total directly. It is an admin correction
// and breaks the link between the total and the registration scores, so it
// is logged at Warn with the old value.
func (s *ScoringService) SetTeamScore(ctx context.Context, actorID, teamID string, score int) (*model.Team, error) {
	if score < 0 {
		return nil, ErrInvalidScore
	}

	var (
		before int
		team   *model.Team
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetTeamByID(ctx, teamID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return errTeamIDNotFound
			}
			return err
		}
		before = current.Score

		team, err = tx.SetTeamScore(ctx, teamID, score)
		return err
	})
	if err != nil {
		return nil, logFailure(s.logger, "set team score", err, slog.String("teamID", teamID))
	}

	s.logger.Warn("team score overridden",
		slog.String("teamID", teamID),
		slog.String("actorID", actorID),
		slog.Int("from", before),
		slog.Int("to", score),
	)
	invalidateLeaderboard(ctx, s.board, s.logger)
	return team, nil
}

// Leaderboard returns all teams ranked by score. It is served from the cache
// when possible; a cache error only costs a database read. A miss is filled
// under the version seen before the database read, so a write committed in
// between is never masked by the older board.
func (s *ScoringService) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	entries, version, err := s.board.Get(ctx)
	if err == nil {
		return entries, nil
	}
	fill := errors.Is(err, cache.ErrMiss)
	if !fill {
		s.logger.Warn("leaderboard cache read failed", slog.String("error", err.Error()))
	}

	entries, err = s.store.Leaderboard(ctx)
	if err != nil {
		return nil, logFailure(s.logger, "load leaderboard", err)
	}

	if fill {
		if err := s.board.Set(ctx, version, entries); err != nil {
			s.logger.Warn("leaderboard cache write failed", slog.String("error", err.Error()))
		}
	}
	return entries, nil
}
