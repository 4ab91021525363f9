package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/model"
)

// CreateJoinRequest inserts a pending request. The partial unique index
// idx_join_requests_pending turns a duplicate pending request into a conflict.
func (db *queries) CreateJoinRequest(ctx context.Context, req *model.JoinRequest) error {
	req.ID = xid.New().String()
	req.CreatedAt = time.Now().UTC()
	if req.Status == "" {
		req.Status = model.RequestPending
	}

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO join_requests (id, team_id, user_id, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		req.ID, req.TeamID, req.UserID, string(req.Status), req.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("join request", req.TeamID)
		}
		return fmt.Errorf("sqlite: creating join request: %w", err)
	}
	return nil
}

func (db *queries) GetJoinRequest(ctx context.Context, id string) (*model.JoinRequest, error) {
	var r model.JoinRequest
	err := db.q.QueryRowContext(ctx,
		`SELECT id, team_id, user_id, status, created_at FROM join_requests WHERE id = ?`, id,
	).Scan(&r.ID, &r.TeamID, &r.UserID, &r.Status, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("join request", id)
		}
		return nil, fmt.Errorf("sqlite: getting join request %s: %w", id, err)
	}
	return &r, nil
}

func (db *queries) HasPendingRequest(ctx context.Context, teamID, userID string) (bool, error) {
	var exists bool
	err := db.q.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM join_requests
			WHERE team_id = ? AND user_id = ? AND status = 'pending'
		)`,
		teamID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking pending request (team=%s, user=%s): %w", teamID, userID, err)
	}
	return exists, nil
}

func (db *queries) SetRequestStatus(ctx context.Context, id string, status model.RequestStatus) error {
	result, err := db.q.ExecContext(ctx,
		`UPDATE join_requests SET status = ? WHERE id = ?`, string(status), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting status of join request %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("join request", id))
}

func (db *queries) RejectOtherPending(ctx context.Context, userID, keepID string) (int, error) {
	result, err := db.q.ExecContext(ctx,
		`UPDATE join_requests SET status = 'rejected'
		 WHERE user_id = ? AND status = 'pending' AND id <> ?`,
		userID, keepID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: rejecting other requests of user %s: %w", userID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return int(n), nil
}

func (db *queries) ListPendingForTeam(ctx context.Context, teamID string) ([]model.PendingRequestView, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT r.id, u.id, CASE WHEN u.name = '' THEN u.login ELSE u.name END,
		        COALESCE(u.email, ''), u.avatar_url, r.created_at
		 FROM join_requests r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.team_id = ? AND r.status = 'pending'
		 ORDER BY r.created_at ASC, r.id ASC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing pending requests of team %s: %w", teamID, err)
	}
	defer rows.Close()

	requests := make([]model.PendingRequestView, 0)
	for rows.Next() {
		var r model.PendingRequestView
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Email, &r.AvatarURL, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning pending request row: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating pending requests: %w", err)
	}
	return requests, nil
}

func (db *queries) ListForUser(ctx context.Context, userID string) ([]model.UserRequestView, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT r.id, t.id, t.name, t.slug, r.status, r.created_at
		 FROM join_requests r
		 JOIN teams t ON t.id = r.team_id
		 WHERE r.user_id = ?
		 ORDER BY r.created_at DESC, r.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing requests of user %s: %w", userID, err)
	}
	defer rows.Close()

	requests := make([]model.UserRequestView, 0)
	for rows.Next() {
		var r model.UserRequestView
		if err := rows.Scan(&r.ID, &r.TeamID, &r.TeamName, &r.TeamSlug, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user request row: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user requests: %w", err)
	}
	return requests, nil
}
