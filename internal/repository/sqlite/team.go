package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository"
)

const teamColumns = `id, slug, name, score, leader_id, created_at`

func scanTeam(row rowScanner) (*model.Team, error) {
	var t model.Team
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Score, &t.LeaderID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTeam inserts the team row. ID and CreatedAt are filled in here;
// Slug must already be set by the caller.
func (db *queries) CreateTeam(ctx context.Context, team *model.Team) error {
	team.ID = xid.New().String()
	team.CreatedAt = time.Now().UTC()

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO teams (id, slug, name, score, leader_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		team.ID, team.Slug, team.Name, team.Score, team.LeaderID, team.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("team slug", team.Slug)
		}
		return fmt.Errorf("sqlite: creating team: %w", err)
	}
	return nil
}

func (db *queries) GetTeamByID(ctx context.Context, id string) (*model.Team, error) {
	t, err := scanTeam(db.q.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("team", id)
		}
		return nil, fmt.Errorf("sqlite: getting team %s: %w", id, err)
	}
	return t, nil
}

func (db *queries) GetTeamBySlug(ctx context.Context, slug string) (*model.Team, error) {
	t, err := scanTeam(db.q.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE slug = ?`, slug,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("team", slug)
		}
		return nil, fmt.Errorf("sqlite: getting team by slug %s: %w", slug, err)
	}
	return t, nil
}

// ListTeams returns teams newest first. A zero Limit means no limit.
func (db *queries) ListTeams(ctx context.Context, opts repository.ListOptions) ([]model.Team, error) {
	builder := sq.Select("id", "slug", "name", "score", "leader_id", "created_at").
		From("teams").
		OrderBy("created_at DESC", "id DESC")
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		builder = builder.Offset(uint64(opts.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building teams query: %w", err)
	}

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing teams: %w", err)
	}
	defer rows.Close()

	teams := make([]model.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning team row: %w", err)
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating teams: %w", err)
	}
	return teams, nil
}

// DeleteTeam removes the team; members, join requests and event
// registrations go with it through ON DELETE CASCADE.
func (db *queries) DeleteTeam(ctx context.Context, id string) error {
	result, err := db.q.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting team %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("team", id))
}

// AddTeamScore applies the delta inside the UPDATE itself, so two writers
// adding to the same team never overwrite each other.
func (db *queries) AddTeamScore(ctx context.Context, teamID string, delta int) error {
	result, err := db.q.ExecContext(ctx,
		`UPDATE teams SET score = score + ? WHERE id = ?`, delta, teamID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding %d to score of team %s: %w", delta, teamID, err)
	}
	return checkAffected(result, apperror.NotFound("team", teamID))
}

func (db *queries) SetTeamScore(ctx context.Context, teamID string, score int) (*model.Team, error) {
	result, err := db.q.ExecContext(ctx,
		`UPDATE teams SET score = ? WHERE id = ?`, score, teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: setting score of team %s: %w", teamID, err)
	}
	if err := checkAffected(result, apperror.NotFound("team", teamID)); err != nil {
		return nil, err
	}
	return db.GetTeamByID(ctx, teamID)
}

func (db *queries) CountTeamsAbove(ctx context.Context, score int) (int, error) {
	var n int
	err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teams WHERE score > ?`, score,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting teams above %d: %w", score, err)
	}
	return n, nil
}

// Leaderboard ranks teams by score. Equal scores keep the older team first,
// then fall back to id so the order is fully deterministic.
func (db *queries) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT t.id, t.name, t.slug, t.score, COUNT(m.user_id)
		 FROM teams t
		 LEFT JOIN team_members m ON m.team_id = t.id
		 GROUP BY t.id
		 ORDER BY t.score DESC, t.created_at ASC, t.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]model.LeaderboardEntry, 0)
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.TeamID, &e.TeamName, &e.Slug, &e.Points, &e.Members); err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard: %w", err)
	}
	return entries, nil
}

// AddMember inserts a membership row. A unique violation means the user is
// already in a team (idx_team_members_user) and is reported as a conflict.
func (db *queries) AddMember(ctx context.Context, member *model.TeamMember) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		member.TeamID, member.UserID, string(member.Role), member.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("team member", member.UserID)
		}
		return fmt.Errorf("sqlite: adding member %s to team %s: %w", member.UserID, member.TeamID, err)
	}
	return nil
}

func (db *queries) RemoveMember(ctx context.Context, teamID, userID string) error {
	result, err := db.q.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing member %s from team %s: %w", userID, teamID, err)
	}
	return checkAffected(result, apperror.NotFound("team member", userID))
}

func (db *queries) GetMembership(ctx context.Context, userID string) (*model.TeamMember, error) {
	var m model.TeamMember
	err := db.q.QueryRowContext(ctx,
		`SELECT team_id, user_id, role, joined_at FROM team_members WHERE user_id = ?`, userID,
	).Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("team membership", userID)
		}
		return nil, fmt.Errorf("sqlite: getting membership of user %s: %w", userID, err)
	}
	return &m, nil
}

func (db *queries) CountMembers(ctx context.Context, teamID string) (int, error) {
	var n int
	err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM team_members WHERE team_id = ?`, teamID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting members of team %s: %w", teamID, err)
	}
	return n, nil
}

// ListMembers returns the leader first, then members in join order.
func (db *queries) ListMembers(ctx context.Context, teamID string) ([]model.MemberView, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT u.id, CASE WHEN u.name = '' THEN u.login ELSE u.name END,
		        COALESCE(u.email, ''), u.avatar_url, u.phone, m.role, m.joined_at
		 FROM team_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.team_id = ?
		 ORDER BY m.role = 'leader' DESC, m.joined_at ASC, u.id ASC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing members of team %s: %w", teamID, err)
	}
	defer rows.Close()

	members := make([]model.MemberView, 0, model.MaxTeamSize)
	for rows.Next() {
		var m model.MemberView
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.AvatarURL, &m.Phone, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating members: %w", err)
	}
	return members, nil
}
