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

var userColumns = []string{
	"id", "github_id", "login", "name", "email", "avatar_url", "role",
	"roll_no", "branch", "phone", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u     model.User
		email sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.GitHubID, &u.Login, &u.Name, &email, &u.AvatarURL, &u.Role,
		&u.RollNo, &u.Branch, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	return &u, nil
}

// Upsert inserts a user on first sign-in or refreshes the GitHub profile
// fields of an existing one. Role and onboarding fields are never touched on
// the update path. After the call, user holds the stored row.
func (db *queries) Upsert(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.q.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	now := time.Now().UTC()

	if existingID != "" {
		_, err = db.q.ExecContext(ctx,
			`UPDATE users SET login = ?, name = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Login, user.Name, nullString(user.Email), user.AvatarURL, now, existingID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user email", user.Email)
			}
			return fmt.Errorf("sqlite: updating user %s: %w", existingID, err)
		}
	} else {
		existingID = xid.New().String()
		role := user.Role
		if role == "" {
			role = model.RoleUser
		}
		_, err = db.q.ExecContext(ctx,
			`INSERT INTO users (id, github_id, login, name, email, avatar_url, role, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			existingID, user.GitHubID, user.Login, user.Name, nullString(user.Email),
			user.AvatarURL, string(role), now, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user email", user.Email)
			}
			return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
		}
	}

	stored, err := db.GetUserByID(ctx, existingID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user exists with that ID.
func (db *queries) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query, args, err := sq.Select(userColumns...).From("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building user query: %w", err)
	}

	u, err := scanUser(db.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// ListUsers backs the admin users table. Filters are optional, so the query
// is assembled with squirrel instead of string concatenation.
func (db *queries) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	builder := sq.Select(userColumns...).
		From("users").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	if filter.Role != "" {
		builder = builder.Where(sq.Eq{"role": string(filter.Role)})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		builder = builder.Where(sq.Or{
			sq.Like{"name": pattern},
			sq.Like{"login": pattern},
			sq.Like{"email": pattern},
		})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building users query: %w", err)
	}

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

func (db *queries) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	result, err := db.q.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating role of user %s: %w", id, err)
	}
	if err := checkAffected(result, apperror.NotFound("user", id)); err != nil {
		return nil, err
	}
	return db.GetUserByID(ctx, id)
}

func (db *queries) UpdateProfile(ctx context.Context, id, rollNo, branch, phone string) error {
	result, err := db.q.ExecContext(ctx,
		`UPDATE users SET roll_no = ?, branch = ?, phone = ?, updated_at = ? WHERE id = ?`,
		rollNo, branch, phone, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile of user %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("user", id))
}
