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
)

func scanEvent(row rowScanner) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Slug, &e.Name, &e.Category, &e.MaxScore, &e.IsActive, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (db *queries) CreateEvent(ctx context.Context, event *model.Event) error {
	event.ID = xid.New().String()
	event.CreatedAt = time.Now().UTC()

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO events (id, slug, name, category, max_score, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Slug, event.Name, event.Category, event.MaxScore, event.IsActive, event.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("event slug", event.Slug)
		}
		return fmt.Errorf("sqlite: creating event: %w", err)
	}
	return nil
}

func (db *queries) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(db.q.QueryRowContext(ctx,
		`SELECT id, slug, name, category, max_score, is_active, created_at FROM events WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}
	return e, nil
}

func (db *queries) ListEvents(ctx context.Context, activeOnly bool) ([]model.Event, error) {
	builder := sq.Select("id", "slug", "name", "category", "max_score", "is_active", "created_at").
		From("events").
		OrderBy("created_at ASC", "id ASC")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building events query: %w", err)
	}

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}
	return events, nil
}

// CreateRegistration links a team to an event. UNIQUE (event_id, team_id)
// makes a second registration a conflict.
func (db *queries) CreateRegistration(ctx context.Context, reg *model.EventRegistration) error {
	reg.ID = xid.New().String()
	reg.RegisteredAt = time.Now().UTC()

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO event_registrations (id, event_id, team_id, score, rank, registered_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		reg.ID, reg.EventID, reg.TeamID, reg.Score, nullInt(reg.Rank), reg.RegisteredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("event registration", reg.TeamID)
		}
		return fmt.Errorf("sqlite: creating registration: %w", err)
	}
	return nil
}

func scanRegistration(row rowScanner, extra ...any) (*model.EventRegistration, error) {
	var (
		r     model.EventRegistration
		score sql.NullInt64
		rank  sql.NullInt64
	)
	dest := append([]any{&r.ID, &r.EventID, &r.TeamID, &score, &rank, &r.RegisteredAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	// A NULL score counts as zero.
	r.Score = int(score.Int64)
	if rank.Valid {
		v := int(rank.Int64)
		r.Rank = &v
	}
	return &r, nil
}

func (db *queries) GetRegistration(ctx context.Context, eventID, teamID string) (*model.EventRegistration, error) {
	r, err := scanRegistration(db.q.QueryRowContext(ctx,
		`SELECT id, event_id, team_id, score, rank, registered_at
		 FROM event_registrations WHERE event_id = ? AND team_id = ?`,
		eventID, teamID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event registration", eventID+"/"+teamID)
		}
		return nil, fmt.Errorf("sqlite: getting registration (event=%s, team=%s): %w", eventID, teamID, err)
	}
	return r, nil
}

func (db *queries) SetRegistrationResult(ctx context.Context, id string, score int, rank *int) error {
	result, err := db.q.ExecContext(ctx,
		`UPDATE event_registrations SET score = ?, rank = ? WHERE id = ?`, score, nullInt(rank), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting result of registration %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("event registration", id))
}

func (db *queries) CountRegistrations(ctx context.Context, teamID string) (int, error) {
	var n int
	err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE team_id = ?`, teamID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting registrations of team %s: %w", teamID, err)
	}
	return n, nil
}

func (db *queries) ListRegistrations(ctx context.Context, eventID string) ([]model.RegistrationView, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT r.id, r.event_id, r.team_id, r.score, r.rank, r.registered_at,
		        t.name, t.slug, t.leader_id
		 FROM event_registrations r
		 JOIN teams t ON t.id = r.team_id
		 WHERE r.event_id = ?
		 ORDER BY r.rank IS NULL, r.rank ASC, r.registered_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing registrations of event %s: %w", eventID, err)
	}
	defer rows.Close()

	views := make([]model.RegistrationView, 0)
	for rows.Next() {
		var v model.RegistrationView
		r, err := scanRegistration(rows, &v.TeamName, &v.TeamSlug, &v.LeaderID)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning registration row: %w", err)
		}
		v.EventRegistration = *r
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating registrations: %w", err)
	}
	return views, nil
}
