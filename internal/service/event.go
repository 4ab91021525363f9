package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository"
)

// EventService manages festival events and team registrations.
type EventService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewEventService(store repository.Store, logger *slog.Logger) *EventService {
	return &EventService{
		store:  store,
		logger: logger,
	}
}

type CreateEventInput struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Category string `json:"category"`
	MaxScore int    `json:"maxScore"`
}

// CreateEvent adds an active event. An empty slug is derived from the name.
func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*model.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.MaxScore <= 0 {
		return nil, ErrInvalidEvent
	}

	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, apperror.ValidationFailed("slug", "Event slug must contain letters or digits")
	}

	event := &model.Event{
		Slug:     slug,
		Name:     name,
		Category: strings.TrimSpace(in.Category),
		MaxScore: in.MaxScore,
		IsActive: true,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.New(apperror.ErrConflict, "event_exists", "An event with this slug already exists")
		}
		return nil, logFailure(s.logger, "create event", err, slog.String("slug", slug))
	}

	s.logger.Info("event created",
		slog.String("eventID", event.ID),
		slog.String("slug", event.Slug),
		slog.Int("maxScore", event.MaxScore),
	)
	return event, nil
}

// ListEvents returns the events open for registration.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx, true)
}

// RegisterTeam registers the caller's team for an event. Only the leader can
// do it, the event must be active and the team must have at least
// model.MinTeamSize members.
func (s *EventService) RegisterTeam(ctx context.Context, userID, eventID string) (*model.EventRegistration, error) {
	var reg *model.EventRegistration
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		m, err := membershipOf(ctx, tx, userID)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotInTeam
		}
		if m.Role != model.MemberRoleLeader {
			return errNotLeaderRegister
		}

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if !event.IsActive {
			return ErrEventInactive
		}

		count, err := tx.CountMembers(ctx, m.TeamID)
		if err != nil {
			return err
		}
		if count < model.MinTeamSize {
			return ErrTeamTooSmall
		}

		reg = &model.EventRegistration{EventID: event.ID, TeamID: m.TeamID}
		err = tx.CreateRegistration(ctx, reg)
		if errors.Is(err, apperror.ErrConflict) {
			return ErrAlreadyRegistered
		}
		return err
	})
	if err != nil {
		return nil, logFailure(s.logger, "register team for event", err,
			slog.String("userID", userID), slog.String("eventID", eventID))
	}

	s.logger.Info("team registered for event",
		slog.String("eventID", reg.EventID),
		slog.String("teamID", reg.TeamID),
	)
	return reg, nil
}

// ListRegistrations returns an event's registrations, ranked ones first.
func (s *EventService) ListRegistrations(ctx context.Context, eventID string) ([]model.RegistrationView, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return s.store.ListRegistrations(ctx, eventID)
}
