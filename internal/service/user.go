package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// UserService covers roles, onboarding and the admin user listing.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// UpdateRole sets userID's role. The caller's capability is checked by the
// route; only the role value is validated here.
func (s *UserService) UpdateRole(ctx context.Context, actorID, userID string, role model.Role) (*model.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.ValidationFailed("userId", "User ID is required")
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, "user_not_found", "User not found")
		}
		return nil, logFailure(s.logger, "update role", err, slog.String("userID", userID))
	}

	s.logger.Info("user role updated",
		slog.String("userID", userID),
		slog.String("role", string(role)),
		slog.String("actorID", actorID),
	)
	return user, nil
}

// CompleteOnboarding stores the caller's college profile. All three fields
// are required and the phone number must be 10 digits.
func (s *UserService) CompleteOnboarding(ctx context.Context, userID, rollNo, branch, phone string) (*model.User, error) {
	rollNo = strings.TrimSpace(rollNo)
	branch = strings.TrimSpace(branch)
	phone = strings.TrimSpace(phone)

	if rollNo == "" || branch == "" || phone == "" {
		return nil, ErrOnboardingRequired
	}
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	if err := s.users.UpdateProfile(ctx, userID, rollNo, branch, phone); err != nil {
		return nil, logFailure(s.logger, "update profile", err, slog.String("userID", userID))
	}

	s.logger.Info("user onboarded", slog.String("userID", userID))
	return s.users.GetUserByID(ctx, userID)
}

// ListUsers backs the admin users table. An empty role matches every role.
func (s *UserService) ListUsers(ctx context.Context, role model.Role, search string, limit, offset int) ([]model.User, error) {
	if role != "" && !role.Valid() {
		return nil, ErrInvalidRole
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.ListUsers(ctx, repository.UserFilter{
		Role:        role,
		Search:      strings.TrimSpace(search),
		ListOptions: repository.ListOptions{Limit: limit, Offset: offset},
	})
	if err != nil {
		return nil, logFailure(s.logger, "list users", err)
	}
	return users, nil
}
