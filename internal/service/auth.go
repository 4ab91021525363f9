package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/robosaga/internal/auth"
	"github.com/sakif/robosaga/internal/model"
	"github.com/sakif/robosaga/internal/repository"
)

// AuthService turns a GitHub identity into a local user and a session token.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	adminLogins map[string]bool
	logger      *slog.Logger
}

// NewAuthService creates an AuthService. Users whose GitHub login is in
// adminLogins (case-insensitive) are promoted to admin when they sign in.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	adminLogins []string,
	logger *slog.Logger,
) *AuthService {
	admins := make(map[string]bool, len(adminLogins))
	for _, login := range adminLogins {
		admins[strings.ToLower(login)] = true
	}
	return &AuthService{
		users:       users,
		tokens:      tokens,
		adminLogins: admins,
		logger:      logger,
	}
}

type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub upserts the user behind a GitHub identity and issues
// a session token. New users start with the "user" role.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		Name:      ghUser.Name,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	if s.adminLogins[strings.ToLower(user.Login)] && user.Role != model.RoleAdmin {
		promoted, err := s.users.UpdateRole(ctx, user.ID, model.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("service/auth: promoting %s to admin: %w", user.Login, err)
		}
		user = promoted
		s.logger.Info("user promoted to admin", slog.String("userID", user.ID), slog.String("login", user.Login))
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{
		User:  user,
		Token: token,
	}, nil
}
