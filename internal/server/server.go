// Package server is the composition root: it opens the database and the
// leaderboard cache, builds the services and handlers, and maps them to
// routes.
//
// DEPENDENCY FLOW:
//
//	config.Config → sqlite.DB (repository.Store) + cache.LeaderboardCache
//	             → services (Team, Join, Scoring, Event, User, Auth)
//	             → handlers → chi routes
//
// Each layer only receives what it needs. Handlers never touch the database
// and services never see HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/robosaga/internal/auth"
	"github.com/sakif/robosaga/internal/cache"
	"github.com/sakif/robosaga/internal/config"
	"github.com/sakif/robosaga/internal/handler"
	"github.com/sakif/robosaga/internal/middleware"
	sqliteRepo "github.com/sakif/robosaga/internal/repository/sqlite"
	"github.com/sakif/robosaga/internal/service"
)

// Server owns the router and the long-lived resources (database pool and
// Redis client) that must be closed on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	redis  *redis.Client // nil when the leaderboard is not cached
}

// New wires every dependency. JWT_SECRET is required; without GitHub
// credentials the server starts but the sign-in routes are not registered.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	board, err := s.leaderboardCache()
	if err != nil {
		db.Close()
		return nil, err
	}

	s.setupRoutes(tokens, board)
	return s, nil
}

// leaderboardCache connects to Redis when REDIS_ADDR is set and falls back
// to no caching otherwise.
func (s *Server) leaderboardCache() (cache.LeaderboardCache, error) {
	if s.config.RedisAddr == "" {
		s.logger.Info("REDIS_ADDR not set, leaderboard is not cached")
		return cache.Noop{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := cache.Dial(ctx, s.config.RedisAddr, s.config.RedisPassword, s.config.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	s.redis = client

	s.logger.Info("leaderboard cache enabled",
		slog.String("addr", s.config.RedisAddr),
		slog.Duration("ttl", s.config.LeaderboardTTL),
	)
	return cache.NewRedis(client, s.config.LeaderboardTTL), nil
}

// setupRoutes configures middleware and routes.
//
// ROUTE STRUCTURE:
//
//	GET    /auth/github/login, /auth/github/callback   sign-in (when GitHub is configured)
//	POST   /auth/logout
//	GET    /api/leaderboard, /api/events, /api/teams/{slug}   public (session optional on the team page)
//	       /api/me, /api/onboarding, /api/teams/...            session required
//	       /api/admin/...                                      session + capability
//
// MIDDLEWARE ORDER:
// RequestID runs first so the logger can print it; Recoverer sits inside the
// logger so a panic is still logged as a 500.
func (s *Server) setupRoutes(tokens *auth.TokenService, board cache.LeaderboardCache) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	teams := service.NewTeamService(s.db, board, s.logger)
	joins := service.NewJoinService(s.db, board, s.logger)
	scoring := service.NewScoringService(s.db, board, s.logger)
	events := service.NewEventService(s.db, s.logger)
	users := service.NewUserService(s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, s.config.AdminLogins, s.logger)

	teamHandler := handler.NewTeamHandler(teams, joins, events, s.logger)
	adminHandler := handler.NewAdminHandler(scoring, teams, users, events, s.logger)
	publicHandler := handler.NewPublicHandler(scoring, events, s.logger)

	var github handler.GitHubSignIn
	if s.config.AuthEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}
	authHandler := handler.NewAuthHandler(github, authService, users, s.logger)

	// === Sign-in ===
	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	} else {
		s.logger.Warn("GitHub OAuth not configured, sign-in routes are disabled")
	}
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	requireAuth := auth.RequireAuth(tokens, s.db)
	optionalAuth := auth.OptionalAuth(tokens, s.db)

	s.router.Route("/api", func(r chi.Router) {
		// === Public ===
		r.Get("/leaderboard", publicHandler.HandleLeaderboard)
		r.Get("/events", publicHandler.HandleListEvents)
		r.With(optionalAuth).Get("/teams/{slug}", teamHandler.HandleGetBySlug)

		// === Signed-in participants ===
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authHandler.HandleMe)
			r.Post("/onboarding", authHandler.HandleOnboarding)

			r.Get("/teams/user/me", teamHandler.HandleMyTeam)
			r.Get("/teams/user/profile", teamHandler.HandleProfile)
			r.Get("/teams/user/requests", teamHandler.HandleMyRequests)
			r.Post("/teams/create", teamHandler.HandleCreate)
			r.Post("/teams/join/request", teamHandler.HandleRequestJoin)
			r.Post("/teams/requests/accept", teamHandler.HandleAccept)
			r.Post("/teams/requests/reject", teamHandler.HandleReject)
			r.Post("/teams/members/remove", teamHandler.HandleRemoveMember)
			r.Post("/teams/leave", teamHandler.HandleLeave)
			r.Post("/teams/events/register", teamHandler.HandleRegisterEvent)
			r.Delete("/teams/{id}", teamHandler.HandleDelete)
		})

		// === Staff ===
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)

			r.With(auth.RequireCapability(auth.ActionViewAdmin)).Group(func(r chi.Router) {
				r.Get("/teams", adminHandler.HandleListTeams)
				r.Get("/users", adminHandler.HandleListUsers)
				r.Get("/events/{id}/registrations", adminHandler.HandleListRegistrations)
			})
			r.With(auth.RequireCapability(auth.ActionRecordResults)).
				Post("/event-results", adminHandler.HandleSetEventResult)
			r.With(auth.RequireCapability(auth.ActionClearResults)).
				Delete("/event-results", adminHandler.HandleClearEventResult)
			r.With(auth.RequireCapability(auth.ActionAdjustScores)).
				Post("/teams/score", adminHandler.HandleSetTeamScore)
			r.With(auth.RequireCapability(auth.ActionManageRoles)).
				Post("/users/role", adminHandler.HandleUpdateRole)
			r.With(auth.RequireCapability(auth.ActionManageEvents)).
				Post("/events", adminHandler.HandleCreateEvent)
		})
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database pool and the Redis client.
func (s *Server) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
//  1. stop accepting new connections
//  2. wait up to 30s for in-flight requests
//  3. close Redis and the database (flushes the WAL, releases the file lock)
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
