// Package config reads the server configuration from the environment.
//
// main calls godotenv.Load() first, so a local .env file can supply any of
// these variables during development. Real environment variables win over
// the .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port   int
	DBPath string

	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	// AdminLogins are GitHub logins promoted to admin when they sign in.
	AdminLogins []string

	// RedisAddr empty means the leaderboard is not cached.
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LeaderboardTTL time.Duration

	LogLevel slog.Level
}

func Load() (*Config, error) {
	cfg := &Config{
		DBPath:             getEnv("DB_PATH", "data/robosaga.db"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		AdminLogins:        splitList(os.Getenv("ADMIN_LOGINS")),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getEnv("PORT", "8080")); err != nil {
		return nil, fmt.Errorf("config: invalid PORT: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: PORT %d out of range", cfg.Port)
	}

	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("config: invalid REDIS_DB: %w", err)
	}

	if cfg.LeaderboardTTL, err = time.ParseDuration(getEnv("LEADERBOARD_TTL", "30s")); err != nil {
		return nil, fmt.Errorf("config: invalid LEADERBOARD_TTL: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("config: invalid LOG_LEVEL: %w", err)
	}

	cfg.GitHubCallbackURL = getEnv("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	return cfg, nil
}

// AuthEnabled reports whether sign-in can work at all.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" && c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
