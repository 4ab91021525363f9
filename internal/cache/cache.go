// Package cache keeps a short-lived copy of the computed leaderboard.
//
// The leaderboard is read far more often than scores change, so reads go
// through the cache and every score mutation invalidates it. A miss or a
// cache error is never fatal: callers fall back to the database.
//
// Boards are stored per version. Invalidate moves to a new version, and Set
// writes under the version the reader saw before it loaded the board, so a
// board computed before a write can never be served after it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/robosaga/internal/model"
)

const (
	// LeaderboardKey prefixes the per-version board keys.
	LeaderboardKey = "robosaga:leaderboard"
	// VersionKey holds the current board version. It has no TTL.
	VersionKey = "robosaga:leaderboard:version"
)

// Version identifies one generation of the cached leaderboard.
type Version int64

// BoardKey is the Redis key of the board cached under v.
func BoardKey(v Version) string {
	return fmt.Sprintf("%s:%d", LeaderboardKey, v)
}

// ErrMiss is returned by Get when nothing is cached.
var ErrMiss = errors.New("cache: miss")

type LeaderboardCache interface {
	// Get returns the board cached for the current version. On ErrMiss the
	// returned version is the one to fill with Set.
	Get(ctx context.Context) ([]model.LeaderboardEntry, Version, error)
	// Set stores entries under v. If v is no longer current the board is
	// never read again and simply expires.
	Set(ctx context.Context, v Version, entries []model.LeaderboardEntry) error
	// Invalidate starts a new version.
	Invalidate(ctx context.Context) error
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ LeaderboardCache = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Dial connects to Redis and pings it once so a bad address fails at startup.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (r *Redis) version(ctx context.Context) (Version, error) {
	v, err := r.client.Get(ctx, VersionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("cache: reading leaderboard version: %w", err)
	}
	return Version(v), nil
}

func (r *Redis) Get(ctx context.Context) ([]model.LeaderboardEntry, Version, error) {
	v, err := r.version(ctx)
	if err != nil {
		return nil, 0, err
	}

	val, err := r.client.Get(ctx, BoardKey(v)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, v, ErrMiss
		}
		return nil, v, fmt.Errorf("cache: reading leaderboard: %w", err)
	}

	var entries []model.LeaderboardEntry
	if err := json.Unmarshal(val, &entries); err != nil {
		return nil, v, fmt.Errorf("cache: decoding leaderboard: %w", err)
	}
	return entries, v, nil
}

func (r *Redis) Set(ctx context.Context, v Version, entries []model.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache: encoding leaderboard: %w", err)
	}
	if err := r.client.Set(ctx, BoardKey(v), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: writing leaderboard: %w", err)
	}
	return nil
}

// Invalidate bumps the version and drops the board of the previous one. A
// late Set may still recreate that key; nothing reads it and it expires.
func (r *Redis) Invalidate(ctx context.Context) error {
	next, err := r.client.Incr(ctx, VersionKey).Result()
	if err != nil {
		return fmt.Errorf("cache: invalidating leaderboard: %w", err)
	}
	if err := r.client.Del(ctx, BoardKey(Version(next-1))).Err(); err != nil {
		return fmt.Errorf("cache: dropping old leaderboard: %w", err)
	}
	return nil
}

// Noop never stores anything. It is used when REDIS_ADDR is empty.
type Noop struct{}

var _ LeaderboardCache = Noop{}

func (Noop) Get(context.Context) ([]model.LeaderboardEntry, Version, error) { return nil, 0, ErrMiss }
func (Noop) Set(context.Context, Version, []model.LeaderboardEntry) error   { return nil }
func (Noop) Invalidate(context.Context) error                               { return nil }
