// Package session issues and resolves opaque bearer tokens for logged-in
// users. Tokens live in Redis with a TTL, so restarts do not log everyone out
// and stale sessions expire on their own.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrNoSession means the token is unknown or has expired.
var ErrNoSession = errors.New("no such session")

// Store manages session tokens.
type Store interface {
	// Create issues a new token for the user.
	Create(ctx context.Context, userID int64) (string, error)
	// Lookup resolves a token to its user ID. Returns ErrNoSession when the
	// token is unknown or expired.
	Lookup(ctx context.Context, token string) (int64, error)
	// Delete invalidates a token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

// RedisStore is the Redis-backed Store.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create issues a new token for the user.
func (s *RedisStore) Create(ctx context.Context, userID int64) (string, error) {
	token := uuid.New().String()
	if err := s.client.Set(ctx, sessionKey(token), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Lookup resolves a token to its user ID.
func (s *RedisStore) Lookup(ctx context.Context, token string) (int64, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up session: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session value: %w", err)
	}
	return userID, nil
}

// Delete invalidates a token.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
