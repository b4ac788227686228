package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errorskg "github.com/sweetpotato0/convodesk/errors"
	"github.com/sweetpotato0/convodesk/session"
)

// RedisStore implements session storage using Redis. Records live under
// prefixed keys with a TTL; a set under the same prefix indexes the IDs.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration for sessions.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = &RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "convodesk:session:",
			TTL:    24 * time.Hour,
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Save persists a session record to Redis.
func (s *RedisStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil")
	}

	raw, err := json.Marshal(record.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if err := s.client.Set(ctx, s.sessionKey(record.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := s.client.SAdd(ctx, s.setKey(), record.ID).Err(); err != nil {
		return fmt.Errorf("failed to add session to index: %w", err)
	}
	return nil
}

// Load loads a session record from Redis.
func (s *RedisStore) Load(ctx context.Context, id string) (*session.Record, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("session %s: %w", id, errorskg.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record session.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	return &record, nil
}

// Delete removes a session record from Redis.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := s.client.SRem(ctx, s.setKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to update session index: %w", err)
	}
	return nil
}

// List returns all indexed session IDs.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Count returns the number of indexed sessions.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	count, err := s.client.SCard(ctx, s.setKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return int(count), nil
}

// Exists checks if a session exists.
func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return exists > 0, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + id
}

func (s *RedisStore) setKey() string {
	return s.prefix + "set"
}
