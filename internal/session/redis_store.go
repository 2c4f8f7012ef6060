package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSelectionNotFound is returned when a chat session has no stored
// selection (never saved, expired, or cleared).
var ErrSelectionNotFound = errors.New("selection not found")

// RedisStore persists selection snapshots per chat session so a selection
// survives a page reload within its TTL. Lineage data never lands here.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client; used by tests.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{
		client: client,
		prefix: "selection:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(chatSessionID string) string {
	return s.prefix + chatSessionID
}

// SaveSelection stores a selection snapshot for a chat session.
func (s *RedisStore) SaveSelection(ctx context.Context, chatSessionID string, selection ContextSelection) error {
	payload, err := json.Marshal(selection)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	if err := s.client.Set(ctx, s.key(chatSessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

// LoadSelection retrieves a chat session's selection snapshot.
func (s *RedisStore) LoadSelection(ctx context.Context, chatSessionID string) (ContextSelection, error) {
	payload, err := s.client.Get(ctx, s.key(chatSessionID)).Result()
	if err == redis.Nil {
		return ContextSelection{}, ErrSelectionNotFound
	}
	if err != nil {
		return ContextSelection{}, fmt.Errorf("load selection: %w", err)
	}
	var selection ContextSelection
	if err := json.Unmarshal([]byte(payload), &selection); err != nil {
		return ContextSelection{}, fmt.Errorf("unmarshal selection: %w", err)
	}
	return selection, nil
}

// ClearSelection drops a chat session's selection, e.g. on submit or when the
// active generation changes.
func (s *RedisStore) ClearSelection(ctx context.Context, chatSessionID string) error {
	if err := s.client.Del(ctx, s.key(chatSessionID)).Err(); err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
