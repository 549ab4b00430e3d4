// Package session owns the access/refresh token pair and the refresh-once
// protocol that keeps the user's session alive across upstream calls.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/xtclovver/tourgate/internal/models"
)

// Stable storage keys for the persisted token pair
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// TokenStore persists the session token pair in durable key-value storage.
// A missing pair is not an error: Load returns empty tokens.
type TokenStore interface {
	Load(ctx context.Context) (models.TokenPair, error)
	Save(ctx context.Context, pair models.TokenPair) error
	Clear(ctx context.Context) error
}

// RedisTokenStore keeps the token pair in Redis under stable, prefixed keys
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore creates a Redis-backed token store
func NewRedisTokenStore(client *redis.Client, prefix string) *RedisTokenStore {
	return &RedisTokenStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisTokenStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

// Load reads the token pair; missing keys yield empty tokens
func (s *RedisTokenStore) Load(ctx context.Context) (models.TokenPair, error) {
	values, err := s.client.MGet(ctx, s.key(KeyAccessToken), s.key(KeyRefreshToken)).Result()
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to load token pair: %w", err)
	}

	pair := models.TokenPair{}
	if len(values) == 2 {
		if v, ok := values[0].(string); ok {
			pair.AccessToken = v
		}
		if v, ok := values[1].(string); ok {
			pair.RefreshToken = v
		}
	}

	return pair, nil
}

// Save overwrites both tokens atomically
func (s *RedisTokenStore) Save(ctx context.Context, pair models.TokenPair) error {
	err := s.client.MSet(ctx,
		s.key(KeyAccessToken), pair.AccessToken,
		s.key(KeyRefreshToken), pair.RefreshToken,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save token pair: %w", err)
	}
	return nil
}

// Clear removes both tokens
func (s *RedisTokenStore) Clear(ctx context.Context) error {
	err := s.client.Del(ctx, s.key(KeyAccessToken), s.key(KeyRefreshToken)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear token pair: %w", err)
	}
	return nil
}

// MemoryTokenStore is an in-process token store used in tests and for
// single-shot tooling where durability does not matter
type MemoryTokenStore struct {
	mu   sync.RWMutex
	pair models.TokenPair
}

// NewMemoryTokenStore creates an empty in-memory token store
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load returns the current pair
func (s *MemoryTokenStore) Load(_ context.Context) (models.TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, nil
}

// Save overwrites the pair
func (s *MemoryTokenStore) Save(_ context.Context, pair models.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	return nil
}

// Clear removes the pair
func (s *MemoryTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = models.TokenPair{}
	return nil
}
