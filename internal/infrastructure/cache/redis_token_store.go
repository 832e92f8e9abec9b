package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
)

// RedisTokenStore reads the catalog access token that an out-of-band
// refresher keeps in Redis.
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTokenStore connects to Redis and reads the token stored under key
func NewRedisTokenStore(cfg RedisConfig, key string) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisTokenStoreWithClient(client, key), nil
}

// NewRedisTokenStoreWithClient creates a store with an existing Redis client
func NewRedisTokenStoreWithClient(client *redis.Client, key string) *RedisTokenStore {
	if key == "" {
		key = "catalog:access_token"
	}
	return &RedisTokenStore{client: client, key: key}
}

// Token returns the current access token
func (s *RedisTokenStore) Token(ctx context.Context) (string, error) {
	v, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", shared.NewUpstreamError("token store", fmt.Errorf("no token under %q", s.key))
	}
	if err != nil {
		return "", shared.NewUpstreamError("token store", err)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", shared.NewUpstreamError("token store", fmt.Errorf("empty token under %q", s.key))
	}
	return v, nil
}

// Close releases the Redis connection
func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
