package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ManuelReschke/TenantFox/internal/pkg/env"
)

const webhookSeenPrefix = "billing:webhook:seen:"

// Config describes the Redis (or Dragonfly) connection. An empty Host disables caching.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LoadConfig reads CACHE_HOST, CACHE_PORT, CACHE_PASSWORD and CACHE_DB.
func LoadConfig() (Config, error) {
	cfg := Config{
		Host:     env.GetEnv("CACHE_HOST", ""),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
	}

	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		return cfg, fmt.Errorf("invalid CACHE_PORT: %w", err)
	}
	cfg.Port = port

	db, err := strconv.Atoi(env.GetEnv("CACHE_DB", "0"))
	if err != nil {
		return cfg, fmt.Errorf("invalid CACHE_DB: %w", err)
	}
	cfg.DB = db

	return cfg, nil
}

// Enabled reports whether a cache host is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Addr returns host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Store wraps a Redis client with the keys used by the application.
type Store struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to cache %s: %w", cfg.Addr(), err)
	}
	log.Info("connected to cache", zap.String("addr", cfg.Addr()), zap.String("pong", pong))

	return &Store{client: client}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Client returns the Redis client instance
func (s *Store) Client() *redis.Client {
	return s.client
}

// IsEventSeen reports whether a webhook event id was marked as processed.
func (s *Store) IsEventSeen(ctx context.Context, provider, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, seenKey(provider, eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkEventSeen remembers a processed webhook event id for ttl.
func (s *Store) MarkEventSeen(ctx context.Context, provider, eventID string, ttl time.Duration) error {
	return s.client.Set(ctx, seenKey(provider, eventID), time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func seenKey(provider, eventID string) string {
	return webhookSeenPrefix + provider + ":" + eventID
}
