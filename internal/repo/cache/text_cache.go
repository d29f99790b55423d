// Package cache stores generated text keyed by prompt.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkrupp/bestiary/internal/infra/logging"
)

// Config holds configuration for the text cache.
type Config struct {
	// RedisURL enables the cache when set, e.g. redis://localhost:6379/0
	RedisURL string `env:"REDIS_URL" default:""`

	// TTL is how long a generated text stays cached
	TTL time.Duration `env:"TTL" default:"24h"`

	// KeyPrefix namespaces the cache keys
	KeyPrefix string `env:"KEY_PREFIX" default:"bestiary:gen"`
}

// TextCache looks up and stores generated text by prompt.
type TextCache interface {
	// Get returns the cached text for prompt, or "" and false on a miss.
	Get(ctx context.Context, prompt string) (string, bool, error)

	// Set caches text for prompt.
	Set(ctx context.Context, prompt, text string) error
}

// RedisTextCache implements TextCache on redis.
type RedisTextCache struct {
	client *redis.Client
	cfg    Config
	log    logging.Logger
}

var _ TextCache = (*RedisTextCache)(nil)

// NewRedisTextCache connects to cfg.RedisURL and verifies the connection.
func NewRedisTextCache(ctx context.Context, cfg Config) (*RedisTextCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("ping redis: %w", err), client.Close())
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a cache on an existing client.
func NewWithClient(client *redis.Client, cfg Config) *RedisTextCache {
	return &RedisTextCache{
		client: client,
		cfg:    cfg,
		log:    logging.GetLogger("repo.cache.text_cache"),
	}
}

// Close closes the redis connection.
func (c *RedisTextCache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}

	return nil
}

// Get implements TextCache.Get.
func (c *RedisTextCache) Get(ctx context.Context, prompt string) (string, bool, error) {
	text, err := c.client.Get(ctx, c.key(prompt)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("get cached text: %w", err)
	}

	return text, true, nil
}

// Set implements TextCache.Set.
func (c *RedisTextCache) Set(ctx context.Context, prompt, text string) error {
	if err := c.client.Set(ctx, c.key(prompt), text, c.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("set cached text: %w", err)
	}

	c.log.DebugContext(ctx, "text cached", "ttl", c.cfg.TTL)

	return nil
}

func (c *RedisTextCache) key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))

	return c.cfg.KeyPrefix + ":text:" + hex.EncodeToString(sum[:])
}
