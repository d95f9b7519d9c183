// Package store holds the optional caches in front of the upstream services.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/m3rciful/schedulebot/schedule/upstream"
)

const (
	keyNamespace = "schedulebot:search:"
	defaultTTL   = 300 * time.Second
)

// RedisConfig configures the directory cache connection.
type RedisConfig struct {
	Addr       string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password   string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" envconfig:"REDIS_DB"`
	TTLSeconds int    `yaml:"ttl_seconds" envconfig:"REDIS_TTL_SECONDS"`
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// TTL returns the configured expiry or the default.
func (c RedisConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return defaultTTL
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// ConnectRedis opens a client and verifies it with a ping.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        strings.TrimSpace(cfg.Addr),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// KeyPrefix namespaces cached searches by upstream payload shape.
func KeyPrefix(api string) string {
	return keyNamespace + api + ":"
}

// DirectoryCache keeps directory search results in Redis as JSON.
type DirectoryCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

// NewDirectoryCache wraps a Redis client.
func NewDirectoryCache(rdb goredis.Cmdable, ttl time.Duration) *DirectoryCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &DirectoryCache{rdb: rdb, ttl: ttl}
}

var _ upstream.DirectoryCache = (*DirectoryCache)(nil)

// GetEntries returns cached entries; a missing key is not an error.
func (c *DirectoryCache) GetEntries(ctx context.Context, key string) ([]upstream.TeacherEntry, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	entries, err := decodeEntries(raw)
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

// PutEntries stores non-empty results with the configured TTL.
func (c *DirectoryCache) PutEntries(ctx context.Context, key string, entries []upstream.TeacherEntry) error {
	if len(entries) == 0 {
		return nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func decodeEntries(raw []byte) ([]upstream.TeacherEntry, error) {
	var entries []upstream.TeacherEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return entries, nil
}
