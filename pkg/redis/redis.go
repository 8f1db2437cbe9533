package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vitaboost/storefront/config"
	"github.com/vitaboost/storefront/pkg/logger"
)

var client *redis.Client

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
)

// Init connects the shared client and fails fast when Redis is unreachable.
func Init(cfg *config.RedisConfig) error {
	fields := map[string]interface{}{
		"addr":   cfg.Addr(),
		"db":     cfg.DB,
		"prefix": cfg.KeyPrefix,
	}
	logger.Info("Initializing Redis connection", fields)

	c := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		logger.Error("Failed to connect to Redis", err, fields)
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = c
	logger.Info("Redis connection established successfully", fields)
	return nil
}

func GetClient() *redis.Client {
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	logger.Info("Closing Redis connection")
	return client.Close()
}

// Store is a string key-value store backed by Redis.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore wraps c, or the client created by Init when c is nil. Every key
// is stored as prefix+key.
func NewStore(c *redis.Client, prefix string) *Store {
	if c == nil {
		c = client
	}
	return &Store{client: c, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get returns the value at key. A missing key is reported with found=false
// and no error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Failed to read key", err, map[string]interface{}{"key": key})
		return "", false, err
	}
	return val, true, nil
}

// Set stores value at key. ttl <= 0 means no expiry.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		logger.Error("Failed to write key", err, map[string]interface{}{"key": key})
		return err
	}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}
	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		logger.Error("Failed to delete keys", err, map[string]interface{}{"keys": keys})
		return err
	}
	return nil
}
