// Package redis stores client state in Redis so that several front ends
// (kiosks, shop terminals) can share a session.
package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/hrygo/repairdesk/internal/profile"
	"github.com/hrygo/repairdesk/store"
)

const defaultKeyPrefix = "repairdesk:"

// Config holds the Redis connection configuration.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	PoolSize  int
}

// DB implements store.Driver on a Redis client.
type DB struct {
	client    *redis.Client
	keyPrefix string
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	return Open(context.Background(), Config{Addr: profile.DSN})
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return newWithClient(ctx, client, cfg.KeyPrefix)
}

func newWithClient(ctx context.Context, client *redis.Client, keyPrefix string) (*DB, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return &DB{client: client, keyPrefix: keyPrefix}, nil
}

func (d *DB) Get(ctx context.Context, key string) (string, error) {
	value, err := d.client.Get(ctx, d.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read key %s", key)
	}
	return value, nil
}

func (d *DB) Set(ctx context.Context, key, value string) error {
	// No expiry: the state lives until storage is cleared.
	if err := d.client.Set(ctx, d.keyPrefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to write key %s", key)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, d.keyPrefix+key).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete key %s", key)
	}
	return nil
}

func (d *DB) Close() error {
	return d.client.Close()
}

var _ store.Driver = (*DB)(nil)
