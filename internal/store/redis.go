package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements KeyValueStore on a Redis server, for consoles that
// share a cache across machines.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every key (e.g. "fleetbell:").
	Prefix string
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", opts.Addr, err)
	}
	return &RedisStore{rdb: rdb, prefix: opts.Prefix}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("getting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %q: %w", key, err)
	}
	return v, nil
}

// Put stores value without expiry; the cache is overwritten, never aged out.
func (r *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("putting %q: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
