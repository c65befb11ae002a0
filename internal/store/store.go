package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/fleetbell/internal/model"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// KeyValueStore is a durable string-keyed blob store. Put overwrites
// whatever was stored under the key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the durable store selected by cfg.Driver.
func Open(ctx context.Context, cfg model.StorageConfig) (KeyValueStore, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLiteStore(cfg.Path)
	case "redis":
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
