// Package storage implements the key-value persistence used to resume playback.
package storage

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned by KV.Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// KV is a minimal key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects and configures a KV backend.
type Config struct {
	Driver string
	Path   string
	Redis  RedisConfig
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Open creates the KV backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Driver {
	case DriverFile, "":
		return NewFileKV(cfg.Path)
	case DriverMemory:
		return NewMemoryKV(), nil
	case DriverRedis:
		return NewRedisKV(ctx, cfg.Redis)
	default:
		return nil, errors.Newf("unknown storage driver: %s", cfg.Driver)
	}
}
