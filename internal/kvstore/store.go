package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Store is durable string key-value storage scoped to one storefront installation.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Options struct {
	Backend string

	SQLitePath  string
	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

func Open(ctx context.Context, o Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch o.Backend {
	case BackendMemory:
		return NewMemStore(), nil
	case BackendSQLite:
		s, err = OpenSQLite(ctx, o.SQLitePath)
	case BackendPostgres:
		s, err = OpenPostgres(ctx, o.PostgresDSN)
	case BackendRedis:
		s, err = OpenRedis(ctx, o.RedisAddr, o.RedisPassword, o.RedisDB, o.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", o.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
