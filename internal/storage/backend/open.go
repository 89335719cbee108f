// Package backend opens the storage.Store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/jwulff/bplog-go/internal/config"
	"github.com/jwulff/bplog-go/internal/storage"
	"github.com/jwulff/bplog-go/internal/storage/memory"
	"github.com/jwulff/bplog-go/internal/storage/postgres"
	"github.com/jwulff/bplog-go/internal/storage/redis"
	"github.com/jwulff/bplog-go/internal/storage/sqlite"
)

// Open connects to the configured driver.
func Open(ctx context.Context, cfg config.Config, opts ...storage.Option) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)

	switch cfg.StorageDriver {
	case config.DriverMemory:
		store = memory.NewStore(opts...)
	case config.DriverSQLite:
		var s *sqlite.Store
		if cfg.SQLitePath == ":memory:" {
			s, err = sqlite.NewMemoryStore(opts...)
		} else {
			s, err = sqlite.NewFileStore(cfg.SQLitePath, opts...)
		}
		store = s
	case config.DriverPostgres:
		var s *postgres.Store
		s, err = postgres.Open(ctx, cfg.PostgresURL, opts...)
		store = s
	case config.DriverRedis:
		var s *redis.Store
		s, err = redis.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		store = s
	default:
		err = fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.StorageDriver)
	}

	if err != nil {
		return nil, err
	}
	return store, nil
}
