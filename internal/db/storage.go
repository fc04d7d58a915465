package db

import (
	"context"
	"fmt"

	"github.com/Azizzarkasyi/kasir-pos-sub002/internal/config"
	"github.com/Azizzarkasyi/kasir-pos-sub002/kvstore"
)

// OpenStorage connects the storage driver selected by cfg. The returned
// close func releases the connection and is never nil.
func OpenStorage(ctx context.Context, cfg *config.Config) (kvstore.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageDriver {
	case config.DriverMemory:
		return kvstore.Prefixed(kvstore.NewMemory(), cfg.KVPrefix), noop, nil

	case config.DriverRedis:
		client, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return kvstore.NewRedis(client, cfg.KVPrefix), client.Close, nil

	case config.DriverPostgres:
		pg, err := NewPostgresDB(cfg)
		if err != nil {
			return nil, noop, err
		}
		sqlStore, err := kvstore.NewSQL(pg.GormDB, cfg.AutoMigrate)
		if err != nil {
			pg.Close()
			return nil, noop, fmt.Errorf("failed to prepare kv_entries: %w", err)
		}
		return kvstore.Prefixed(sqlStore, cfg.KVPrefix), pg.Close, nil
	}

	return nil, noop, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
}
