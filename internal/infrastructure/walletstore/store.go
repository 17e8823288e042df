// Package walletstore holds the backends that persist each user's wallet address.
package walletstore

import (
	"context"
	"fmt"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/infrastructure/configloader"
)

// New opens the backend selected by cfg.Driver.
func New(ctx context.Context, cfg configloader.WalletStoreConfig, l port.Logger) (port.WalletStore, error) {
	switch cfg.Driver {
	case configloader.StoreDriverMemory, "":
		l.Info("Using in-memory wallet store")
		return NewMemoryStore(), nil
	case configloader.StoreDriverPostgres:
		store, err := NewPostgresStore(ctx, PostgresConfig{
			URL:          cfg.Postgres.URL,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
			QueryTimeout: time.Duration(cfg.Postgres.QueryTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		l.Info("Using postgres wallet store")
		return store, nil
	case configloader.StoreDriverRedis:
		store, err := NewRedisStore(ctx, RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		l.Info("Using redis wallet store", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.KeyPrefix)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown wallet store driver %q", cfg.Driver)
	}
}
