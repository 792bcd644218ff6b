package db

import (
	"context"
	"fmt"

	"posterstudio/internal/config"
	"posterstudio/internal/migrate"
	"posterstudio/internal/repository/kv"
)

// OpenStore builds the key-value backend selected by cfg.StorageDriver. The
// returned close func releases the underlying connection.
func OpenStore(ctx context.Context, cfg config.Config) (kv.Repository, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return kv.NewMemory(), func() {}, nil
	case config.StorageSQLite:
		sqlDB, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo, err := kv.NewSQLite(sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return repo, func() { _ = sqlDB.Close() }, nil
	case config.StoragePostgres:
		pool, err := Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		return kv.NewPostgres(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
