package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"posterstudio/internal/config"
)

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{StorageDriver: config.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "poster.db")}

	repo, closeFn, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, repo.Save(ctx, "k", []byte("v")))
	got, err := repo.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(got))
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	_, _, err := OpenStore(context.Background(), config.Config{StorageDriver: "redis"})
	require.Error(t, err)
}
