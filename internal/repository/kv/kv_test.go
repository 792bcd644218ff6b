package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"posterstudio/internal/domain"
	"posterstudio/internal/migrate"
)

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Save(ctx, "designs", []byte(`[1]`)))
	require.NoError(t, repo.Save(ctx, "designs", []byte(`[1,2]`)))
	got, err := repo.Load(ctx, "designs")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	a := Scoped(repo, "profile-a")
	b := Scoped(repo, "profile-b")
	require.NoError(t, a.Save(ctx, "designs", []byte(`"a"`)))
	_, err = b.Load(ctx, "designs")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err = a.Load(ctx, "designs")
	require.NoError(t, err)
	assert.Equal(t, `"a"`, string(got))

	got, err = repo.Load(ctx, "designs")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got), "scoped write must not touch the unscoped key")
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemory())
}

func TestMemoryRepositoryCopiesValues(t *testing.T) {
	repo := NewMemory()
	buf := []byte("abc")
	require.NoError(t, repo.Save(context.Background(), "k", buf))
	buf[0] = 'x'
	got, err := repo.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLiteRepository(t *testing.T) {
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewSQLite(db)
	require.NoError(t, err)
	exerciseRepository(t, repo)
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, migrate.Apply(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE kv_entries`)
	require.NoError(t, err)

	exerciseRepository(t, NewPostgres(pool))
}
