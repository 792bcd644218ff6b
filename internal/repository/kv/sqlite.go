package kv

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"posterstudio/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_entries(
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL,
  updated_at TEXT NOT NULL
);`

type sqliteRepo struct {
	db *sqlx.DB
}

// NewSQLite stores values in a kv_entries table, creating it when missing.
func NewSQLite(db *sqlx.DB) (Repository, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, err
	}
	return &sqliteRepo{db: db}, nil
}

func (r *sqliteRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := r.db.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = ?`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (r *sqliteRepo) Save(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_entries(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (r *sqliteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
