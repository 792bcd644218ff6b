package main

import (
	"context"

	"posterstudio/internal/config"
	"posterstudio/internal/db"
	"posterstudio/internal/logger"
	"posterstudio/internal/migrate"
)

// Applies the Postgres schema. The SQLite backend creates its table on open.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		bootLog := logger.New("migrate", "info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("migrate", cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("read schema version")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
}
