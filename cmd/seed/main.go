package main

import (
	"context"
	"flag"
	"fmt"

	"posterstudio/internal/config"
	"posterstudio/internal/db"
	"posterstudio/internal/logger"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/seed"
	"posterstudio/internal/service/profile"
)

func main() {
	var profileID string
	flag.StringVar(&profileID, "profile", "", "Profile id to seed; empty issues a new profile")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		bootLog := logger.New("seed", "info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("seed", cfg.LogLevel)

	ctx := context.Background()
	store, closeStore, err := db.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	if profileID == "" {
		token, id, err := profile.New(store).Issue(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("issue profile")
		}
		profileID = id
		fmt.Printf("Issued profile %s (token %s)\n", id, token)
	}

	designs, err := seed.Apply(ctx, kv.Scoped(store, profileID), log)
	if err != nil {
		log.Fatal().Err(err).Msg("seed apply")
	}
	log.Info().Str("profile", profileID).Int("designs", len(designs)).Msg("seed applied")
}
