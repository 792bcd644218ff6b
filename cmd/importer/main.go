package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"posterstudio/internal/config"
	"posterstudio/internal/db"
	"posterstudio/internal/importer"
	"posterstudio/internal/logger"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/service/profile"
)

func main() {
	var (
		filePath  string
		profileID string
	)
	flag.StringVar(&filePath, "file", "", "Path to a JSON export of saved designs")
	flag.StringVar(&profileID, "profile", "", "Profile id to import into; empty issues a new profile")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		bootLog := logger.New("importer", "info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("importer", cfg.LogLevel)
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

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open file")
	}
	defer f.Close()

	imp := importer.NewJSONImporter(f, kv.Scoped(store, profileID), log)

	start := time.Now()
	sum, err := imp.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}

	fmt.Printf("Imported %d designs (%d skipped) into profile %s in %s\n",
		sum.Total(), sum.Skipped, profileID, time.Since(start).Truncate(time.Millisecond))
}
