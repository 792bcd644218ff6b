package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"posterstudio/internal/config"
	"posterstudio/internal/db"
	"posterstudio/internal/httpserver"
	"posterstudio/internal/logger"
	"posterstudio/internal/poster"
	"posterstudio/internal/render"
	cartsvc "posterstudio/internal/service/cart"
	"posterstudio/internal/service/orderrender"
	"posterstudio/internal/service/profile"
	"posterstudio/internal/storefront"
	"posterstudio/internal/upload"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		bootLog := logger.New("api", "info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("api", cfg.LogLevel)

	ctx := context.Background()
	store, closeStore, err := db.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("open store")
	}
	defer closeStore()

	rasterizer, err := render.New(render.NewHTTPLoader(cfg.ImageFetchTimeout), log)
	if err != nil {
		log.Fatal().Err(err).Msg("init rasterizer")
	}
	uploader := upload.New(upload.Config{
		BrokerURL:     cfg.UploadBrokerURL,
		Bucket:        cfg.UploadBucket,
		PublicBaseURL: cfg.UploadPublicBaseURL,
	})
	remote := storefront.New(storefront.Config{URL: cfg.StorefrontURL, Token: cfg.StorefrontToken})
	admin := storefront.NewAdmin(storefront.AdminConfig{URL: cfg.AdminURL, Token: cfg.AdminToken})

	carts := cartsvc.New(store, remote, log,
		cartsvc.WithCurrency(cfg.Currency),
		cartsvc.WithLocale(poster.MatchLocale(cfg.Locale)),
	)
	orders := orderrender.New(
		orderrender.NewHTTPClient(cfg.RenderServiceURL, cfg.RenderTimeout, log),
		uploader, admin, log,
	)

	srv, err := httpserver.New(cfg.HTTPAddr, log, httpserver.Deps{
		Store:               store,
		Profiles:            profile.New(store),
		Cart:                carts,
		Orders:              orders,
		Rasterizer:          rasterizer,
		Uploader:            uploader,
		IllustrationBaseURL: cfg.IllustrationBaseURL,
		CustomVariantID:     cfg.DefaultCustomVariant,
		Currency:            cfg.Currency,
		Locale:              cfg.Locale,
		WebhookSecret:       cfg.WebhookSecret,
		CORSOrigins:         cfg.CORSOrigins,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("server stopped")
	}
}
