// Package main wires together the film-catalog scraper service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kinotools/kinoscraper/internal/api"
	"github.com/kinotools/kinoscraper/internal/config"
	"github.com/kinotools/kinoscraper/internal/fetch"
	"github.com/kinotools/kinoscraper/internal/logging"
	"github.com/kinotools/kinoscraper/internal/metrics"
	"github.com/kinotools/kinoscraper/internal/publish"
	"github.com/kinotools/kinoscraper/internal/scraper"
	"github.com/kinotools/kinoscraper/internal/storage"
	"github.com/kinotools/kinoscraper/internal/storage/blob"
	"github.com/kinotools/kinoscraper/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal("results store init failed", zap.Error(err))
	}
	defer store.Close()

	blobProvider, err := newBlobProvider(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("blob provider init failed", zap.Error(err))
	}
	archiver := blob.NewArchiver(blobProvider, cfg.Blob.Prefix, logger.Named("archiver"))

	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Warn("publisher close failed", zap.Error(closeErr))
		}
	}()

	navigator := scraper.NewNavigator(scraper.NavigatorConfig{
		BaseURL:         cfg.Scraper.BaseURL,
		UserAgent:       cfg.Scraper.UserAgent,
		Headless:        cfg.Scraper.Headless,
		NavTimeout:      cfg.NavTimeout(),
		MaxSessions:     cfg.Scraper.MaxSessions,
		LaunchPerSecond: cfg.Scraper.LaunchPerSecond,
	}, logger.Named("navigator"))

	static := fetch.NewStatic(fetch.Config{
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.NavTimeout(),
	})

	service := scraper.NewService(
		scraper.ServiceConfig{
			BaseURL:    cfg.Scraper.BaseURL,
			StaticList: cfg.Scraper.StaticList,
		},
		navigator,
		static,
		scraper.NewDetailExtractor(cfg.Scraper.BaseURL),
		archiver,
		logger.Named("scraper"),
	)

	apiServer := api.NewServer(service, store, publisher, cfg.Scraper.Headless, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.DB.Provider {
	case "postgres":
		return postgres.NewResultStore(ctx, postgres.ResultStoreConfig{
			DSN:   cfg.DB.DSN,
			Table: cfg.DB.Table,
		})
	default:
		return &storage.NoOpStore{}, nil
	}
}

func newBlobProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (blob.Provider, error) {
	switch cfg.Blob.Provider {
	case "gcs":
		return blob.NewGCSProvider(ctx, cfg.Blob.GCSBucket, logger.Named("gcs"))
	default:
		return &blob.NoOpProvider{}, nil
	}
}

func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (publish.Publisher, error) {
	switch cfg.Publish.Provider {
	case "pubsub":
		return publish.NewPubSub(ctx, cfg.Publish.ProjectID, cfg.Publish.TopicID, logger.Named("pubsub"))
	default:
		return &publish.NoOp{}, nil
	}
}
