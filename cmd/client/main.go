package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/kidsdiary/internal/buildinfo"
	"github.com/dmitrijs2005/kidsdiary/internal/client/cli"
	"github.com/dmitrijs2005/kidsdiary/internal/client/client"
	"github.com/dmitrijs2005/kidsdiary/internal/client/config"
	"github.com/dmitrijs2005/kidsdiary/internal/client/images"
	"github.com/dmitrijs2005/kidsdiary/internal/client/metrics"
	"github.com/dmitrijs2005/kidsdiary/internal/client/repositories/kv"
	"github.com/dmitrijs2005/kidsdiary/internal/client/services"
	"github.com/dmitrijs2005/kidsdiary/internal/client/storage"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.LogFormat, cfg.LogLevel)

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	var apiClient client.Client = client.NewHTTPClient(client.Options{
		BaseURL:           cfg.ServerURL,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.RequestTimeout,
		RetryCount:        cfg.RetryCount,
		RetryBaseInterval: cfg.RetryBaseInterval,
		Logger:            logger,
	})
	if cfg.DevMode {
		apiClient = client.NewDevFallback(apiClient, logger)
	}
	defer apiClient.Close()

	var uploader images.Uploader
	if cfg.S3Bucket != "" {
		uploader = images.NewS3Uploader(images.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		}, logger)
	}

	engine := services.NewEngine(services.EngineOptions{
		Client:        apiClient,
		Store:         store,
		Uploader:      uploader,
		AutoSaveDelay: cfg.AutoSaveDelay,
		Logger:        logger,
	})
	defer engine.Close()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(ctx, cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	cli.NewApp(cfg, engine, apiClient, logger).Run(ctx)
	return nil
}

// openStore returns the SQLite-backed store, or a memory-only one when the
// database cannot be opened.
func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (storage.Store, func()) {
	var primary storage.Store
	closeFn := func() {}

	db, err := kv.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Error(ctx, "failed to open database", "path", cfg.DatabasePath, "error", err)
	} else {
		primary = storage.NewKVStore(kv.NewSQLiteRepository(db), cfg.StorageQuotaBytes, logger)
		closeFn = func() { _ = db.Close() }
	}

	store, durable := storage.WithFallback(ctx, primary, cfg.StorageQuotaBytes, logger)
	logger.Info(ctx, "storage ready", "durable", durable)
	return store, closeFn
}

func serveMetrics(ctx context.Context, addr string, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics server stopped", "error", err)
		}
	}()
	logger.Info(ctx, "metrics endpoint started", "addr", addr)
	return srv
}
