package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pixxearch/pixxearch/internal/blob"
	"github.com/pixxearch/pixxearch/internal/config"
	dbRedis "github.com/pixxearch/pixxearch/internal/db/redis"
	logpkg "github.com/pixxearch/pixxearch/internal/logger"
	"github.com/pixxearch/pixxearch/internal/metrics"
	picturerepo "github.com/pixxearch/pixxearch/internal/repository/picture"
	chiTransport "github.com/pixxearch/pixxearch/internal/transport/chi"
	healthuc "github.com/pixxearch/pixxearch/internal/usecase/health"
	searchuc "github.com/pixxearch/pixxearch/internal/usecase/search"
	uploaduc "github.com/pixxearch/pixxearch/internal/usecase/upload"
	"github.com/pixxearch/pixxearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "pixxearch", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pixxearch API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("key_prefix", cfg.Search.KeyPrefix),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Username:   cfg.Database.Username,
		Password:   cfg.Database.Password,
		ClientName: "pixxearch-api",
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterAppMetrics()

	pictures := picturerepo.New(store, cfg.Search.KeyPrefix).
		WithColorLimits(cfg.Search.ColorScanLimit, cfg.Search.MaxColorParents)
	if err := pictures.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create search indexes", zap.Error(err))
	}

	blobs, err := blob.NewLocal(cfg.Storage.Root)
	if err != nil {
		logger.Fatal("Failed to open blob storage", zap.Error(err))
	}

	// Use case services
	searchSvc := searchuc.New(pictures, searchuc.NewNormalizer(time.Now))
	uploadSvc := uploaduc.New(blobs, store, uploaduc.Config{
		Bucket:       cfg.Storage.PicturesBucket,
		Stream:       cfg.Upload.Stream,
		StreamMaxLen: cfg.Upload.StreamMaxLen,
		MaxBytes:     cfg.Upload.MaxBytes,
		RatePerSec:   cfg.Upload.RatePerSec,
		Burst:        cfg.Upload.Burst,
	})
	healthSvc := healthuc.New(store, blobs)
	urls := blob.NewURLs(cfg.Storage.PublicBaseURL, cfg.Storage.PicturesBucket, cfg.Storage.ThumbnailsBucket)

	server := chiTransport.NewServer(searchSvc, uploadSvc, urls, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.Recoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEvent(logger))
	r.Use(metrics.Middleware("/metrics"))
	server.Routes(r)
	if strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		chiTransport.MountBlobs(r, strings.TrimRight(cfg.Storage.PublicBaseURL, "/"), blobs.Root())
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
