package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/furniscan/furniscan-backend/config"
	"github.com/furniscan/furniscan-backend/internal/auth"
	"github.com/furniscan/furniscan-backend/internal/bootstrap"
	"github.com/furniscan/furniscan-backend/internal/export"
	"github.com/furniscan/furniscan-backend/internal/extract"
	"github.com/furniscan/furniscan-backend/internal/janitor"
	"github.com/furniscan/furniscan-backend/internal/logging"
	"github.com/furniscan/furniscan-backend/internal/projects"
	"github.com/furniscan/furniscan-backend/internal/scans"
	"github.com/furniscan/furniscan-backend/internal/storage"
	"github.com/furniscan/furniscan-backend/internal/ws"
)

const serviceName = "furniscan-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		var setup *config.SetupError
		if errors.As(err, &setup) {
			fmt.Fprintln(os.Stderr, "furniscan is not configured yet:")
			fmt.Fprintln(os.Stderr, "  "+setup.Error())
			fmt.Fprintln(os.Stderr, "Set these in .env or the environment and start again.")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	fbApp, fbAuth, err := auth.InitializeFirebase(&cfg.Firebase)
	if err != nil {
		logger.Error("firebase init failed", "error", err)
		os.Exit(1)
	}

	sqlDB, err := bootstrap.OpenSQLDB(cfg.Database)
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := bootstrap.Migrate(sqlDB); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN()})
	if err != nil {
		logger.Error("database pool failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Error("redis open failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	var backend storage.Backend
	switch cfg.Storage.Backend {
	case "s3":
		backend, err = storage.NewS3Backend(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Region)
	default:
		backend, err = storage.NewGCSBackend(ctx, fbApp, cfg.Firebase.StorageBucket)
	}
	if err != nil {
		logger.Error("storage backend failed", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	store := storage.NewClient(backend)

	var extractor extract.Extractor
	if cfg.Extraction.Engine == "claude" {
		extractor = extract.NewClaudeExtractor(cfg.Extraction.AnthropicAPIKey, cfg.Extraction.AnthropicModel)
	} else {
		extractor = extract.NewStubExtractor()
	}
	logger.Info("extraction engine selected", "engine", cfg.Extraction.Engine)

	hub := ws.NewHub()
	go hub.Run()

	drafts := scans.NewDraftRepository(redisClient)
	scanService := scans.NewService(store, drafts, extractor, hub, logger)

	exportLogs := export.NewLogRepository(sqlDB)
	exportService := export.NewService(store, exportLogs, cfg.Export.SignedURLTTL, logger)

	identity := auth.NewIdentityClient(cfg.Firebase.WebAPIKey)
	authService := auth.NewService(identity, fbAuth, logger)

	retention := time.Duration(cfg.Export.RetentionDays) * 24 * time.Hour
	sweeper := janitor.New(store, projects.NewRepo(pool), drafts, retention, logger)
	cronRunner := sweeper.Start()
	defer cronRunner.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DB:             pool,
		Redis:          redisClient,
		Verifier:       fbAuth,
		AuthService:    authService,
		Storage:        store,
		ScanService:    scanService,
		ExportService:  exportService,
		ExportLogs:     exportLogs,
		Hub:            hub,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("listening", "port", cfg.Server.Port, "env", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
