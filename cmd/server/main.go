// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/reportgen/internal/api"
	"github.com/openshelf/reportgen/internal/config"
	"github.com/openshelf/reportgen/internal/images"
	"github.com/openshelf/reportgen/internal/jobs"
	"github.com/openshelf/reportgen/internal/report"
	"github.com/openshelf/reportgen/internal/repository"
	"github.com/openshelf/reportgen/internal/service"
	"github.com/openshelf/reportgen/internal/storage"
	"github.com/openshelf/reportgen/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Object storage for inputs and finished reports
	store, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Job tracking (no-op when cache is disabled)
	tracker, err := jobs.NewTracker(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to initialize job tracker: %v", err)
	}

	// Optional run-history database
	var history *repository.RunHistoryRepository
	if cfg.Database.Host != "" {
		db, err := repository.NewDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to history database: %v", err)
		}
		defer db.Close()
		history = repository.NewRunHistoryRepository(db)
		if err := history.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to prepare history schema: %v", err)
		}
	}

	newThumbs := func(runID string) (report.ThumbnailSource, error) {
		return images.NewFetcher(cfg.Images, runID)
	}
	if cfg.Images.BaseURL == "" {
		newThumbs = nil
	}

	gen := report.NewGenerator(store, cfg.Storage, cfg.Images, newThumbs)
	reportService := service.NewReportService(gen, tracker, history, cfg.Report)

	router := api.NewRouter(&api.Services{
		ReportService: reportService,
		History:       history,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
