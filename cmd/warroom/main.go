package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/config"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/monitoring"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/notifications"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/scheduler"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/server"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/storage"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/store"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/upstream"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.WithFields(logrus.Fields{
		"entity":    cfg.EntityName,
		"data_mode": cfg.DataMode,
		"storage":   cfg.StorageBackend,
	}).Info("Starting War Room mention service")

	ctx := context.Background()

	snapshotStorage, err := newStorage(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize notification services
	notificationService := notifications.NewService(cfg)

	// Upstream providers, highest priority first
	chain := upstream.NewChain(
		upstream.NewBrandMentionsSource(cfg.BrandMentionsBaseURL, cfg.BrandMentionsAPIKey, cfg.UpstreamTimeout),
		upstream.NewMentionlyticsSource(cfg.MentionlyticsBaseURL, cfg.MentionlyticsToken, cfg.UpstreamTimeout),
	)

	// Initialize monitoring service
	monitoringService := monitoring.NewService(cfg, store.New(cfg.SlackMentionLimit), snapshotStorage, notificationService, chain)

	restoreCtx, cancelRestore := context.WithTimeout(ctx, 30*time.Second)
	if restored, err := monitoringService.RestoreLatest(restoreCtx); err != nil {
		logrus.WithError(err).Warn("Failed to restore snapshot, starting empty")
	} else if restored {
		logrus.Info("Mention store restored from snapshot")
	}
	cancelRestore()

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, monitoringService)

	// Start scheduler
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	httpServer := server.New(cfg, monitoringService).HTTPServer()

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	schedulerService.Stop()

	// Keep the last deliveries across the restart
	if err := monitoringService.SaveSnapshot(shutdownCtx); err != nil {
		logrus.Errorf("Final snapshot failed: %v", err)
	}

	logrus.Info("Server exited")
}

// newStorage returns nil when persistence is disabled
func newStorage(ctx context.Context, cfg *config.Config) (storage.StorageInterface, error) {
	switch cfg.StorageBackend {
	case "azure":
		return storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
	case "file":
		return storage.NewFileStorage(cfg.StorageDir)
	default:
		return nil, nil
	}
}
