/**
 * @description
 * Worker Service Entry Point.
 * Runs the scheduled pipeline:
 * 1. Price reconciliation over every tracked book (every 30 minutes).
 * 2. List synchronization over every tracked list (every 2 hours).
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/scraper
 * - backend/internal/services
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/priceshelf-project/backend/internal/cache"
	"github.com/priceshelf-project/backend/internal/config"
	"github.com/priceshelf-project/backend/internal/db"
	"github.com/priceshelf-project/backend/internal/logger"
	"github.com/priceshelf-project/backend/internal/mailer"
	"github.com/priceshelf-project/backend/internal/scraper"
	"github.com/priceshelf-project/backend/internal/services"
	"github.com/priceshelf-project/backend/internal/store"
)

func main() {
	logger.Info("🔥 Starting Priceshelf Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		logger.Fatal("Schema migration failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services. One fetcher instance gates every outbound
	// fetch for the whole process.
	st := store.NewGormStore(pgDB)
	fetcher := scraper.NewFetcher(cfg.Scraper)
	responseCache := cache.New(redisClient, cfg.Redis.CacheTTL)
	notifier := services.NewNotificationService(st, mailer.NewSMTPMailer(cfg.SMTP), nil)
	monitorService := services.NewMonitorService(st, fetcher, notifier, responseCache)
	listService := services.NewListService(st, fetcher, monitorService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Reconciliation loop
	go func() {
		ticker := time.NewTicker(cfg.Worker.MonitorInterval)
		defer ticker.Stop()

		runMonitor(ctx, monitorService)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runMonitor(ctx, monitorService)
			}
		}
	}()

	// 5. List sync loop
	go func() {
		ticker := time.NewTicker(cfg.Worker.ListSyncInterval)
		defer ticker.Stop()

		runListSync(ctx, listService)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runListSync(ctx, listService)
			}
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	time.Sleep(1 * time.Second) // let in-flight fetches settle
	logger.Info("Worker exited.")
}

func runMonitor(ctx context.Context, ms *services.MonitorService) {
	logger.Info("🔄 Running scheduled task: monitor books")
	summary, err := ms.MonitorAllBooks(ctx)
	if err != nil {
		logger.Error("Monitor run failed: %v", err)
		return
	}
	logger.Info("Monitor run done: processed=%d failed=%d", summary.Processed, summary.Failed)
}

func runListSync(ctx context.Context, ls *services.ListService) {
	logger.Info("🔄 Running scheduled task: process lists")
	summary, err := ls.SyncAllLists(ctx)
	if err != nil {
		logger.Error("List sync run failed: %v", err)
		return
	}
	logger.Info("List sync done: processed=%d failed=%d", summary.Processed, summary.Failed)
}
