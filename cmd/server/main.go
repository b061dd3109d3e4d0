package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyeonwoo/placecache/config"
	"github.com/hyeonwoo/placecache/internal/app/controller"
	"github.com/hyeonwoo/placecache/internal/app/repository"
	"github.com/hyeonwoo/placecache/internal/app/service"
	"github.com/hyeonwoo/placecache/internal/db"
	"github.com/hyeonwoo/placecache/internal/router"
	"github.com/hyeonwoo/placecache/internal/scheduler"
	"github.com/hyeonwoo/placecache/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if cfg.Server.Environment == "development" && logLevel == "info" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: true,
	})

	logger.Info("Starting placecache server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"db_driver":   cfg.Database.Driver,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize repositories
	businessRepo := repository.NewBusinessRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())
	imageRepo := repository.NewImageRepository(db.GetDB())
	historyRepo := repository.NewHistoryRepository(db.GetDB())

	// Initialize services
	cacheService := service.NewCacheService(
		db.GetDB(),
		businessRepo,
		reviewRepo,
		imageRepo,
		historyRepo,
		cfg.Cache.StatsTTL,
		cfg.Cache.EvictionBatch,
	)

	// Initialize controllers
	cacheController := controller.NewCacheController(cacheService, cfg.Cache.DefaultMaxAge)

	// Setup router
	r := router.NewRouter(cacheController, cfg)
	engine := r.Setup()

	// Start retention eviction scheduler
	evictionScheduler := scheduler.NewEvictionScheduler(
		cacheService,
		cfg.Cache.EvictionSchedule,
		cfg.Cache.RetentionDays,
	)
	if err := evictionScheduler.Start(); err != nil {
		logger.Fatal("Failed to start eviction scheduler", err)
	}
	defer evictionScheduler.Stop()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
