package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/agrilearn/enrollment-sync/internal/api"
	"github.com/agrilearn/enrollment-sync/internal/config"
	"github.com/agrilearn/enrollment-sync/internal/enrollment"
	"github.com/agrilearn/enrollment-sync/internal/scheduler"
	"github.com/agrilearn/enrollment-sync/internal/store"
	"github.com/agrilearn/enrollment-sync/internal/syncer"

	_ "github.com/agrilearn/enrollment-sync/docs"
)

// @title Agrilearn Enrollment Sync API
// @version 1.0
// @description Offline-first enrollment storage and synchronization for the agricultural training portal
// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	// Load configuration with defaults
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate minimum required config
	if cfg.Remote.PrimaryBaseURL == "" {
		logger.Fatal("Missing required configuration (PRIMARY_API_URL must be set)")
	}

	// Initialize the on-device store
	dbStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Run migrations with retry logic
	if err := retry(3, 5*time.Second, func() error {
		return dbStore.Migrate()
	}); err != nil {
		logger.Fatalf("Failed to run migrations after retries: %v", err)
	}

	// Initialize services
	remoteClient := syncer.NewTieredClient(cfg.Remote, logger)
	engine := syncer.NewEngine(dbStore, dbStore, remoteClient, cfg.Sync, logger)
	manager := enrollment.NewManager(dbStore, dbStore, engine, remoteClient, logger)
	apiHandler := api.NewHandler(manager, logger)

	// Setup router with middleware
	router := api.SetupRouter(apiHandler)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(router)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Start opportunistic background drain
	drainScheduler := scheduler.New(engine, cfg.Sync.Interval, cfg.Sync.DrainTimeout, logger)
	drainScheduler.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	drainScheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server exited properly")
}

// retry retries a function up to a certain number of attempts with a delay between attempts
func retry(attempts int, sleep time.Duration, fn func() error) error {
	if err := fn(); err != nil {
		if attempts--; attempts > 0 {
			time.Sleep(sleep)
			return retry(attempts, sleep, fn)
		}
		return err
	}
	return nil
}
