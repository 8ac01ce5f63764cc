package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aipocket/backend/internal/models"
	"aipocket/backend/internal/seed"
	"aipocket/backend/pkg/config"
	"aipocket/backend/pkg/di"
	"aipocket/backend/pkg/logger"
	"aipocket/backend/pkg/observability"
	"aipocket/backend/pkg/router"
	"aipocket/backend/pkg/secrets"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	// Set log level from environment if available
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logConfig.Level = level
	}
	// Set log format from environment if available
	logConfig.JSON = os.Getenv("LOG_FORMAT") != "text"

	appLog := logger.New(logConfig)
	logger.SetGlobal(appLog)

	appLog.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	// Initialize tracing and metrics
	shutdownTracing := observability.SetupTracing("aipocket-backend")
	defer shutdownTracing()
	observability.SetupMeterProvider()

	// Initialize the secrets manager (Vault with environment fallback)
	if err := secrets.Init(appLog); err != nil {
		appLog.Warn("Secrets manager unavailable, relying on persisted settings only", "error", err.Error())
	}

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		appLog.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&models.Character{}, &models.ChatMessage{}, &models.Setting{}); err != nil {
		appLog.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Create indexes for better query performance
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_char_ts ON chat_messages(character_id, timestamp)").Error; err != nil {
		appLog.LogError(err, "Failed to create message index", "index", "idx_messages_char_ts")
	}

	// Initialize dependency injection container
	container, err := di.New(db, appLog)
	if err != nil {
		appLog.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	// Seed the preinstalled character on first run
	if err := seed.Run(container.Characters, container.Settings, appLog); err != nil {
		appLog.LogError(err, "Failed to seed preinstalled character")
		os.Exit(1)
	}

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	// Add OpenAPI validation if schema file is available
	schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH")
	if schemaPath != "" {
		r.AddOpenAPIValidation(schemaPath)
	}

	// Get port from configuration
	port := container.Config.Server.Port

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		appLog.Info("Server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	appLog.Info("Shutting down server...")

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server, then the chat sessions
	if err := srv.Shutdown(ctx); err != nil {
		appLog.LogError(err, "Server forced to shutdown")
	}
	container.Sessions.Close()

	appLog.Info("Server exited gracefully")
}
