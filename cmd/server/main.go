package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/physai/textbook-backend/api"
	dbfs "github.com/physai/textbook-backend/db"
	"github.com/physai/textbook-backend/internal/auth"
	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/db"
	"github.com/physai/textbook-backend/internal/repository/sqlite"
	"github.com/physai/textbook-backend/pkg/ollama"
	"github.com/physai/textbook-backend/pkg/retrieval"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)
	ollama.SetLogger(logger)
	retrieval.SetLogger(logger)

	log.Printf("Starting textbook backend version %s (built at %s)", version, buildTime)

	ctx := context.Background()

	// Open database connection and apply migrations
	conn, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	retriever, err := retrieval.NewClient(cfg.Retrieval, nil)
	if err != nil {
		log.Fatalf("Failed to create retrieval client: %v", err)
	}
	generator, err := ollama.NewDefaultClient(cfg.Ollama)
	if err != nil {
		log.Fatalf("Failed to create generation client: %v", err)
	}

	handler, err := api.SetupRoutes(cfg, version, buildTime, conn, retriever, generator)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// Background cleanup of expired session rows
	sweeper := auth.NewSweeper(sqlite.New(conn, logger), cfg.SessionSweepInterval, logger)
	sweeper.Start(ctx)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	sweeper.Stop()

	if err := generator.Close(); err != nil {
		log.Printf("Error closing generation client: %v", err)
	}

	// Close database connection
	if err := conn.Close(); err != nil {
		log.Printf("Error closing DB: %v", err)
	}

	log.Println("Server exited")
}
