package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"salesinsight/internal/analysis"
	"salesinsight/internal/config"
	"salesinsight/internal/db"
	"salesinsight/internal/export"
	"salesinsight/internal/ingestion"
	"salesinsight/internal/middleware"
	"salesinsight/internal/repository"
	"salesinsight/migrations"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database, migrations.FS); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Create repositories
	recordRepo := repository.NewSalesRecordRepository(conn.Pool)
	logRepo := repository.NewIngestionLogRepository(conn.Pool)

	// Create services and handlers
	ingestionHandler := ingestion.NewHTTPHandler(
		ingestion.NewService(recordRepo, logRepo, logger),
		logRepo,
	)
	analysisHandler := analysis.NewHTTPHandler(
		analysis.NewService(recordRepo, logger),
	)
	exportHandler := export.NewHTTPHandler(
		export.NewService(recordRepo),
		logger,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", ingestionHandler.Upload)
	mux.HandleFunc("/api/upload/logs", ingestionHandler.Logs)
	mux.HandleFunc("/api/analysis", analysisHandler.Aggregate)
	mux.HandleFunc("/api/summary", analysisHandler.Summary)
	mux.HandleFunc("/api/records", analysisHandler.Records)
	mux.HandleFunc("/api/records/options", analysisHandler.Options)
	mux.HandleFunc("/api/export", exportHandler.Download)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := middleware.LoggingMiddleware(logger, corsHandler.Handler(mux))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
