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

	"go.uber.org/zap"

	"github.com/nextdocs/docsgpt/internal/api"
	"github.com/nextdocs/docsgpt/internal/config"
	"github.com/nextdocs/docsgpt/internal/repository"
	"github.com/nextdocs/docsgpt/internal/service"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Database: documentation corpus and usage ledger
	if err := repository.Migrate(cfg.Database.URL); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	documentRepo := repository.NewDocumentRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)

	// Services
	openaiClient := service.NewOpenAIClient(cfg.OpenAI)
	limiter := service.NewUsageLimiter(usageRepo, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	chatService := service.NewChatService(
		limiter,
		openaiClient,
		documentRepo,
		openaiClient,
		cfg.Chat,
		logger,
	)

	// Setup router
	router := api.SetupRouter(chatService, logger, api.RouterConfig{
		AllowOrigins: []string{"*"},
	})

	// WriteTimeout stays unset: streamed completions outlive any fixed
	// write deadline and carry their own duration bound.
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting docsgpt server", zap.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
