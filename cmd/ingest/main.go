// Command ingest loads a directory of documentation dumps (.txt files
// named after their docs path, slashes flattened to underscores) into
// the vector corpus.
package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/nextdocs/docsgpt/internal/config"
	"github.com/nextdocs/docsgpt/internal/repository"
	"github.com/nextdocs/docsgpt/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	docsDir    = flag.String("dir", "", "Directory of .txt documentation dumps")
)

func main() {
	flag.Parse()

	if *docsDir == "" {
		log.Fatal("-dir is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := repository.Migrate(cfg.Database.URL); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	documentRepo := repository.NewDocumentRepository(pool)
	openaiClient := service.NewOpenAIClient(cfg.OpenAI)

	counter, err := service.NewTiktokenCounter()
	if err != nil {
		logger.Fatal("Failed to load token encoding", zap.Error(err))
	}
	ingester := service.NewIngestService(documentRepo, openaiClient, counter, logger)

	count, err := ingester.IngestDir(ctx, *docsDir)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Int("ingested", count), zap.Error(err))
	}

	logger.Info("Ingestion complete", zap.Int("ingested", count))
}
