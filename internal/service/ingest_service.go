package service

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/nextdocs/docsgpt/internal/domain"
)

// tiktoken encoding used by the ada-002 embedding model.
const tokenEncoding = "cl100k_base"

// DocumentStore is the ingester's view of the corpus table.
type DocumentStore interface {
	Insert(ctx context.Context, chunk domain.DocumentChunk, embedding []float32) error
	DeleteByPath(ctx context.Context, sourcePath string) error
}

// TokenCounter counts model tokens in a text.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the encoding the embedding model
// uses.
type TiktokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the cl100k_base encoding
func NewTiktokenCounter() (*TiktokenCounter, error) {
	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding: %w", err)
	}
	return &TiktokenCounter{encoder: encoder}, nil
}

// Count returns the number of tokens in text
func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}

// IngestService loads documentation dumps into the vector corpus. Each
// .txt file becomes one chunk stored under its file name, which is the
// docs path with slashes flattened to underscores (the chat pipeline
// reverses that mapping when it renders citation URLs).
type IngestService struct {
	store    DocumentStore
	embedder Embedder
	counter  TokenCounter
	logger   *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(store DocumentStore, embedder Embedder, counter TokenCounter, logger *zap.Logger) *IngestService {
	return &IngestService{
		store:    store,
		embedder: embedder,
		counter:  counter,
		logger:   logger,
	}
}

// IngestFile embeds one documentation file and stores it. Re-ingesting
// a file replaces its previous chunks. Empty files are skipped.
func (s *IngestService) IngestFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("skipping empty file", zap.String("path", path))
		return nil
	}

	sourcePath := filepath.Base(path)
	tokens := s.counter.Count(text)

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", path, err)
	}

	if err := s.store.DeleteByPath(ctx, sourcePath); err != nil {
		return err
	}

	chunk := domain.DocumentChunk{
		Text:       text,
		TokenCount: tokens,
		SourcePath: sourcePath,
	}
	if err := s.store.Insert(ctx, chunk, embedding); err != nil {
		return err
	}

	s.logger.Info("ingested document",
		zap.String("file_path", sourcePath),
		zap.Int("n_tokens", tokens),
	)
	return nil
}

// IngestDir ingests every .txt file under dir and returns how many
// files were processed.
func (s *IngestService) IngestDir(ctx context.Context, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}
		if err := s.IngestFile(ctx, path); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to ingest %s: %w", dir, err)
	}
	return count, nil
}
