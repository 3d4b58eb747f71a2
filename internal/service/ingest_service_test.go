package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nextdocs/docsgpt/internal/domain"
)

type fakeDocumentStore struct {
	inserted []domain.DocumentChunk
	deleted  []string
}

func (s *fakeDocumentStore) Insert(_ context.Context, chunk domain.DocumentChunk, _ []float32) error {
	s.inserted = append(s.inserted, chunk)
	return nil
}

func (s *fakeDocumentStore) DeleteByPath(_ context.Context, sourcePath string) error {
	s.deleted = append(s.deleted, sourcePath)
	return nil
}

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestService(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests txt files with token counts", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "docs_routing_introduction.txt", "Routing is based on the file system.")
		writeDoc(t, dir, "docs_api-reference.txt", "API reference.")
		writeDoc(t, dir, "README.md", "not a doc dump")

		store := &fakeDocumentStore{}
		embedder := &fakeEmbedder{vec: []float32{0.1, 0.2}}
		svc := NewIngestService(store, embedder, wordCounter{}, zap.NewNop())

		count, err := svc.IngestDir(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		require.Len(t, store.inserted, 2)

		byPath := map[string]domain.DocumentChunk{}
		for _, chunk := range store.inserted {
			byPath[chunk.SourcePath] = chunk
		}
		intro := byPath["docs_routing_introduction.txt"]
		assert.Equal(t, "Routing is based on the file system.", intro.Text)
		assert.Equal(t, 7, intro.TokenCount)
	})

	t.Run("re-ingesting a file replaces it", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "docs_pages.txt", "Pages router.")

		store := &fakeDocumentStore{}
		svc := NewIngestService(store, &fakeEmbedder{vec: []float32{0.1}}, wordCounter{}, zap.NewNop())

		require.NoError(t, svc.IngestFile(ctx, filepath.Join(dir, "docs_pages.txt")))
		assert.Equal(t, []string{"docs_pages.txt"}, store.deleted)
	})

	t.Run("empty files are skipped", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "docs_empty.txt", "  \n\t")

		store := &fakeDocumentStore{}
		svc := NewIngestService(store, &fakeEmbedder{vec: []float32{0.1}}, wordCounter{}, zap.NewNop())

		require.NoError(t, svc.IngestFile(ctx, filepath.Join(dir, "docs_empty.txt")))
		assert.Empty(t, store.inserted)
	})
}
