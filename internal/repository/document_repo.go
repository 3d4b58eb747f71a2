package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/nextdocs/docsgpt/internal/domain"
)

// searchQuery ranks every chunk by cosine distance to the query
// embedding and keeps the longest ascending-distance prefix whose
// running token sum stays within the budget. Ties in distance keep the
// store's stable order through the window function.
const searchQuery = `
SELECT text, n_tokens, file_path
FROM (
    SELECT text, n_tokens, file_path,
           embeddings <=> $1 AS distance,
           SUM(n_tokens) OVER (ORDER BY embeddings <=> $1) AS cum_n_tokens
    FROM documents
) ranked
WHERE cum_n_tokens <= $2
ORDER BY distance ASC
`

// DocumentRepository gives the chat pipeline read access to the
// documentation corpus and the ingester write access.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Search returns chunks ordered by ascending distance to the query
// embedding, truncated so their cumulative token count fits the budget.
// The ranking and truncation run as a single query against the store.
// An empty result is not an error.
func (r *DocumentRepository) Search(ctx context.Context, embedding []float32, tokenBudget int) ([]domain.DocumentChunk, error) {
	rows, err := r.pool.Query(ctx, searchQuery, pgvector.NewVector(embedding), tokenBudget)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk
	for rows.Next() {
		var chunk domain.DocumentChunk
		if err := rows.Scan(&chunk.Text, &chunk.TokenCount, &chunk.SourcePath); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// Insert stores one chunk with its embedding
func (r *DocumentRepository) Insert(ctx context.Context, chunk domain.DocumentChunk, embedding []float32) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (text, n_tokens, file_path, embeddings)
		VALUES ($1, $2, $3, $4)
	`, chunk.Text, chunk.TokenCount, chunk.SourcePath, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// DeleteByPath removes every chunk stored under the given file path,
// so re-ingesting a file replaces it instead of duplicating it.
func (r *DocumentRepository) DeleteByPath(ctx context.Context, sourcePath string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE file_path = $1`, sourcePath)
	if err != nil {
		return fmt.Errorf("failed to delete documents for %s: %w", sourcePath, err)
	}
	return nil
}
