package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository persists the append-only request ledger. Rows are
// inserted with a server-assigned timestamp and never updated or
// deleted by the application.
type UsageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// CountSince returns how many requests clientID has recorded since the
// cutoff instant.
func (r *UsageRepository) CountSince(ctx context.Context, clientID string, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM usage
		WHERE ip_address = $1 AND created_at > $2
	`, clientID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage: %w", err)
	}
	return count, nil
}

// Record appends one ledger row for clientID
func (r *UsageRepository) Record(ctx context.Context, clientID string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO usage (ip_address) VALUES ($1)`, clientID)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}
