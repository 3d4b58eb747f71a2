package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nextdocs/docsgpt/internal/domain"
)

// UsageLedger is the limiter's view of the usage store.
type UsageLedger interface {
	CountSince(ctx context.Context, clientID string, since time.Time) (int64, error)
	Record(ctx context.Context, clientID string) error
}

// UsageLimiter enforces a soft per-client request cap over a trailing
// time window, backed by the append-only usage ledger.
type UsageLimiter struct {
	ledger UsageLedger
	max    int64
	window time.Duration
}

// NewUsageLimiter creates a new usage limiter
func NewUsageLimiter(ledger UsageLedger, max int64, window time.Duration) *UsageLimiter {
	return &UsageLimiter{ledger: ledger, max: max, window: window}
}

// CheckAndRecord admits or rejects one request from clientID. A
// rejected request is not recorded. Any ledger error fails the request
// closed rather than bypassing the limit.
//
// The count and the insert are separate statements, so two requests
// arriving at once can both slip under the cap; this is an anti-abuse
// measure, not a security boundary.
func (l *UsageLimiter) CheckAndRecord(ctx context.Context, clientID string) error {
	count, err := l.ledger.CountSince(ctx, clientID, time.Now().Add(-l.window))
	if err != nil {
		return fmt.Errorf("failed to count usage: %w", err)
	}

	if count > l.max {
		return domain.ErrTooManyRequests
	}

	if err := l.ledger.Record(ctx, clientID); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	return nil
}
