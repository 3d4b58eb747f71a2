package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextdocs/docsgpt/internal/domain"
)

type fakeLedger struct {
	counts    map[string]int64
	countErr  error
	recordErr error
	recorded  []string
	lastSince time.Time
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{counts: make(map[string]int64)}
}

func (l *fakeLedger) CountSince(_ context.Context, clientID string, since time.Time) (int64, error) {
	l.lastSince = since
	if l.countErr != nil {
		return 0, l.countErr
	}
	return l.counts[clientID], nil
}

func (l *fakeLedger) Record(_ context.Context, clientID string) error {
	if l.recordErr != nil {
		return l.recordErr
	}
	l.recorded = append(l.recorded, clientID)
	l.counts[clientID]++
	return nil
}

func TestUsageLimiterCheckAndRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("admits the first six requests and rejects the seventh", func(t *testing.T) {
		ledger := newFakeLedger()
		limiter := NewUsageLimiter(ledger, 5, 10*time.Minute)

		for i := 0; i < 6; i++ {
			require.NoError(t, limiter.CheckAndRecord(ctx, "1.2.3.4"), "request %d should be admitted", i+1)
		}

		err := limiter.CheckAndRecord(ctx, "1.2.3.4")
		assert.ErrorIs(t, err, domain.ErrTooManyRequests)

		// The rejected attempt is not recorded.
		assert.Len(t, ledger.recorded, 6)
	})

	t.Run("clients are counted independently", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.counts["1.2.3.4"] = 6
		limiter := NewUsageLimiter(ledger, 5, 10*time.Minute)

		assert.ErrorIs(t, limiter.CheckAndRecord(ctx, "1.2.3.4"), domain.ErrTooManyRequests)
		assert.NoError(t, limiter.CheckAndRecord(ctx, "5.6.7.8"))
	})

	t.Run("counts over the trailing window", func(t *testing.T) {
		ledger := newFakeLedger()
		limiter := NewUsageLimiter(ledger, 5, 10*time.Minute)

		before := time.Now().Add(-10 * time.Minute)
		require.NoError(t, limiter.CheckAndRecord(ctx, "1.2.3.4"))
		assert.WithinDuration(t, before, ledger.lastSince, 2*time.Second)
	})

	t.Run("count failure fails closed", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.countErr = errors.New("connection refused")
		limiter := NewUsageLimiter(ledger, 5, 10*time.Minute)

		err := limiter.CheckAndRecord(ctx, "1.2.3.4")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrTooManyRequests)
		assert.Empty(t, ledger.recorded)
	})

	t.Run("record failure fails closed", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.recordErr = errors.New("insert failed")
		limiter := NewUsageLimiter(ledger, 5, 10*time.Minute)

		require.Error(t, limiter.CheckAndRecord(ctx, "1.2.3.4"))
	})
}
