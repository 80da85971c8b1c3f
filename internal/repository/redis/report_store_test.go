package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"fashionsphere-service/internal/domain/report"
	xerrors "fashionsphere-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupReportStore uses a dedicated database so the fixed report key cannot clash.
func setupReportStore(t *testing.T) *ReportStore {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	client.Del(ctx, lastReconciliationKey)
	t.Cleanup(func() {
		client.Del(ctx, lastReconciliationKey)
		client.Close()
	})
	return NewReportStore(client)
}

func TestReportStore_SaveAndLast(t *testing.T) {
	store := setupReportStore(t)
	ctx := context.Background()

	_, err := store.Last(ctx)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	started := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)
	rep := &report.Reconciliation{
		RunID:              "01J000000000000000000000",
		Now:                started,
		StartedAt:          started,
		FinishedAt:         started.Add(2 * time.Second),
		Outcome:            report.OutcomePartial,
		WinnerID:           "C1",
		DiscountPercentage: 35,
		WinnerChanged:      true,
		ProductsTotal:      3,
		ProductsUpdated:    2,
		PriceFailures:      []report.ItemFailure{{ID: "P3", Error: "write timeout"}},
	}
	require.NoError(t, store.SaveLast(ctx, rep))

	got, err := store.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, got.RunID)
	assert.Equal(t, report.OutcomePartial, got.Outcome)
	assert.Equal(t, rep.PriceFailures, got.PriceFailures)
	assert.True(t, rep.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, 2*time.Second, got.Duration())
}
