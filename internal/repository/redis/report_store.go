// internal/repository/redis/report_store.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fashionsphere-service/internal/domain/report"
	xerrors "fashionsphere-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	lastReconciliationKey = "sale:reconcile:last"
	reportTTL             = 7 * 24 * time.Hour
)

// ReportStore keeps the latest reconciliation report so every replica serves the same one.
type ReportStore struct {
	client *redis.Client
}

func NewReportStore(client *redis.Client) *ReportStore {
	return &ReportStore{client: client}
}

func (s *ReportStore) SaveLast(ctx context.Context, rep *report.Reconciliation) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := s.client.Set(ctx, lastReconciliationKey, data, reportTTL).Err(); err != nil {
		return fmt.Errorf("failed to store report in redis: %w", err)
	}
	return nil
}

func (s *ReportStore) Last(ctx context.Context) (*report.Reconciliation, error) {
	data, err := s.client.Get(ctx, lastReconciliationKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report from redis: %w", err)
	}

	var rep report.Reconciliation
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &rep, nil
}
