package analytics

import (
	"context"
	"time"
)

// Repository upserts AnalyticsSnapshot rows keyed by (metric_name, period).
type Repository interface {
	Upsert(ctx context.Context, s *Snapshot) error
	Get(ctx context.Context, metricName string, period time.Time) (*Snapshot, error)
}
