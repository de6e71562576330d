package testutil

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/analytics"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
)

// InMemoryAnalyticsStore implements analytics.Repository, keyed by
// "metric_name@period" since a Snapshot has no single natural ID.
type InMemoryAnalyticsStore struct {
	*InMemoryStore[*analytics.Snapshot]
}

func NewInMemoryAnalyticsStore() *InMemoryAnalyticsStore {
	return &InMemoryAnalyticsStore{InMemoryStore: NewInMemoryStore[*analytics.Snapshot]()}
}

func snapshotKey(metricName string, period time.Time) string {
	return metricName + "@" + period.UTC().Format(time.RFC3339)
}

func (s *InMemoryAnalyticsStore) Upsert(ctx context.Context, snap *analytics.Snapshot) error {
	key := snapshotKey(snap.MetricName, snap.Period)
	if _, err := s.InMemoryStore.Get(ctx, key); err == nil {
		return s.InMemoryStore.Update(ctx, key, snap)
	}
	return s.InMemoryStore.Create(ctx, key, snap)
}

func (s *InMemoryAnalyticsStore) Get(ctx context.Context, metricName string, period time.Time) (*analytics.Snapshot, error) {
	snap, err := s.InMemoryStore.Get(ctx, snapshotKey(metricName, period))
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return snap, nil
}
