package testutil

import (
	"context"
	"time"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"

	"github.com/sugu-inc/modern-billing/internal/domain/usage"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// InMemoryUsageStore implements usage.Repository.
type InMemoryUsageStore struct {
	*InMemoryStore[*usage.Record]
}

func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{InMemoryStore: NewInMemoryStore[*usage.Record]()}
}

func (s *InMemoryUsageStore) Create(ctx context.Context, r *usage.Record) error {
	if err := s.InMemoryStore.Create(ctx, r.ID, r); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryUsageStore) GetByIdempotencyKey(ctx context.Context, key string) (*usage.Record, error) {
	r, ok := s.Find(func(r *usage.Record) bool { return r.IdempotencyKey == key })
	if !ok {
		return nil, ierr.NewErrorf("usage record with idempotency key %q not found", key).Mark(ierr.ErrNotFound)
	}
	return r, nil
}

func (s *InMemoryUsageStore) Sum(ctx context.Context, subscriptionID, metric string, from, to time.Time) (int64, error) {
	var total int64
	for _, r := range s.InMemoryStore.List(ctx, nil, nil, nil) {
		if r.SubscriptionID != subscriptionID || r.Metric != metric {
			continue
		}
		if r.Timestamp.Before(from) || !r.Timestamp.Before(to) {
			continue
		}
		total += r.Quantity
	}
	return total, nil
}

func (s *InMemoryUsageStore) ListMetrics(ctx context.Context, subscriptionID string, from, to time.Time) ([]string, error) {
	seen := map[string]bool{}
	var metrics []string
	for _, r := range s.InMemoryStore.List(ctx, nil, nil, nil) {
		if r.SubscriptionID != subscriptionID {
			continue
		}
		if r.Timestamp.Before(from) || !r.Timestamp.Before(to) {
			continue
		}
		if !seen[r.Metric] {
			seen[r.Metric] = true
			metrics = append(metrics, r.Metric)
		}
	}
	return metrics, nil
}

func (s *InMemoryUsageStore) ListLate(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) ([]*usage.Record, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, r *usage.Record, _ any) bool {
		if r.SubscriptionID != subscriptionID {
			return false
		}
		if r.Timestamp.Before(periodStart) || !r.Timestamp.Before(periodEnd) {
			return false
		}
		return r.IsLate(periodEnd)
	}, nil), nil
}

func (s *InMemoryUsageStore) List(ctx context.Context, filter *types.UsageFilter) ([]*usage.Record, error) {
	return s.InMemoryStore.List(ctx, filter, func(_ context.Context, r *usage.Record, f any) bool {
		flt, _ := f.(*types.UsageFilter)
		if flt == nil {
			return true
		}
		if flt.SubscriptionID != "" && r.SubscriptionID != flt.SubscriptionID {
			return false
		}
		return true
	}, nil), nil
}
