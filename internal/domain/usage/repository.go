package usage

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/types"
)

// Repository persists UsageRecord rows and serves the aggregation queries
// the Pricing Engine and late-usage reconciliation need.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByIdempotencyKey(ctx context.Context, key string) (*Record, error)

	// Sum totals quantity for metric over [from, to) (spec.md §4.7 aggregate).
	Sum(ctx context.Context, subscriptionID, metric string, from, to time.Time) (int64, error)

	// ListMetrics returns the distinct metrics recorded for a subscription
	// within [from, to), so the Pricing Engine knows which usage lines to
	// emit without the caller enumerating metrics up front.
	ListMetrics(ctx context.Context, subscriptionID string, from, to time.Time) ([]string, error)

	// ListLate returns usage records whose timestamp falls in
	// [periodStart, periodEnd) but whose received_at is after periodEnd —
	// spec.md §4.7's late-usage reconciliation query.
	ListLate(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) ([]*Record, error)

	List(ctx context.Context, filter *types.UsageFilter) ([]*Record, error)
}
