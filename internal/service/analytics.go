package service

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/analytics"
	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/domain/subscription"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// AnalyticsService implements the analytics_rollup scheduler's aggregation
// step (spec.md §4.9): periodic upserts into AnalyticsSnapshot from the
// live aggregates, rather than a separate streaming pipeline.
type AnalyticsService struct {
	subs      subscription.Repository
	invoices  invoice.Repository
	snapshots analytics.Repository
	logger    *logger.Logger
}

// NewAnalyticsService wires the rollup step.
func NewAnalyticsService(subs subscription.Repository, invoices invoice.Repository, snapshots analytics.Repository, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{subs: subs, invoices: invoices, snapshots: snapshots, logger: log}
}

// Rollup computes and upserts the period's snapshot rows: active
// subscription count, open/past_due invoice count, and outstanding
// receivables total.
func (s *AnalyticsService) Rollup(ctx context.Context, period time.Time) error {
	active, err := s.subs.List(ctx, &types.SubscriptionFilter{
		Statuses: []types.SubscriptionStatus{types.SubscriptionStatusActive},
	})
	if err != nil {
		return err
	}
	if err := s.snapshots.Upsert(ctx, &analytics.Snapshot{
		MetricName: "active_subscriptions",
		Value:      float64(len(active)),
		Period:     period,
	}); err != nil {
		return err
	}

	overdue, err := s.invoices.List(ctx, &types.InvoiceFilter{
		Statuses: []types.InvoiceStatus{types.InvoiceStatusOpen, types.InvoiceStatusPastDue},
	})
	if err != nil {
		return err
	}
	var outstanding float64
	for _, inv := range overdue {
		outstanding += float64(inv.AmountDue - inv.AmountPaid)
	}
	if err := s.snapshots.Upsert(ctx, &analytics.Snapshot{
		MetricName: "open_invoice_count",
		Value:      float64(len(overdue)),
		Period:     period,
	}); err != nil {
		return err
	}
	return s.snapshots.Upsert(ctx, &analytics.Snapshot{
		MetricName: "outstanding_receivables",
		Value:      outstanding,
		Period:     period,
	})
}
