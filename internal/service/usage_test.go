package service

import (
	"context"
	"testing"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/domain/plan"
	"github.com/sugu-inc/modern-billing/internal/domain/subscription"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/testutil"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type usageFixture struct {
	svc      *UsageService
	subs     *testutil.InMemorySubscriptionStore
	plans    *testutil.InMemoryPlanStore
	accounts *testutil.InMemoryAccountStore
	invoices *testutil.InMemoryInvoiceStore
}

func newUsageFixture(t *testing.T) *usageFixture {
	t.Helper()
	log := logger.NewNop()
	usageRepo := testutil.NewInMemoryUsageStore()
	subs := testutil.NewInMemorySubscriptionStore()
	plans := testutil.NewInMemoryPlanStore()
	accounts := testutil.NewInMemoryAccountStore()
	invoices := testutil.NewInMemoryInvoiceStore()
	creditRepo := testutil.NewInMemoryCreditStore()
	credits := NewCreditService(creditRepo, invoices, nil, log)

	invSvc := NewInvoiceService(invoices, subs, plans, accounts, usageRepo, credits, nil, nil, nil, log)
	svc := NewUsageService(usageRepo, subs, plans, accounts, invSvc, log)
	return &usageFixture{svc: svc, subs: subs, plans: plans, accounts: accounts, invoices: invoices}
}

func TestUsageRecordIsIdempotentOnKey(t *testing.T) {
	// testable property: a duplicate idempotency_key returns the original
	// record instead of creating a second one.
	f := newUsageFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sub := &subscription.Subscription{ID: "sub-1", CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30)}
	_ = f.subs.Create(ctx, sub)

	first, err := f.svc.Record(ctx, RecordRequest{SubscriptionID: "sub-1", Metric: "api_calls", Quantity: 10, IdempotencyKey: "evt-1"})
	if err != nil {
		t.Fatalf("first Record: %v", err)
	}
	second, err := f.svc.Record(ctx, RecordRequest{SubscriptionID: "sub-1", Metric: "api_calls", Quantity: 999, IdempotencyKey: "evt-1"})
	if err != nil {
		t.Fatalf("second Record: %v", err)
	}
	if first.ID != second.ID || second.Quantity != 10 {
		t.Fatalf("expected the duplicate call to return the original record unchanged, got %+v", second)
	}

	total, err := f.svc.Sum(ctx, "sub-1", "api_calls", now, now.AddDate(0, 0, 30))
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if total != 10 {
		t.Fatalf("Sum = %d, want 10 (the duplicate must not double-count)", total)
	}
}

func TestUsageRecordRejectsNonPositiveQuantity(t *testing.T) {
	f := newUsageFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	sub := &subscription.Subscription{ID: "sub-1", CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30)}
	_ = f.subs.Create(ctx, sub)

	if _, err := f.svc.Record(ctx, RecordRequest{SubscriptionID: "sub-1", Metric: "api_calls", Quantity: 0, IdempotencyKey: "evt-1"}); err == nil {
		t.Fatal("expected a zero-quantity usage event to be rejected")
	}
}

func TestUsageRecordRejectsPausedOrCancelledSubscription(t *testing.T) {
	// testable property (spec.md §4.7): ingest is rejected for non-billable
	// subscription states, not silently accepted.
	f := newUsageFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, status := range []types.SubscriptionStatus{types.SubscriptionStatusPaused, types.SubscriptionStatusCancelled} {
		sub := &subscription.Subscription{
			ID: "sub-" + string(status), Status: status,
			CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
		}
		if err := f.subs.Create(ctx, sub); err != nil {
			t.Fatalf("seed subscription %s: %v", status, err)
		}
		if _, err := f.svc.Record(ctx, RecordRequest{
			SubscriptionID: sub.ID, Metric: "api_calls", Quantity: 1, IdempotencyKey: "evt-" + string(status),
		}); err == nil {
			t.Fatalf("expected usage ingest against a %s subscription to be rejected", status)
		}
	}
}

func TestUsageReconcileLateFoldsIntoStillOpenInvoice(t *testing.T) {
	f := newUsageFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	periodStart := now.AddDate(0, 0, -30)
	periodEnd := now

	sub := &subscription.Subscription{ID: "sub-1", CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodEnd}
	_ = f.subs.Create(ctx, sub)

	// A usage event timestamped within the period but received after it
	// closed: is_late but the original invoice is still open.
	if _, err := f.svc.Record(ctx, RecordRequest{
		SubscriptionID: "sub-1", Metric: "api_calls", Quantity: 5,
		Timestamp: periodEnd.Add(-time.Hour), IdempotencyKey: "evt-late",
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	openInvoice := &invoice.Invoice{ID: "inv-1", Status: types.InvoiceStatusOpen}
	result, err := f.svc.ReconcileLate(ctx, sub, openInvoice, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("ReconcileLate: %v", err)
	}
	if result != nil {
		t.Fatal("expected no supplemental invoice when the original invoice is still open")
	}
}

func TestUsageReconcileLateReturnsNilWhenNoLateRecordsExist(t *testing.T) {
	f := newUsageFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	periodStart := now.AddDate(0, 0, -30)
	periodEnd := now

	sub := &subscription.Subscription{ID: "sub-1", CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodEnd}
	_ = f.subs.Create(ctx, sub)

	closedInvoice := &invoice.Invoice{ID: "inv-1", Status: types.InvoiceStatusPaid}
	result, err := f.svc.ReconcileLate(ctx, sub, closedInvoice, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("ReconcileLate: %v", err)
	}
	if result != nil {
		t.Fatal("expected no supplemental invoice when there is no late usage at all")
	}
}

func TestUsageReconcileLateIssuesSupplementalInvoiceWhenOriginalClosed(t *testing.T) {
	f := newUsageFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	periodStart := now.AddDate(0, 0, -30)
	periodEnd := now

	acc := testutil.NewTestAccount(now)
	acc.TaxExempt = true // avoids needing a tax oracle wired into this fixture
	if err := f.accounts.Create(ctx, acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	p := testutil.NewTestPlan(now, 0)
	p.UsageType = types.UsageTypeGraduated
	p.Tiers = []plan.Tier{{UpTo: nil, UnitAmount: 10}}
	if err := f.plans.Create(ctx, p); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	sub := &subscription.Subscription{ID: "sub-1", AccountID: acc.ID, PlanID: p.ID, Quantity: 1, CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodEnd}
	if err := f.subs.Create(ctx, sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	if _, err := f.svc.Record(ctx, RecordRequest{
		SubscriptionID: "sub-1", Metric: "api_calls", Quantity: 5,
		Timestamp: periodEnd.Add(-time.Hour), IdempotencyKey: "evt-late",
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	closedInvoice := &invoice.Invoice{ID: "inv-1", Status: types.InvoiceStatusPaid}
	result, err := f.svc.ReconcileLate(ctx, sub, closedInvoice, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("ReconcileLate: %v", err)
	}
	if result == nil {
		t.Fatal("expected a supplemental invoice once the original invoice is closed")
	}
	if result.AmountDue != 50 {
		t.Fatalf("AmountDue = %d, want 50 (5 units * 10)", result.AmountDue)
	}
}
