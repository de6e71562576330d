package service

import (
	"context"
	"testing"
	"time"

	"github.com/sugu-inc/modern-billing/internal/config"
	"github.com/sugu-inc/modern-billing/internal/domain/plan"
	"github.com/sugu-inc/modern-billing/internal/domain/subscription"
	"github.com/sugu-inc/modern-billing/internal/domain/usage"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/taxoracle"
	"github.com/sugu-inc/modern-billing/internal/testutil"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type invoiceFixture struct {
	invoices *testutil.InMemoryInvoiceStore
	credits  *CreditService
	svc      *InvoiceService
	accounts *testutil.InMemoryAccountStore
	plans    *testutil.InMemoryPlanStore
	usage    *testutil.InMemoryUsageStore
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	log := logger.NewNop()
	invoices := testutil.NewInMemoryInvoiceStore()
	subs := testutil.NewInMemorySubscriptionStore()
	plans := testutil.NewInMemoryPlanStore()
	accounts := testutil.NewInMemoryAccountStore()
	usageRepo := testutil.NewInMemoryUsageStore()
	creditRepo := testutil.NewInMemoryCreditStore()

	credits := NewCreditService(creditRepo, invoices, nil, log)
	tax := taxoracle.NewFlatRateOracle(config.TaxConfig{FallbackRatePercent: 10})
	svc := NewInvoiceService(invoices, subs, plans, accounts, usageRepo, credits, tax, tax, nil, log)

	return &invoiceFixture{invoices: invoices, credits: credits, svc: svc, accounts: accounts, plans: plans, usage: usageRepo}
}

func TestInvoiceGenerateForPeriodScenarioA(t *testing.T) {
	// spec.md §8 scenario A: a flat-rate plan with no usage, subtotal 2000,
	// 10% flat-rate tax fallback -> tax 200, amount_due 2200.
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = f.accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = f.plans.Create(ctx, p)

	sub := &subscription.Subscription{
		ID: "sub-a", AccountID: acc.ID, PlanID: p.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
		BaseModel: types.NewBaseModel(now, "test"),
	}

	inv, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}
	if inv.Tax != 200 {
		t.Fatalf("Tax = %d, want 200", inv.Tax)
	}
	if inv.AmountDue != 2200 {
		t.Fatalf("AmountDue = %d, want 2200", inv.AmountDue)
	}
	if inv.Status != types.InvoiceStatusOpen {
		t.Fatalf("Status = %q, want open", inv.Status)
	}
	if inv.Number == "" {
		t.Fatal("expected an allocated invoice number")
	}
}

func TestInvoiceGenerateForPeriodRejectsDuplicatePeriod(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = f.accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = f.plans.Create(ctx, p)

	sub := &subscription.Subscription{
		ID: "sub-dup", AccountID: acc.ID, PlanID: p.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
		BaseModel: types.NewBaseModel(now, "test"),
	}

	if _, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd); err != nil {
		t.Fatalf("first GenerateForPeriod: %v", err)
	}
	if _, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd); err == nil {
		t.Fatal("expected a second invoice for the same (subscription, period_start) to be rejected")
	}
}

func TestInvoiceGenerateForPeriodSkipsNonBillableSubscription(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sub := &subscription.Subscription{
		ID:                 "sub-paused",
		Status:             types.SubscriptionStatusPaused,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
	}
	inv, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv != nil {
		t.Fatal("a paused subscription must not generate an invoice")
	}
}

func TestInvoiceTaxExemptAccountPaysNoTax(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	acc.TaxExempt = true
	_ = f.accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = f.plans.Create(ctx, p)

	sub := &subscription.Subscription{
		ID: "sub-exempt", AccountID: acc.ID, PlanID: p.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
	}
	inv, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}
	if inv.Tax != 0 {
		t.Fatalf("Tax = %d, want 0 for a tax-exempt account", inv.Tax)
	}
}

func TestInvoiceCreditFIFOApplicationAndSplit(t *testing.T) {
	// spec.md §8 scenario D: FIFO credit application splits a credit across
	// invoices when it exceeds the invoice total.
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = f.accounts.Create(ctx, acc)

	// Two credits issued in FIFO order: 500 then 3000.
	if _, err := f.credits.Issue(ctx, acc.ID, 500, "USD", types.CreditReasonManual, nil); err != nil {
		t.Fatalf("Issue first credit: %v", err)
	}
	time.Sleep(time.Millisecond) // ensure distinct CreatedAt ordering
	if _, err := f.credits.Issue(ctx, acc.ID, 3000, "USD", types.CreditReasonManual, nil); err != nil {
		t.Fatalf("Issue second credit: %v", err)
	}

	p := testutil.NewTestPlan(now, 2000)
	_ = f.plans.Create(ctx, p)
	sub := &subscription.Subscription{
		ID: "sub-credit", AccountID: acc.ID, PlanID: p.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
	}

	// subtotal 2000 + 10% tax = 2200 amount_due.
	inv, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}

	// The first credit (500) is fully consumed; 1700 of the second credit
	// (3000) covers the rest, leaving a 1300 split-remainder credit, and the
	// invoice is fully paid.
	if inv.Status != types.InvoiceStatusPaid {
		t.Fatalf("Status = %q, want paid once credit covers the balance", inv.Status)
	}
	if inv.AmountPaid != 2200 {
		t.Fatalf("AmountPaid = %d, want 2200", inv.AmountPaid)
	}

	remaining, err := f.credits.credits.ListAvailable(ctx, acc.ID, "USD")
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected exactly one remaining credit (the split remainder), got %d", len(remaining))
	}
	if remaining[0].Amount != 1300 {
		t.Fatalf("split remainder = %d, want 1300", remaining[0].Amount)
	}
	if remaining[0].Reason != types.CreditReasonSplit {
		t.Fatalf("remainder reason = %q, want %q", remaining[0].Reason, types.CreditReasonSplit)
	}
}

func TestInvoiceVoidRefundsPaidAmountAsCredit(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = f.accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = f.plans.Create(ctx, p)
	sub := &subscription.Subscription{
		ID: "sub-void", AccountID: acc.ID, PlanID: p.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
	}
	inv, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}
	if err := f.svc.MarkPaid(ctx, inv, 1000); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	voided, err := f.svc.Void(ctx, inv.ID)
	if err != nil {
		t.Fatalf("Void: %v", err)
	}
	if voided.Status != types.InvoiceStatusVoid {
		t.Fatalf("Status = %q, want void", voided.Status)
	}

	available, err := f.credits.credits.ListAvailable(ctx, acc.ID, "USD")
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(available) != 1 || available[0].Amount != 1000 {
		t.Fatalf("expected a 1000 refund-from-void credit, got %+v", available)
	}
}

func TestInvoiceVoidRejectedOncePaidInFull(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = f.accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 0) // zero amount -> auto-paid on assembly
	_ = f.plans.Create(ctx, p)
	sub := &subscription.Subscription{
		ID: "sub-zero", AccountID: acc.ID, PlanID: p.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
	}
	inv, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}
	if inv.Status != types.InvoiceStatusPaid {
		t.Fatalf("Status = %q, want paid", inv.Status)
	}
	if _, err := f.svc.Void(ctx, inv.ID); err == nil {
		t.Fatal("expected Void to reject a paid invoice")
	}
}

func TestInvoiceProrationOnMidCycleUpgrade(t *testing.T) {
	// spec.md §8 scenario B: a mid-period plan upgrade prorates the unused
	// remainder of the old plan as a credit against a charge for the new one.
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = f.accounts.Create(ctx, acc)

	periodStart := now
	periodEnd := now.AddDate(0, 0, 30)
	changeAt := now.AddDate(0, 0, 15)
	sub := &subscription.Subscription{
		ID: "sub-proration", AccountID: acc.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodEnd,
	}

	inv, err := f.svc.CreateProrationInvoice(ctx, sub, acc, 2000, 5000, changeAt)
	if err != nil {
		t.Fatalf("CreateProrationInvoice: %v", err)
	}
	if inv == nil {
		t.Fatal("expected a non-nil proration invoice")
	}
	if len(inv.LineItems) != 2 {
		t.Fatalf("expected 2 line items (credit + charge), got %d", len(inv.LineItems))
	}
	if inv.AmountDue <= 0 {
		t.Fatalf("AmountDue = %d, want a positive balance for an upgrade", inv.AmountDue)
	}
	if inv.Metadata["proration"] != "true" {
		t.Fatalf("Metadata[proration] = %q, want true", inv.Metadata["proration"])
	}
	wantDue := now.AddDate(0, 0, 7)
	if inv.DueDate.Sub(wantDue).Abs() > time.Minute {
		t.Fatalf("DueDate = %v, want ~%v (now + 7 days)", inv.DueDate, wantDue)
	}
}

func TestInvoiceCreateLateUsageInvoiceMarksSupplemental(t *testing.T) {
	// spec.md §4.7: a supplemental invoice for usage that arrives after its
	// period's invoice has closed is tagged metadata.supplemental=true.
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = f.accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 0)
	p.UsageType = types.UsageTypeGraduated
	p.Tiers = []plan.Tier{{UpTo: nil, UnitAmount: 10}}
	_ = f.plans.Create(ctx, p)

	periodStart := now.AddDate(0, 0, -30)
	periodEnd := now
	sub := &subscription.Subscription{
		ID: "sub-late", AccountID: acc.ID, PlanID: p.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodEnd,
		BaseModel: types.NewBaseModel(now, "test"),
	}

	records := []*usage.Record{
		{ID: "rec-1", SubscriptionID: sub.ID, Metric: "api_calls", Quantity: 50, Timestamp: periodStart.AddDate(0, 0, 5), ReceivedAt: now},
	}

	inv, err := f.svc.CreateLateUsageInvoice(ctx, sub, acc, records, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("CreateLateUsageInvoice: %v", err)
	}
	if inv == nil {
		t.Fatal("expected a non-nil late-usage invoice")
	}
	if inv.Metadata["supplemental"] != "true" {
		t.Fatalf("Metadata[supplemental] = %q, want true", inv.Metadata["supplemental"])
	}
}

func TestInvoiceMarkPaidEmitsOnlyOnceAtFullAmount(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = f.accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = f.plans.Create(ctx, p)
	sub := &subscription.Subscription{
		ID: "sub-partial", AccountID: acc.ID, PlanID: p.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
	}
	inv, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}

	if err := f.svc.MarkPaid(ctx, inv, 1000); err != nil {
		t.Fatalf("first MarkPaid: %v", err)
	}
	if inv.Status == types.InvoiceStatusPaid {
		t.Fatal("a partial payment must not mark the invoice paid")
	}
	if err := f.svc.MarkPaid(ctx, inv, 1200); err != nil {
		t.Fatalf("second MarkPaid: %v", err)
	}
	if inv.Status != types.InvoiceStatusPaid {
		t.Fatalf("Status = %q, want paid once amount_paid reaches amount_due", inv.Status)
	}
}

func TestInvoiceMarkOverdueOnlyFromOpen(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = f.accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = f.plans.Create(ctx, p)
	sub := &subscription.Subscription{
		ID: "sub-overdue", AccountID: acc.ID, PlanID: p.ID, Quantity: 1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 0, 30),
	}
	inv, err := f.svc.GenerateForPeriod(ctx, sub, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}

	if err := f.svc.MarkOverdue(ctx, inv); err != nil {
		t.Fatalf("MarkOverdue: %v", err)
	}
	if inv.Status != types.InvoiceStatusPastDue {
		t.Fatalf("Status = %q, want past_due", inv.Status)
	}

	// A second MarkOverdue on an already past_due invoice is a no-op.
	if err := f.svc.MarkOverdue(ctx, inv); err != nil {
		t.Fatalf("second MarkOverdue: %v", err)
	}
	if inv.Status != types.InvoiceStatusPastDue {
		t.Fatalf("Status = %q, want to remain past_due", inv.Status)
	}
}
