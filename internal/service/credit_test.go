package service

import (
	"context"
	"testing"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/testutil"
	"github.com/sugu-inc/modern-billing/internal/types"
)

func newCreditService(t *testing.T) (*CreditService, *testutil.InMemoryInvoiceStore) {
	t.Helper()
	invoices := testutil.NewInMemoryInvoiceStore()
	credits := testutil.NewInMemoryCreditStore()
	return NewCreditService(credits, invoices, nil, logger.NewNop()), invoices
}

func TestCreditIssueRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newCreditService(t)
	if _, err := svc.Issue(context.Background(), "acc-1", 0, "USD", types.CreditReasonManual, nil); err == nil {
		t.Fatal("expected a zero-amount credit to be rejected")
	}
}

func TestCreditApplyAvailableFullyConsumesSmallerCredit(t *testing.T) {
	svc, invoices := newCreditService(t)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "acc-1", 500, "USD", types.CreditReasonManual, nil); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2000, Status: types.InvoiceStatusOpen}
	if err := invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	applied, err := svc.ApplyAvailable(ctx, inv)
	if err != nil {
		t.Fatalf("ApplyAvailable: %v", err)
	}
	if applied != 500 {
		t.Fatalf("applied = %d, want 500", applied)
	}
	if inv.AmountPaid != 500 {
		t.Fatalf("AmountPaid = %d, want 500", inv.AmountPaid)
	}

	available, err := svc.credits.ListAvailable(ctx, "acc-1", "USD")
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("expected the 500 credit to be fully consumed, got %d remaining", len(available))
	}
}

func TestCreditApplyAvailableSplitsOversizedCredit(t *testing.T) {
	svc, invoices := newCreditService(t)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "acc-1", 3000, "USD", types.CreditReasonManual, nil); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 1200, Status: types.InvoiceStatusOpen}
	if err := invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	applied, err := svc.ApplyAvailable(ctx, inv)
	if err != nil {
		t.Fatalf("ApplyAvailable: %v", err)
	}
	if applied != 1200 {
		t.Fatalf("applied = %d, want 1200", applied)
	}

	available, err := svc.credits.ListAvailable(ctx, "acc-1", "USD")
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(available) != 1 || available[0].Amount != 1800 {
		t.Fatalf("expected an 1800 split remainder, got %+v", available)
	}
	if available[0].Reason != types.CreditReasonSplit {
		t.Fatalf("remainder reason = %q, want %q", available[0].Reason, types.CreditReasonSplit)
	}
}

func TestCreditApplyAvailableSkipsExpiredCredit(t *testing.T) {
	svc, invoices := newCreditService(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Hour)

	if _, err := svc.Issue(ctx, "acc-1", 1000, "USD", types.CreditReasonManual, &past); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 1000, Status: types.InvoiceStatusOpen}
	if err := invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	applied, err := svc.ApplyAvailable(ctx, inv)
	if err != nil {
		t.Fatalf("ApplyAvailable: %v", err)
	}
	if applied != 0 {
		t.Fatalf("applied = %d, want 0 (the only credit is expired)", applied)
	}
}

func TestCreditRefundFromVoidIssuesCreditForAmountPaid(t *testing.T) {
	svc, invoices := newCreditService(t)
	ctx := context.Background()

	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2000, AmountPaid: 800, Status: types.InvoiceStatusOpen}
	if err := invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	if err := svc.RefundFromVoid(ctx, inv); err != nil {
		t.Fatalf("RefundFromVoid: %v", err)
	}

	available, err := svc.credits.ListAvailable(ctx, "acc-1", "USD")
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(available) != 1 || available[0].Amount != 800 {
		t.Fatalf("expected an 800 refund-from-void credit, got %+v", available)
	}
	if available[0].Reason != types.CreditReasonRefundFromVoid {
		t.Fatalf("reason = %q, want %q", available[0].Reason, types.CreditReasonRefundFromVoid)
	}
}

func TestCreditRefundFromVoidNoopWhenNothingWasPaid(t *testing.T) {
	svc, invoices := newCreditService(t)
	ctx := context.Background()

	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2000, Status: types.InvoiceStatusOpen}
	if err := invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	if err := svc.RefundFromVoid(ctx, inv); err != nil {
		t.Fatalf("RefundFromVoid: %v", err)
	}

	available, err := svc.credits.ListAvailable(ctx, "acc-1", "USD")
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("expected no credit issued when amount_paid is zero, got %+v", available)
	}
}

