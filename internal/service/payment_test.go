package service

import (
	"context"
	"testing"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/domain/paymentmethod"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/notification"
	"github.com/sugu-inc/modern-billing/internal/paymentgateway"
	"github.com/sugu-inc/modern-billing/internal/testutil"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type paymentFixture struct {
	svc      *PaymentService
	payments *testutil.InMemoryPaymentStore
	invoices *testutil.InMemoryInvoiceStore
	methods  *testutil.InMemoryPaymentMethodStore
	gateway  *paymentgateway.Sandbox
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	log := logger.NewNop()
	payments := testutil.NewInMemoryPaymentStore()
	invoices := testutil.NewInMemoryInvoiceStore()
	methods := testutil.NewInMemoryPaymentMethodStore()
	accounts := testutil.NewInMemoryAccountStore()
	sandbox := paymentgateway.NewSandbox()
	registry, err := paymentgateway.NewRegistry("sandbox", sandbox)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	svc := NewPaymentService(payments, invoices, methods, accounts, registry, nil, NewInvoiceService(invoices, nil, nil, accounts, nil, nil, nil, nil, nil, log), nil, notification.NopSink{}, nil, log)
	return &paymentFixture{svc: svc, payments: payments, invoices: invoices, methods: methods, gateway: sandbox}
}

func seedDefaultPaymentMethod(t *testing.T, methods *testutil.InMemoryPaymentMethodStore, accountID, token string) *paymentmethod.PaymentMethod {
	t.Helper()
	pm := &paymentmethod.PaymentMethod{
		ID: idgen.NewUUID(), AccountID: accountID, GatewayToken: token, IsDefault: true,
		BaseModel: types.NewBaseModel(time.Now().UTC(), "test"),
	}
	if err := methods.Create(context.Background(), pm); err != nil {
		t.Fatalf("seed payment method: %v", err)
	}
	return pm
}

func TestPaymentAttemptSucceedsAndMarksInvoicePaid(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	seedDefaultPaymentMethod(t, f.methods, "acc-1", "tok_ok")
	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2200, Status: types.InvoiceStatusOpen}
	if err := f.invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	p, err := f.svc.Attempt(ctx, inv, "")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if p.Status != types.PaymentStatusSucceeded {
		t.Fatalf("Status = %q, want succeeded", p.Status)
	}
	if inv.Status != types.InvoiceStatusPaid {
		t.Fatalf("invoice Status = %q, want paid", inv.Status)
	}
}

func TestPaymentAttemptIdempotencyKeyReplayReturnsSameRow(t *testing.T) {
	// testable property: two Attempt calls sharing an idempotency key
	// produce exactly one Payment row and one gateway charge.
	f := newPaymentFixture(t)
	ctx := context.Background()

	seedDefaultPaymentMethod(t, f.methods, "acc-1", "tok_ok")
	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2200, Status: types.InvoiceStatusOpen}
	if err := f.invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	key := "payment_inv-1_fixed"
	first, err := f.svc.Attempt(ctx, inv, key)
	if err != nil {
		t.Fatalf("first Attempt: %v", err)
	}
	second, err := f.svc.Attempt(ctx, inv, key)
	if err != nil {
		t.Fatalf("second Attempt: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected a replayed idempotency key to return the same payment row, got %s and %s", first.ID, second.ID)
	}
}

func TestPaymentAttemptRejectsInvoiceWithNoOutstandingBalance(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	seedDefaultPaymentMethod(t, f.methods, "acc-1", "tok_ok")
	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2200, AmountPaid: 2200, Status: types.InvoiceStatusPaid}
	if err := f.invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	if _, err := f.svc.Attempt(ctx, inv, ""); err == nil {
		t.Fatal("expected Attempt to reject an invoice with no outstanding balance")
	}
}

func TestPaymentAttemptFailureSchedulesRetry(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	f.gateway.AlwaysDecline("tok_bad", "insufficient_funds")
	seedDefaultPaymentMethod(t, f.methods, "acc-1", "tok_bad")
	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2200, Status: types.InvoiceStatusOpen}
	if err := f.invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	p, err := f.svc.Attempt(ctx, inv, "")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if p.Status != types.PaymentStatusFailed {
		t.Fatalf("Status = %q, want failed", p.Status)
	}
	if p.RetryCount != 1 {
		t.Fatalf("RetryCount = %d, want 1", p.RetryCount)
	}
	if p.NextRetryAt == nil {
		t.Fatal("expected next_retry_at to be scheduled after the first failure")
	}
	wantNext := p.FirstAttemptAt.AddDate(0, 0, 3)
	if !p.NextRetryAt.Equal(wantNext) {
		t.Fatalf("NextRetryAt = %v, want %v (day 3 of the retry schedule)", p.NextRetryAt, wantNext)
	}
}

func TestPaymentRetryExhaustionFreezesPaymentAndMarksInvoiceOverdue(t *testing.T) {
	// spec.md §8 scenario F: after the fourth failure a payment is terminal.
	f := newPaymentFixture(t)
	ctx := context.Background()

	f.gateway.AlwaysDecline("tok_bad", "insufficient_funds")
	seedDefaultPaymentMethod(t, f.methods, "acc-1", "tok_bad")
	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2200, Status: types.InvoiceStatusOpen}
	if err := f.invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	p, err := f.svc.Attempt(ctx, inv, "")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := f.svc.Retry(ctx, p); err != nil {
			t.Fatalf("Retry #%d: %v", i+1, err)
		}
	}
	if !p.IsTerminal() {
		t.Fatalf("expected the payment to be terminal after 4 failures, retry_count=%d", p.RetryCount)
	}
	if inv.Status != types.InvoiceStatusPastDue {
		t.Fatalf("invoice Status = %q, want past_due once its payment is terminal", inv.Status)
	}

	// A fifth retry is a no-op: MaxRetries already reached.
	if err := f.svc.Retry(ctx, p); err != nil {
		t.Fatalf("Retry past MaxRetries: %v", err)
	}
	if p.RetryCount != 4 {
		t.Fatalf("RetryCount = %d, want to stay at 4", p.RetryCount)
	}
}

func TestPaymentHandleGatewaySucceededIsNoopWhenAlreadyResolved(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	seedDefaultPaymentMethod(t, f.methods, "acc-1", "tok_ok")
	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2200, Status: types.InvoiceStatusOpen}
	if err := f.invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	p, err := f.svc.Attempt(ctx, inv, "")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if p.Status != types.PaymentStatusSucceeded {
		t.Fatalf("precondition: Status = %q, want succeeded", p.Status)
	}
	paidBefore := inv.AmountPaid

	// A duplicate async callback after the payment already resolved must not
	// double-credit the invoice.
	if err := f.svc.HandleGatewaySucceeded(ctx, "sandbox_pi_dup", p); err != nil {
		t.Fatalf("HandleGatewaySucceeded: %v", err)
	}
	if inv.AmountPaid != paidBefore {
		t.Fatalf("AmountPaid = %d, want to remain %d (duplicate callback must be a no-op)", inv.AmountPaid, paidBefore)
	}
}

func TestPaymentHandleGatewayPendingResolvesOnCallback(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	f.gateway.AlwaysPending("tok_async")
	seedDefaultPaymentMethod(t, f.methods, "acc-1", "tok_async")
	inv := &invoice.Invoice{ID: "inv-1", AccountID: "acc-1", Currency: "USD", AmountDue: 2200, Status: types.InvoiceStatusOpen}
	if err := f.invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	p, err := f.svc.Attempt(ctx, inv, "")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if p.Status != types.PaymentStatusPending {
		t.Fatalf("Status = %q, want pending", p.Status)
	}

	if err := f.svc.HandleGatewaySucceeded(ctx, "async_txn_1", p); err != nil {
		t.Fatalf("HandleGatewaySucceeded: %v", err)
	}
	if p.Status != types.PaymentStatusSucceeded {
		t.Fatalf("Status = %q, want succeeded after the async callback resolves it", p.Status)
	}
	if inv.Status != types.InvoiceStatusPaid {
		t.Fatalf("invoice Status = %q, want paid", inv.Status)
	}
}

func TestPaymentSuccessReversesAccountOutOfDunning(t *testing.T) {
	// spec.md §4.4 success path / §4.6 reverse path: paying off an
	// account's last overdue invoice unblocks it immediately, driven off
	// PaymentService's own success handling rather than waiting for the
	// next dunning sweep.
	log := logger.NewNop()
	payments := testutil.NewInMemoryPaymentStore()
	invoices := testutil.NewInMemoryInvoiceStore()
	methods := testutil.NewInMemoryPaymentMethodStore()
	accounts := testutil.NewInMemoryAccountStore()
	sandbox := paymentgateway.NewSandbox()
	registry, err := paymentgateway.NewRegistry("sandbox", sandbox)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	dunning := NewDunningService(invoices, accounts, notification.NopSink{}, log)
	invoiceSvc := NewInvoiceService(invoices, nil, nil, accounts, nil, nil, nil, nil, nil, log)
	svc := NewPaymentService(payments, invoices, methods, accounts, registry, nil, invoiceSvc, dunning, notification.NopSink{}, nil, log)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	acc.AccountStatus = types.AccountStatusBlocked
	if err := accounts.Create(ctx, acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	seedDefaultPaymentMethod(t, methods, acc.ID, "tok_ok")
	inv := &invoice.Invoice{ID: "inv-1", AccountID: acc.ID, Currency: "USD", AmountDue: 2200, Status: types.InvoiceStatusPastDue, DueDate: now.AddDate(0, 0, -20)}
	if err := invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	if _, err := svc.Attempt(ctx, inv, ""); err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if inv.Status != types.InvoiceStatusPaid {
		t.Fatalf("invoice Status = %q, want paid", inv.Status)
	}

	updated, err := accounts.Get(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if updated.AccountStatus != types.AccountStatusActive {
		t.Fatalf("AccountStatus = %q, want active once the blocking invoice is paid off", updated.AccountStatus)
	}
}
