package service

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/account"
	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/domain/payment"
	"github.com/sugu-inc/modern-billing/internal/domain/paymentmethod"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/notification"
	"github.com/sugu-inc/modern-billing/internal/paymentgateway"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// PaymentService implements the Payment Orchestrator (spec.md §4.4).
type PaymentService struct {
	payments   payment.Repository
	invoices   invoice.Repository
	methods    paymentmethod.Repository
	accounts   account.Repository
	gateways   *paymentgateway.Registry
	subs       *SubscriptionService
	invoiceSvc *InvoiceService
	dunning    *DunningService
	notify     notification.Sink
	webhooks   *WebhookService
	logger     *logger.Logger
}

// NewPaymentService wires the Payment Orchestrator.
func NewPaymentService(
	payments payment.Repository,
	invoices invoice.Repository,
	methods paymentmethod.Repository,
	accounts account.Repository,
	gateways *paymentgateway.Registry,
	subs *SubscriptionService,
	invoiceSvc *InvoiceService,
	dunning *DunningService,
	notify notification.Sink,
	webhooks *WebhookService,
	log *logger.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments, invoices: invoices, methods: methods, accounts: accounts, gateways: gateways,
		subs: subs, invoiceSvc: invoiceSvc, dunning: dunning, notify: notify, webhooks: webhooks, logger: log,
	}
}

// emit fans an event out through the outbox, tolerating a nil webhooks
// service (unit tests construct services without one).
func (s *PaymentService) emit(ctx context.Context, now time.Time, eventType types.EventType, data any) {
	if s.webhooks == nil {
		return
	}
	if err := s.webhooks.Emit(ctx, now, eventType, data); err != nil {
		s.logger.Errorw("webhook emit failed", "error", err, "event_type", eventType)
	}
}

// Attempt implements spec.md §4.4's first-attempt path: if idempotencyKey
// was supplied by the caller and already names a Payment, that row is
// returned unchanged (step 1 — "no new side effect"); otherwise a
// server-generated key of the form payment_{invoice_id}_{uuid} is minted
// (spec.md §6), the payment method is resolved, and the gateway is charged.
func (s *PaymentService) Attempt(ctx context.Context, inv *invoice.Invoice, idempotencyKey string) (*payment.Payment, error) {
	if idempotencyKey != "" {
		existing, err := s.payments.GetByIdempotencyKey(ctx, idempotencyKey)
		if err == nil && existing != nil {
			return existing, nil
		} else if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
	} else {
		idempotencyKey = idgen.ServerIdempotencyKey(inv.ID)
	}

	pm, err := s.methods.GetDefault(ctx, inv.AccountID)
	if err != nil {
		return nil, err
	}

	amount := inv.AmountDue - inv.AmountPaid
	if amount <= 0 {
		return nil, ierr.NewError("invoice has no outstanding balance to charge").Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	p := &payment.Payment{
		ID:              idgen.NewUUID(),
		InvoiceID:       inv.ID,
		Amount:          amount,
		Currency:        inv.Currency,
		Status:          types.PaymentStatusPending,
		PaymentMethodID: &pm.ID,
		IdempotencyKey:  idempotencyKey,
		FirstAttemptAt:  now,
		BaseModel:       types.NewBaseModel(now, "system"),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// The unique constraint on idempotency_key is the concurrency fence
	// (spec.md §5 fence 1): a racing insert of the same key loses here and
	// the caller gets the winner's row back instead of an error.
	if err := s.payments.Create(ctx, p); err != nil {
		if ierr.IsAlreadyExists(err) {
			if existing, getErr := s.payments.GetByIdempotencyKey(ctx, idempotencyKey); getErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	return s.charge(ctx, p, inv, pm)
}

// Retry re-attempts a failed payment using its ORIGINAL idempotency key
// (spec.md §5 fence 1: "retries of the same logical payment reuse the same
// idempotency_key"), driven by the payment_retry scheduler (§4.9).
func (s *PaymentService) Retry(ctx context.Context, p *payment.Payment) error {
	if p.RetryCount >= payment.MaxRetries {
		return nil
	}
	inv, err := s.invoices.Get(ctx, p.InvoiceID)
	if err != nil {
		return err
	}
	pm, err := s.methods.GetDefault(ctx, inv.AccountID)
	if err != nil {
		return err
	}
	_, err = s.charge(ctx, p, inv, pm)
	return err
}

// charge is the shared gateway-call-and-apply-outcome path for both the
// first attempt and every subsequent retry.
func (s *PaymentService) charge(ctx context.Context, p *payment.Payment, inv *invoice.Invoice, pm *paymentmethod.PaymentMethod) (*payment.Payment, error) {
	gwCtx, cancel := context.WithTimeout(ctx, paymentgateway.Timeout)
	defer cancel()

	result, err := s.gateways.Default().Attempt(gwCtx, p.Amount, p.Currency, pm.GatewayToken, p.IdempotencyKey)
	if err != nil {
		return p, err
	}

	switch result.Status {
	case types.GatewayResultSucceeded:
		return p, s.markSucceeded(ctx, p, inv, result.TxnID)
	case types.GatewayResultPending:
		p.Status = types.PaymentStatusPending
		p.GatewayTxnID = result.TxnID
		p.UpdatedAt = time.Now().UTC()
		return p, s.payments.Update(ctx, p)
	default:
		return p, s.markFailed(ctx, p, inv, result.Reason)
	}
}

// markSucceeded implements spec.md §4.4 step 5's success path: mark the
// payment succeeded, credit the invoice, and — if this was the invoice's
// first successful payment after a past_due subscription — move the
// subscription back to active. It also runs the Dunning Controller's
// reverse path (spec.md §4.6: "if account was blocked/warning and no other
// overdue invoices, unblock"), since this is the only place a paid-off
// invoice's account stops being overdue in real time — the dunning sweep
// itself only ever sees accounts that are *still* overdue.
func (s *PaymentService) markSucceeded(ctx context.Context, p *payment.Payment, inv *invoice.Invoice, txnID string) error {
	now := time.Now().UTC()
	p.Status = types.PaymentStatusSucceeded
	p.GatewayTxnID = txnID
	p.UpdatedAt = now
	if err := s.payments.Update(ctx, p); err != nil {
		return err
	}

	s.emit(ctx, now, types.EventPaymentSucceeded, p)

	if err := s.invoiceSvc.MarkPaid(ctx, inv, p.Amount); err != nil {
		return err
	}

	if inv.SubscriptionID != nil && s.subs != nil {
		if err := s.subs.MarkActiveFromPastDue(ctx, *inv.SubscriptionID); err != nil {
			return err
		}
	}

	if s.dunning != nil {
		if err := s.dunning.MaybeReverse(ctx, inv.AccountID); err != nil {
			s.logger.Errorw("dunning reverse-path check failed", "error", err, "account_id", inv.AccountID)
		}
	}
	return nil
}

// markFailed implements spec.md §4.4 step 5's failure path: record the
// failure, compute the next retry date from the fixed schedule, and on the
// invoice's very first failure transition its subscription to past_due.
// Once retries are exhausted the payment freezes terminal and the invoice
// itself is marked past_due.
func (s *PaymentService) markFailed(ctx context.Context, p *payment.Payment, inv *invoice.Invoice, reason string) error {
	now := time.Now().UTC()
	firstFailure := p.RetryCount == 0

	p.Status = types.PaymentStatusFailed
	p.FailureMessage = reason

	// NextRetryDate must be computed against the retry_count this failure
	// is the n-th occurrence OF (0 on the first failure), not the
	// post-increment count — otherwise the ladder shifts one slot late and
	// the first retry lands on day 5 instead of day 3 (spec.md §4.4 /
	// scenario F).
	if next, ok := p.NextRetryDate(); ok {
		p.NextRetryAt = &next
	} else {
		p.NextRetryAt = nil
	}
	p.RetryCount++
	p.UpdatedAt = now

	if err := s.payments.Update(ctx, p); err != nil {
		return err
	}
	s.emit(ctx, now, types.EventPaymentFailed, p)

	if firstFailure && inv.SubscriptionID != nil && s.subs != nil {
		if err := s.subs.MarkPastDue(ctx, *inv.SubscriptionID); err != nil {
			return err
		}
	}

	if p.IsTerminal() {
		if err := s.invoiceSvc.MarkOverdue(ctx, inv); err != nil {
			return err
		}
	}

	if s.notify != nil && s.accounts != nil {
		if acc, err := s.accounts.Get(ctx, inv.AccountID); err == nil {
			_ = s.notify.Send(ctx, notification.Notification{
				AccountID: inv.AccountID,
				ToAddress: acc.Email,
				Kind:      notification.KindPaymentFailed,
				Subject:   notification.DunningSubject(notification.KindPaymentFailed, inv.Number),
				Body:      "A payment attempt on invoice " + inv.Number + " failed: " + reason,
			})
		}
	}
	return nil
}

// HandleGatewaySucceeded is the idempotent callback entry point spec.md
// §4.4/§6 requires for the gateway's asynchronous payment_intent.succeeded
// webhook: it must be safe under duplicate delivery, so a payment already
// resolved out of pending is a no-op rather than double-crediting the
// invoice.
func (s *PaymentService) HandleGatewaySucceeded(ctx context.Context, gatewayTxnID string, p *payment.Payment) error {
	if p.Status != types.PaymentStatusPending {
		return nil
	}
	inv, err := s.invoices.Get(ctx, p.InvoiceID)
	if err != nil {
		return err
	}
	return s.markSucceeded(ctx, p, inv, gatewayTxnID)
}

// HandleGatewayFailed is the matching idempotent callback for
// payment_intent.failed: a payment not still pending has already been
// resolved by a synchronous charge response or a prior callback delivery.
func (s *PaymentService) HandleGatewayFailed(ctx context.Context, reason string, p *payment.Payment) error {
	if p.Status != types.PaymentStatusPending {
		return nil
	}
	inv, err := s.invoices.Get(ctx, p.InvoiceID)
	if err != nil {
		return err
	}
	return s.markFailed(ctx, p, inv, reason)
}

// Get fetches a single payment.
func (s *PaymentService) Get(ctx context.Context, id string) (*payment.Payment, error) {
	return s.payments.Get(ctx, id)
}
