package service

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/credit"
	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// CreditService implements the Credit Manager (spec.md §4.5).
type CreditService struct {
	credits  credit.Repository
	invoices invoice.Repository
	webhooks *WebhookService
	logger   *logger.Logger
}

// NewCreditService wires the Credit Manager.
func NewCreditService(credits credit.Repository, invoices invoice.Repository, webhooks *WebhookService, log *logger.Logger) *CreditService {
	return &CreditService{credits: credits, invoices: invoices, webhooks: webhooks, logger: log}
}

// emit fans an event out through the outbox, tolerating a nil webhooks
// service (unit tests construct services without one).
func (s *CreditService) emit(ctx context.Context, now time.Time, eventType types.EventType, data any) {
	if s.webhooks == nil {
		return
	}
	if err := s.webhooks.Emit(ctx, now, eventType, data); err != nil {
		s.logger.Errorw("webhook emit failed", "error", err, "event_type", eventType)
	}
}

// Issue creates a new Credit (spec.md §4.5 create()).
func (s *CreditService) Issue(ctx context.Context, accountID string, amount int64, currency string, reason types.CreditReason, expiresAt *time.Time) (*credit.Credit, error) {
	now := time.Now().UTC()
	c := &credit.Credit{
		ID:        idgen.NewUUID(),
		AccountID: accountID,
		Amount:    amount,
		Currency:  currency,
		Reason:    reason,
		ExpiresAt: expiresAt,
		BaseModel: types.NewBaseModel(now, "system"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.credits.Create(ctx, c); err != nil {
		return nil, err
	}
	s.emit(ctx, now, types.EventCreditCreated, c)
	return c, nil
}

// ApplyAvailable applies as much of accountID's FIFO-ordered available
// credit as possible toward amountDue (spec.md §4.5: "applied in the order
// they were created (FIFO); a credit may be split across multiple
// invoices if it exceeds the invoice total"). It mutates the invoice's
// AmountDue/AmountPaid in place and returns the total applied.
//
// A credit that only partially covers amountDue is fully consumed; a
// credit that exceeds the remaining due is split: the consumed portion is
// marked applied to this invoice and the remainder re-issued as a new
// credit (reason=split_remainder) so FIFO order is preserved for future
// invoices.
func (s *CreditService) ApplyAvailable(ctx context.Context, inv *invoice.Invoice) (int64, error) {
	remaining := inv.AmountDue - inv.AmountPaid
	if remaining <= 0 {
		return 0, nil
	}

	available, err := s.credits.ListAvailable(ctx, inv.AccountID, inv.Currency)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var applied int64
	for _, c := range available {
		if remaining <= 0 {
			break
		}
		if !c.IsAvailable(now) {
			continue
		}

		if c.Amount <= remaining {
			c.AppliedToInvoiceID = &inv.ID
			c.AppliedAt = &now
			if err := s.credits.Update(ctx, c); err != nil {
				return applied, err
			}
			applied += c.Amount
			remaining -= c.Amount
			continue
		}

		// Split: consume `remaining` against this invoice, re-issue the rest.
		consumed := remaining
		leftover := c.Amount - consumed
		c.Amount = consumed
		c.AppliedToInvoiceID = &inv.ID
		c.AppliedAt = &now
		if err := s.credits.Update(ctx, c); err != nil {
			return applied, err
		}
		if _, err := s.Issue(ctx, inv.AccountID, leftover, inv.Currency, types.CreditReasonSplit, c.ExpiresAt); err != nil {
			return applied, err
		}
		applied += consumed
		remaining = 0
	}

	if applied > 0 {
		inv.AmountPaid += applied
		if err := s.invoices.Update(ctx, inv); err != nil {
			return applied, err
		}
		s.emit(ctx, now, types.EventCreditApplied, inv)
	}
	return applied, nil
}

// RefundFromVoid credits back any amount_paid on an invoice being voided
// (spec.md §4.3 void(): partial payments already collected are returned as
// a credit rather than a cash refund, since this engine has no refund
// interface to the gateway).
func (s *CreditService) RefundFromVoid(ctx context.Context, inv *invoice.Invoice) error {
	if inv.AmountPaid <= 0 {
		return nil
	}
	_, err := s.Issue(ctx, inv.AccountID, inv.AmountPaid, inv.Currency, types.CreditReasonRefundFromVoid, nil)
	return err
}

// Get fetches a single credit.
func (s *CreditService) Get(ctx context.Context, id string) (*credit.Credit, error) {
	return s.credits.Get(ctx, id)
}
