package service

import (
	"context"
	"strconv"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/account"
	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/notification"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// DunningService implements the Dunning Controller (spec.md §4.6): an
// escalating notification ladder keyed off days_overdue, with an
// account-level gate that blocks further writes once the account reaches
// the terminal step.
type DunningService struct {
	invoices invoice.Repository
	accounts account.Repository
	notify   notification.Sink
	logger   *logger.Logger
}

// NewDunningService wires the Dunning Controller.
func NewDunningService(invoices invoice.Repository, accounts account.Repository, notify notification.Sink, log *logger.Logger) *DunningService {
	return &DunningService{invoices: invoices, accounts: accounts, notify: notify, logger: log}
}

// Sweep runs the dunning ladder over every overdue invoice, driven by the
// dunning_sweep scheduler (spec.md §4.9, every 24h). For each invoice it
// escalates the account's notification/block state according to
// days_overdue = now - due_date:
//
//	3-6 days   -> reminder
//	7-13 days  -> warning, account status -> warning
//	>=14 days  -> blocked, account status -> blocked
//
// It then calls MaybeReverse for each account it escalated; every such
// account still holds the invoice just escalated, so this call never
// reverses one. The reverse path (spec.md §4.6) runs from
// PaymentService.markSucceeded.
func (s *DunningService) Sweep(ctx context.Context, now time.Time, limit int) error {
	due, err := s.invoices.DueForDunning(ctx, now, limit)
	if err != nil {
		return err
	}

	touchedAccounts := make(map[string]bool)
	for _, inv := range due {
		if err := s.escalate(ctx, inv, now); err != nil {
			s.logger.Errorw("dunning escalation failed", "error", err, "invoice_id", inv.ID)
			continue
		}
		touchedAccounts[inv.AccountID] = true
	}

	// Accounts that still have an overdue invoice by definition fail
	// OpenOrPastDueCount == 0 below, so this pass can never itself flip one
	// back to active — the reverse path's only real trigger is
	// PaymentService.markSucceeded calling MaybeReverse once an invoice
	// that made an account overdue gets paid off and drops out of this
	// sweep entirely. An account whose last overdue invoice is voided or
	// credited is not in touchedAccounts either, so this loop does not
	// reverse it.
	for accountID := range touchedAccounts {
		if err := s.MaybeReverse(ctx, accountID); err != nil {
			s.logger.Errorw("dunning reverse-path check failed", "error", err, "account_id", accountID)
		}
	}
	return nil
}

func daysOverdue(inv *invoice.Invoice, now time.Time) int {
	d := now.Sub(inv.DueDate).Hours() / 24
	if d < 0 {
		return 0
	}
	return int(d)
}

// escalate applies the single ladder step for one invoice's current
// days_overdue and notifies the account.
func (s *DunningService) escalate(ctx context.Context, inv *invoice.Invoice, now time.Time) error {
	days := daysOverdue(inv, now)

	var kind notification.Kind
	var targetStatus types.AccountStatus
	switch {
	case days >= 14:
		kind = notification.KindServiceBlocked
		targetStatus = types.AccountStatusBlocked
	case days >= 7:
		kind = notification.KindWarning
		targetStatus = types.AccountStatusWarning
	case days >= 3:
		kind = notification.KindReminder
	default:
		return nil
	}

	if targetStatus != "" {
		acc, err := s.accounts.Get(ctx, inv.AccountID)
		if err != nil {
			return err
		}
		if acc.AccountStatus != targetStatus && acc.AccountStatus != types.AccountStatusBlocked {
			if err := s.accounts.UpdateStatus(ctx, inv.AccountID, targetStatus); err != nil {
				return err
			}
		}
	}

	acc, err := s.accounts.Get(ctx, inv.AccountID)
	if err != nil {
		return err
	}
	if s.notify != nil {
		_ = s.notify.Send(ctx, notification.Notification{
			AccountID: inv.AccountID,
			ToAddress: acc.Email,
			Kind:      kind,
			Subject:   notification.DunningSubject(kind, inv.Number),
			Body:      dunningBody(kind, inv, days),
		})
	}
	return nil
}

func dunningBody(kind notification.Kind, inv *invoice.Invoice, days int) string {
	d := strconv.Itoa(days)
	switch kind {
	case notification.KindServiceBlocked:
		return "Invoice " + inv.Number + " has been overdue for " + d + " days; service access has been suspended."
	case notification.KindWarning:
		return "Invoice " + inv.Number + " is " + d + " days overdue. Please pay to avoid service suspension."
	default:
		return "This is a reminder that invoice " + inv.Number + " is now " + d + " days overdue."
	}
}

// MaybeReverse moves an account out of warning/blocked once it has no
// remaining open-or-past_due invoices (spec.md §4.6 reverse path: "when a
// payment succeeds and the account has no remaining invoices with status
// ∈ {open, past_due}, transition the account back to active"). Called both
// from Sweep and, more importantly, from PaymentService.markSucceeded the
// moment the paid-off invoice leaves the overdue set.
func (s *DunningService) MaybeReverse(ctx context.Context, accountID string) error {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if acc.AccountStatus == types.AccountStatusActive {
		return nil
	}

	count, err := s.invoices.OpenOrPastDueCount(ctx, accountID)
	if err != nil {
		return err
	}
	if count == 0 {
		return s.accounts.UpdateStatus(ctx, accountID, types.AccountStatusActive)
	}
	return nil
}
