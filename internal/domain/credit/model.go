// Package credit implements the Credit Manager aggregate (spec.md §4.5):
// FIFO application to invoices, splitting, and expiry.
package credit

import (
	"time"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// Credit is an amount owed back to an account, applied FIFO to open
// invoices.
type Credit struct {
	ID                 string
	AccountID          string
	Amount             int64
	Currency           string
	Reason             types.CreditReason
	ExpiresAt          *time.Time
	AppliedToInvoiceID *string
	AppliedAt          *time.Time

	types.BaseModel
}

func (c *Credit) Validate() error {
	if c.AccountID == "" {
		return ierr.NewError("credit validation failed").WithHint("account_id is required").Mark(ierr.ErrValidation)
	}
	if c.Amount <= 0 {
		return ierr.NewError("credit validation failed").WithHint("amount must be positive").Mark(ierr.ErrValidation)
	}
	if _, ok := types.NormalizeCurrency(c.Currency); !ok {
		return ierr.NewErrorf("unsupported currency %q", c.Currency).Mark(ierr.ErrValidation)
	}
	return nil
}

// IsAvailable reports whether this credit can still be applied: unapplied
// and not expired (spec.md §4.5: "Expired credits... are skipped by
// selection but retained for audit").
func (c *Credit) IsAvailable(now time.Time) bool {
	if c.AppliedToInvoiceID != nil {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}
	return true
}
