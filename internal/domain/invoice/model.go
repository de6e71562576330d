// Package invoice implements the Invoice Assembler's aggregate (spec.md
// §4.3): invoices, their frozen-on-close line items, and the numbering
// invariant.
package invoice

import (
	"time"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// Invoice is a billing statement for one account (and usually one
// subscription period).
type Invoice struct {
	ID             string
	AccountID      string
	SubscriptionID *string
	Number         string
	Status         types.InvoiceStatus
	AmountDue      int64
	AmountPaid     int64
	Tax            int64
	Currency       string
	DueDate        time.Time
	PaidAt         *time.Time
	VoidedAt       *time.Time
	LineItems      []LineItem
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	Metadata       map[string]string

	types.BaseModel
}

// LineItem is one entry of an invoice's ordered, tagged-variant line list
// (spec.md §9: "Polymorphic 'line item' is a tagged variant with a type
// discriminator").
type LineItem struct {
	Description string
	Amount      int64 // signed; negative = credit/proration
	Quantity    int64
	Type        types.LineItemType
}

func (l LineItem) Validate() error {
	switch l.Type {
	case types.LineItemTypeSubscription, types.LineItemTypeUsage, types.LineItemTypeProrationCredit,
		types.LineItemTypeProrationCharge, types.LineItemTypeLateUsage:
	default:
		return ierr.NewErrorf("invalid line item type %q", l.Type).Mark(ierr.ErrValidation)
	}
	if (l.Type == types.LineItemTypeProrationCredit) && l.Amount > 0 {
		return ierr.NewError("proration_credit line items must be non-positive").Mark(ierr.ErrValidation)
	}
	return nil
}

// Subtotal sums the line item amounts (spec.md §4.3 step (c)).
func (i *Invoice) Subtotal() int64 {
	var sum int64
	for _, li := range i.LineItems {
		sum += li.Amount
	}
	return sum
}

// IsFrozen reports whether line items may no longer be mutated (spec.md
// §3: "once paid or void the line items are frozen").
func (i *Invoice) IsFrozen() bool {
	return i.Status == types.InvoiceStatusPaid || i.Status == types.InvoiceStatusVoid
}

func (i *Invoice) Validate() error {
	if i.AccountID == "" {
		return ierr.NewError("invoice validation failed").WithHint("account_id is required").Mark(ierr.ErrValidation)
	}
	if _, ok := types.NormalizeCurrency(i.Currency); !ok {
		return ierr.NewErrorf("unsupported currency %q", i.Currency).Mark(ierr.ErrValidation)
	}
	if i.AmountDue < 0 || i.AmountPaid < 0 || i.Tax < 0 {
		return ierr.NewError("invoice validation failed").
			WithHint("amount_due, amount_paid, and tax must be non-negative").Mark(ierr.ErrValidation)
	}
	for _, li := range i.LineItems {
		if err := li.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CanVoid reports whether void() may act on this invoice from its current
// status (spec.md §4.3: "allowed only from {draft, open, past_due}").
func (i *Invoice) CanVoid() bool {
	switch i.Status {
	case types.InvoiceStatusDraft, types.InvoiceStatusOpen, types.InvoiceStatusPastDue:
		return true
	default:
		return false
	}
}
