package invoice

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/types"
)

// Repository persists Invoice aggregates (with embedded line items) and the
// monotonic invoice-number counter backing spec.md §5's fence 3.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// ExistsForPeriod checks spec.md §4.3 step (a): "assert no non-void
	// invoice already exists for this (subscription, period_start)".
	ExistsForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error)

	// NextInvoiceNumber serializes allocation of the INV-{N:06d} counter
	// (spec.md §5 fence 3; implemented via a Postgres advisory lock in the
	// ent adapter).
	NextInvoiceNumber(ctx context.Context) (int64, error)

	// DueForOverdueSweep returns open invoices whose due_date has passed,
	// for the Invoice Assembler's overdue-detection sweep (spec.md §4.3).
	DueForOverdueSweep(ctx context.Context, now time.Time, limit int) ([]*Invoice, error)

	// DueForDunning returns invoices with status in {open, past_due} and
	// due_date < now, for the Dunning Controller sweep (spec.md §4.6).
	DueForDunning(ctx context.Context, now time.Time, limit int) ([]*Invoice, error)

	// OpenOrPastDueCount reports whether the account has any remaining
	// overdue invoices, for the dunning reverse path (spec.md §4.6).
	OpenOrPastDueCount(ctx context.Context, accountID string) (int, error)

	// RecentlyClosed returns non-void invoices whose billing period ended
	// within [since, now], for the late-usage reconciliation sweep
	// (spec.md §4.9, §4.7's "usage arriving after its period's invoice has
	// already been issued"). Querying by period_end rather than re-running
	// DueForBillingCycle matters: once BillingCycle rolls a subscription's
	// period forward, its CurrentPeriodEnd no longer describes the period
	// that just closed, so the invoice itself is the only durable record
	// of which period to reconcile.
	RecentlyClosed(ctx context.Context, since, now time.Time, limit int) ([]*Invoice, error)
}
