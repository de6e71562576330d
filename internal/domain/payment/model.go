// Package payment implements the Payment Orchestrator's aggregate (spec.md
// §4.4): idempotent attempts, a fixed retry schedule, and gateway callbacks.
package payment

import (
	"time"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// RetrySchedule is the fixed retry ladder in days after the first attempt
// (spec.md §4.4: "failures are retried at days {3, 5, 7, 10}").
var RetrySchedule = []int{3, 5, 7, 10}

// MaxRetries is the number of retries before a payment is frozen terminal
// (spec.md §4.4: "After the fourth failure, the payment is frozen").
const MaxRetries = 4

// Payment is one attempt (and its retries) to charge an invoice.
type Payment struct {
	ID              string
	InvoiceID       string
	Amount          int64
	Currency        string
	Status          types.PaymentStatus
	GatewayTxnID    string
	PaymentMethodID *string
	FailureMessage  string
	IdempotencyKey  string
	RetryCount      int
	NextRetryAt     *time.Time
	FirstAttemptAt  time.Time

	types.BaseModel
}

func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return ierr.NewError("payment validation failed").WithHint("invoice_id is required").Mark(ierr.ErrValidation)
	}
	if p.IdempotencyKey == "" {
		return ierr.NewError("payment validation failed").WithHint("idempotency_key is required").Mark(ierr.ErrValidation)
	}
	if p.Amount <= 0 {
		return ierr.NewError("payment validation failed").WithHint("amount must be positive").Mark(ierr.ErrValidation)
	}
	if p.RetryCount < 0 {
		return ierr.NewError("payment validation failed").WithHint("retry_count must be non-negative").Mark(ierr.ErrValidation)
	}
	return nil
}

// NextRetryDate computes next_retry_at from FirstAttemptAt using the fixed
// retry schedule, for retry_count in [0, len(RetrySchedule)).
func (p *Payment) NextRetryDate() (time.Time, bool) {
	if p.RetryCount < 0 || p.RetryCount >= len(RetrySchedule) {
		return time.Time{}, false
	}
	days := RetrySchedule[p.RetryCount]
	return p.FirstAttemptAt.AddDate(0, 0, days), true
}

// IsTerminal reports whether this payment has exhausted its retries and is
// frozen (spec.md §4.4).
func (p *Payment) IsTerminal() bool {
	return p.Status == types.PaymentStatusFailed && p.RetryCount >= MaxRetries
}
