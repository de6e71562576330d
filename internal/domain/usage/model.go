// Package usage implements the Usage Recorder aggregate (spec.md §4.7):
// idempotent metered-event ingest and period aggregation.
package usage

import (
	"time"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
)

// Record is one metered usage event attributed to a subscription.
type Record struct {
	ID             string
	SubscriptionID string
	Metric         string
	Quantity       int64
	Timestamp      time.Time // event time; attributes the event to a billing period
	IdempotencyKey string
	ReceivedAt     time.Time // ingest time; used to detect late usage
}

func (r *Record) Validate() error {
	if r.SubscriptionID == "" || r.Metric == "" {
		return ierr.NewError("usage record validation failed").
			WithHint("subscription_id and metric are required").Mark(ierr.ErrValidation)
	}
	if r.Quantity <= 0 {
		return ierr.NewError("usage record validation failed").
			WithHint("quantity must be positive").Mark(ierr.ErrValidation)
	}
	if r.IdempotencyKey == "" {
		return ierr.NewError("usage record validation failed").
			WithHint("idempotency_key is required").Mark(ierr.ErrValidation)
	}
	return nil
}

// IsLate reports whether this record arrived after its attributed period
// had already closed (spec.md §4.7 late-usage reconciliation).
func (r *Record) IsLate(periodEnd time.Time) bool {
	return r.ReceivedAt.After(periodEnd)
}
