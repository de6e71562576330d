// Package webhook implements the Event Outbox (spec.md §4.8): events
// written transactionally with their causing state change, endpoint
// matching at write time, and retry/backoff delivery bookkeeping.
//
// spec.md §9 flags the source's in-process endpoint registry as broken
// under multiple API servers and redesigns it as a store-backed
// WebhookEndpoint entity; that entity lives in endpoint.go.
package webhook

import (
	"encoding/json"
	"time"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// Backoff is the retry delay ladder in minutes, indexed by
// min(retry_count-1, len-1) (spec.md §4.8).
var Backoff = []time.Duration{
	3 * time.Minute, 6 * time.Minute, 12 * time.Minute, 24 * time.Minute, 48 * time.Minute,
}

// MaxRetries is the terminal retry cap (spec.md §4.8: "if retry_count >= 5,
// status=failed").
const MaxRetries = 5

// Event is one outbox row: a domain event destined for exactly one
// endpoint.
type Event struct {
	ID          string
	EventType   types.EventType
	Payload     json.RawMessage
	EndpointURL string
	EndpointID  string
	Status      types.WebhookEventStatus
	RetryCount  int
	NextRetryAt *time.Time
	LastError   string
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

func (e *Event) Validate() error {
	if e.EndpointURL == "" {
		return ierr.NewError("webhook event validation failed").
			WithHint("endpoint_url is required").Mark(ierr.ErrValidation)
	}
	return nil
}

// NextBackoff returns the delay to apply after this event's RetryCount-th
// failure.
func NextBackoff(retryCount int) time.Duration {
	idx := retryCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(Backoff) {
		idx = len(Backoff) - 1
	}
	return Backoff[idx]
}

// IsReadyForDelivery mirrors the dispatcher loop's selection predicate:
// retry_count=0 OR next_retry_at <= now (spec.md §4.8).
func (e *Event) IsReadyForDelivery(now time.Time) bool {
	if e.Status != types.WebhookEventStatusPending {
		return false
	}
	if e.RetryCount == 0 {
		return true
	}
	return e.NextRetryAt != nil && !e.NextRetryAt.After(now)
}
