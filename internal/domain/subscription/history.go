package subscription

import (
	"time"

	"github.com/sugu-inc/modern-billing/internal/types"
)

// History is one append-only row recording a subscription state or
// plan/quantity change (spec.md §3: "SubscriptionHistory").
type History struct {
	ID             string
	SubscriptionID string
	EventType      types.HistoryEventType
	OldValue       string
	NewValue       string
	Reason         string
	At             time.Time
}
