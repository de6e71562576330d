// Package subscription implements the subscription lifecycle state machine
// (spec.md §4.1): trialing → active → {past_due, paused, cancelled}.
package subscription

import (
	"time"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// Subscription is the root of a customer's recurring billing relationship
// with one plan.
type Subscription struct {
	ID                 string
	AccountID          string
	PlanID             string
	Status             types.SubscriptionStatus
	Quantity           int64
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	CancelledAt        *time.Time
	TrialEnd           *time.Time
	PauseResumesAt     *time.Time
	PausedAt           *time.Time
	PendingPlanID      *string

	types.BaseModel
}

func (s *Subscription) Validate() error {
	if s.AccountID == "" || s.PlanID == "" {
		return ierr.NewError("subscription validation failed").
			WithHint("account_id and plan_id are required").Mark(ierr.ErrValidation)
	}
	if s.Quantity < 1 {
		return ierr.NewError("subscription validation failed").
			WithHint("quantity must be >= 1").Mark(ierr.ErrValidation)
	}
	if err := s.Status.Validate(); err != nil {
		return err
	}
	if !s.CurrentPeriodEnd.After(s.CurrentPeriodStart) {
		return ierr.NewError("subscription validation failed").
			WithHint("current_period_end must be after current_period_start").Mark(ierr.ErrValidation)
	}
	if s.Status == types.SubscriptionStatusTrialing && (s.TrialEnd == nil) {
		return ierr.NewError("subscription validation failed").
			WithHint("status=trialing requires trial_end").Mark(ierr.ErrValidation)
	}
	return nil
}

// transitions is the state machine table from spec.md §4.1. The zero value
// "" represents a not-yet-created subscription.
var transitions = map[types.SubscriptionStatus]map[types.SubscriptionStatus]bool{
	"": {
		types.SubscriptionStatusTrialing: true,
		types.SubscriptionStatusActive:   true,
	},
	types.SubscriptionStatusTrialing: {
		types.SubscriptionStatusActive:    true,
		types.SubscriptionStatusPaused:    true,
		types.SubscriptionStatusCancelled: true,
	},
	types.SubscriptionStatusActive: {
		types.SubscriptionStatusPastDue:   true,
		types.SubscriptionStatusPaused:    true,
		types.SubscriptionStatusCancelled: true,
	},
	types.SubscriptionStatusPastDue: {
		types.SubscriptionStatusActive:    true,
		types.SubscriptionStatusPaused:    true,
		types.SubscriptionStatusCancelled: true,
	},
	types.SubscriptionStatusPaused: {
		types.SubscriptionStatusActive:    true,
		types.SubscriptionStatusCancelled: true,
	},
	types.SubscriptionStatusCancelled: {},
}

// CanTransition reports whether moving from the current status to `to` is
// one of the edges the §4.1 state table permits. "cancelled" is terminal.
func (s *Subscription) CanTransition(to types.SubscriptionStatus) bool {
	allowed, ok := transitions[s.Status]
	if !ok {
		return false
	}
	return allowed[to]
}

// TransitionTo moves the subscription to `to`, returning IllegalStateTransition
// (mapped to ierr.ErrInvalidOperation) if the edge isn't in the state table.
func (s *Subscription) TransitionTo(to types.SubscriptionStatus) error {
	if !s.CanTransition(to) {
		return ierr.NewErrorf("illegal subscription transition %s -> %s", s.Status, to).
			WithHint("this state change is not permitted by the subscription lifecycle").
			Mark(ierr.ErrInvalidOperation)
	}
	s.Status = to
	return nil
}

// IsBillable reports whether the subscription should generate invoices.
// spec.md §3: "status=paused ⇒ no invoices generated."
func (s *Subscription) IsBillable() bool {
	return s.Status == types.SubscriptionStatusActive || s.Status == types.SubscriptionStatusPastDue
}

// IsIngestible reports whether the subscription may accept new usage
// records. spec.md §4.7: "Reject with SubscriptionInactive if
// subscription.status ∈ {paused, cancelled}" — trialing and past_due
// subscriptions still ingest usage so it's ready to bill once they become
// active again.
func (s *Subscription) IsIngestible() bool {
	return s.Status != types.SubscriptionStatusPaused && s.Status != types.SubscriptionStatusCancelled
}
