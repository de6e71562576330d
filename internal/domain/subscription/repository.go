package subscription

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/types"
)

// Repository persists Subscription aggregates and their append-only history.
// Trimmed from the teacher's equivalent interface (which also carries
// Schedule/Phase and tenant-scoped variants this engine's single-tenant,
// pending_plan_id-based scheduling doesn't need).
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)
	ListByAccount(ctx context.Context, accountID string) ([]*Subscription, error)

	// DueForBillingCycle returns billable subscriptions whose current
	// period has closed (spec.md §4.9 billing_cycle task).
	DueForBillingCycle(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
	// DueForTrialExpiry returns trialing subscriptions past trial_end.
	DueForTrialExpiry(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
	// DueForPlanChangeApply returns subscriptions with a pending plan
	// change whose period has closed.
	DueForPlanChangeApply(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
	// DueForPauseAutoResume returns paused subscriptions past pause_resumes_at.
	DueForPauseAutoResume(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
	// DueForPauseAutoCancel returns subscriptions paused more than maxPause.
	DueForPauseAutoCancel(ctx context.Context, now time.Time, maxPause time.Duration, limit int) ([]*Subscription, error)

	AppendHistory(ctx context.Context, h *History) error
	ListHistory(ctx context.Context, subscriptionID string) ([]*History, error)
}
