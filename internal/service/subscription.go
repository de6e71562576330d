// Package service implements the engine's stateful operations: the
// Subscription Engine, Invoice Assembler, Payment Orchestrator, Credit
// Manager, Dunning Controller, Usage Recorder, and Webhook Dispatcher
// (spec.md §4). Grounded on the teacher's internal/service package split
// (one file per aggregate, constructor-injected repositories, ierr-based
// error returns) generalized from flexprice's tenant/environment-scoped
// services to this spec's single-tenant engine.
package service

import (
	"context"
	"strconv"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/account"
	"github.com/sugu-inc/modern-billing/internal/domain/plan"
	"github.com/sugu-inc/modern-billing/internal/domain/subscription"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/pricing"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// SubscriptionService implements the Subscription Engine (spec.md §4.1).
type SubscriptionService struct {
	subs     subscription.Repository
	accounts account.Repository
	plans    plan.Repository
	webhooks *WebhookService
	logger   *logger.Logger
}

// NewSubscriptionService wires the Subscription Engine.
func NewSubscriptionService(
	subs subscription.Repository,
	accounts account.Repository,
	plans plan.Repository,
	webhooks *WebhookService,
	log *logger.Logger,
) *SubscriptionService {
	return &SubscriptionService{subs: subs, accounts: accounts, plans: plans, webhooks: webhooks, logger: log}
}

// emit fans an event out through the outbox, tolerating a nil webhooks
// service (unit tests construct services without one).
func (s *SubscriptionService) emit(ctx context.Context, now time.Time, eventType types.EventType, data any) {
	if s.webhooks == nil {
		return
	}
	if err := s.webhooks.Emit(ctx, now, eventType, data); err != nil {
		s.logger.Errorw("webhook emit failed", "error", err, "event_type", eventType)
	}
}

// CreateSubscriptionRequest is the input to Create.
type CreateSubscriptionRequest struct {
	AccountID string
	PlanID    string
	Quantity  int64
	TrialEnd  *time.Time
}

// Create enforces spec.md §4.1's create() validations and initial-state
// rules: account must be active and not blocked, plan must be active, and
// account/plan currency must match.
func (s *SubscriptionService) Create(ctx context.Context, req CreateSubscriptionRequest) (*subscription.Subscription, error) {
	acc, err := s.accounts.Get(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if acc.IsBlocked() {
		return nil, ierr.NewError("account is blocked").
			WithHint("the account-gate rule rejects new subscriptions while status=blocked").
			Mark(ierr.ErrPermissionDenied)
	}

	p, err := s.plans.Get(ctx, req.PlanID)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("plan not found").Mark(ierr.ErrNotFound)
	}
	if !p.Active {
		return nil, ierr.NewError("plan is not active").Mark(ierr.ErrValidation)
	}
	if p.Currency != acc.Currency {
		return nil, ierr.NewErrorf("account currency %s does not match plan currency %s", acc.Currency, p.Currency).
			WithHint("account and plan currency must match; this engine does not convert FX").
			Mark(ierr.ErrValidation)
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	now := time.Now().UTC()
	periodEnd, err := pricing.NextPeriodStart(now, p.Interval)
	if err != nil {
		return nil, err
	}

	sub := &subscription.Subscription{
		ID:                 idgen.NewUUID(),
		AccountID:          req.AccountID,
		PlanID:             req.PlanID,
		Quantity:           quantity,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
		BaseModel:          types.NewBaseModel(now, "system"),
	}

	trialEnd := req.TrialEnd
	if p.TrialDays > 0 {
		computed := now.AddDate(0, 0, p.TrialDays)
		if trialEnd == nil || computed.After(*trialEnd) {
			trialEnd = &computed
		}
	}
	if trialEnd != nil && trialEnd.After(now) {
		sub.Status = types.SubscriptionStatusTrialing
		sub.TrialEnd = trialEnd
	} else {
		sub.Status = types.SubscriptionStatusActive
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.subs.AppendHistory(ctx, &subscription.History{
		ID: idgen.NewUUID(), SubscriptionID: sub.ID,
		EventType: types.HistoryEventCreated, NewValue: string(sub.Status), At: now,
	}); err != nil {
		return nil, err
	}
	s.emit(ctx, now, types.EventSubscriptionCreated, sub)
	return sub, nil
}

// UpdateSubscriptionRequest is the input to Update.
type UpdateSubscriptionRequest struct {
	Quantity          *int64
	CancelAtPeriodEnd *bool
}

// Update applies an immediate quantity change and/or toggles
// cancel_at_period_end (spec.md §4.1 update()).
func (s *SubscriptionService) Update(ctx context.Context, id string, req UpdateSubscriptionRequest) (*subscription.Subscription, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if req.Quantity != nil && *req.Quantity != sub.Quantity {
		if *req.Quantity < 1 {
			return nil, ierr.NewError("quantity must be >= 1").Mark(ierr.ErrValidation)
		}
		old := sub.Quantity
		sub.Quantity = *req.Quantity
		if err := s.subs.AppendHistory(ctx, &subscription.History{
			ID: idgen.NewUUID(), SubscriptionID: id, EventType: types.HistoryEventQuantity,
			OldValue: strconv.FormatInt(old, 10), NewValue: strconv.FormatInt(sub.Quantity, 10), At: now,
		}); err != nil {
			return nil, err
		}
	}

	if req.CancelAtPeriodEnd != nil && *req.CancelAtPeriodEnd != sub.CancelAtPeriodEnd {
		sub.CancelAtPeriodEnd = *req.CancelAtPeriodEnd
		if sub.CancelAtPeriodEnd {
			sub.CancelledAt = &now
		} else {
			sub.CancelledAt = nil
		}
		if err := s.subs.AppendHistory(ctx, &subscription.History{
			ID: idgen.NewUUID(), SubscriptionID: id, EventType: types.HistoryEventCancelToggle,
			NewValue: boolStr(sub.CancelAtPeriodEnd), At: now,
		}); err != nil {
			return nil, err
		}
	}

	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	s.emit(ctx, now, types.EventSubscriptionUpdated, sub)
	return sub, nil
}

// Cancel implements spec.md §4.1 cancel(): immediate transitions to
// cancelled now; otherwise only flags cancel_at_period_end.
func (s *SubscriptionService) Cancel(ctx context.Context, id string, immediate bool) (*subscription.Subscription, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if !immediate {
		sub.CancelAtPeriodEnd = true
		sub.CancelledAt = &now
		sub.UpdatedAt = now
		if err := s.subs.Update(ctx, sub); err != nil {
			return nil, err
		}
		s.emit(ctx, now, types.EventSubscriptionUpdated, sub)
		return sub, nil
	}

	old := sub.Status
	if err := sub.TransitionTo(types.SubscriptionStatusCancelled); err != nil {
		return nil, err
	}
	sub.CancelledAt = &now
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.subs.AppendHistory(ctx, &subscription.History{
		ID: idgen.NewUUID(), SubscriptionID: id, EventType: types.HistoryEventStatusChange,
		OldValue: string(old), NewValue: string(sub.Status), At: now,
	}); err != nil {
		return nil, err
	}
	s.emit(ctx, now, types.EventSubscriptionCancelled, sub)
	return sub, nil
}

// Pause implements spec.md §4.1 pause(): only from {active, trialing,
// past_due}.
func (s *SubscriptionService) Pause(ctx context.Context, id string, resumesAt *time.Time) (*subscription.Subscription, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	old := sub.Status
	if err := sub.TransitionTo(types.SubscriptionStatusPaused); err != nil {
		return nil, err
	}
	sub.PauseResumesAt = resumesAt
	sub.PausedAt = &now
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.subs.AppendHistory(ctx, &subscription.History{
		ID: idgen.NewUUID(), SubscriptionID: id, EventType: types.HistoryEventPaused,
		OldValue: string(old), NewValue: string(sub.Status), At: now,
	}); err != nil {
		return nil, err
	}
	return sub, nil
}

// Resume implements spec.md §4.1 resume(): active from paused, extending
// current_period_end by the pause duration so the account isn't billed for
// time it was paused.
func (s *SubscriptionService) Resume(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	old := sub.Status
	if err := sub.TransitionTo(types.SubscriptionStatusActive); err != nil {
		return nil, err
	}

	if sub.PausedAt != nil {
		pausedFor := now.Sub(*sub.PausedAt)
		sub.CurrentPeriodEnd = sub.CurrentPeriodEnd.Add(pausedFor)
	}
	sub.PauseResumesAt = nil
	sub.PausedAt = nil
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.subs.AppendHistory(ctx, &subscription.History{
		ID: idgen.NewUUID(), SubscriptionID: id, EventType: types.HistoryEventResumed,
		OldValue: string(old), NewValue: string(sub.Status), At: now,
	}); err != nil {
		return nil, err
	}
	return sub, nil
}

// PlanChangeTiming selects whether ChangePlan applies now or at period end.
type PlanChangeTiming string

const (
	PlanChangeImmediate   PlanChangeTiming = "immediate"
	PlanChangeAtPeriodEnd PlanChangeTiming = "at_period_end"
)

// ChangePlanResult reports what ChangePlan did, so the caller (the HTTP
// handler or a scheduler) knows whether a proration invoice needs to be
// generated.
type ChangePlanResult struct {
	Subscription *subscription.Subscription
	OldPlan      *plan.Plan
	NewPlan      *plan.Plan
	Immediate    bool
	ChangeAt     time.Time
}

// ChangePlan implements spec.md §4.1 change_plan(). Immediate swaps
// plan_id now (proration invoicing is the Invoice Assembler's job, driven
// off this result); deferred just records pending_plan_id for the
// plan_change_apply scheduler.
func (s *SubscriptionService) ChangePlan(ctx context.Context, id, newPlanID string, timing PlanChangeTiming, newQuantity *int64) (*ChangePlanResult, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	acc, err := s.accounts.Get(ctx, sub.AccountID)
	if err != nil {
		return nil, err
	}
	if acc.IsBlocked() {
		return nil, ierr.NewError("account is blocked").Mark(ierr.ErrPermissionDenied)
	}

	oldPlan, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	newPlan, err := s.plans.Get(ctx, newPlanID)
	if err != nil {
		return nil, err
	}
	if !newPlan.Active {
		return nil, ierr.NewError("plan is not active").Mark(ierr.ErrValidation)
	}
	if newPlan.Currency != acc.Currency {
		return nil, ierr.NewErrorf("account currency %s does not match plan currency %s", acc.Currency, newPlan.Currency).
			Mark(ierr.ErrValidation)
	}

	now := time.Now().UTC()
	if newQuantity != nil && *newQuantity >= 1 {
		sub.Quantity = *newQuantity
	}

	if timing == PlanChangeImmediate {
		sub.PlanID = newPlanID
		sub.PendingPlanID = nil
		sub.UpdatedAt = now
		if err := s.subs.Update(ctx, sub); err != nil {
			return nil, err
		}
		if err := s.subs.AppendHistory(ctx, &subscription.History{
			ID: idgen.NewUUID(), SubscriptionID: id, EventType: types.HistoryEventPlanChange,
			OldValue: oldPlan.ID, NewValue: newPlan.ID, At: now,
		}); err != nil {
			return nil, err
		}
		return &ChangePlanResult{Subscription: sub, OldPlan: oldPlan, NewPlan: newPlan, Immediate: true, ChangeAt: now}, nil
	}

	sub.PendingPlanID = &newPlanID
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	return &ChangePlanResult{Subscription: sub, OldPlan: oldPlan, NewPlan: newPlan, Immediate: false}, nil
}

// ApplyPendingPlanChange is invoked by the plan_change_apply scheduler
// (spec.md §4.9) once the current period has closed.
func (s *SubscriptionService) ApplyPendingPlanChange(ctx context.Context, sub *subscription.Subscription) error {
	if sub.PendingPlanID == nil {
		return nil
	}
	now := time.Now().UTC()
	oldPlanID := sub.PlanID
	sub.PlanID = *sub.PendingPlanID
	sub.PendingPlanID = nil
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return err
	}
	return s.subs.AppendHistory(ctx, &subscription.History{
		ID: idgen.NewUUID(), SubscriptionID: sub.ID, EventType: types.HistoryEventPlanChange,
		OldValue: oldPlanID, NewValue: sub.PlanID, At: now,
	})
}

// ExpireTrial transitions a trialing subscription to active once trial_end
// has passed (spec.md §4.9 trial_expiry task).
func (s *SubscriptionService) ExpireTrial(ctx context.Context, sub *subscription.Subscription) error {
	now := time.Now().UTC()
	old := sub.Status
	if err := sub.TransitionTo(types.SubscriptionStatusActive); err != nil {
		return err
	}
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return err
	}
	return s.subs.AppendHistory(ctx, &subscription.History{
		ID: idgen.NewUUID(), SubscriptionID: sub.ID, EventType: types.HistoryEventStatusChange,
		OldValue: string(old), NewValue: string(sub.Status), At: now,
	})
}

// RollPeriod advances current_period_start/end by one billing interval
// (spec.md §4.9 billing_cycle task: "advance period window").
func (s *SubscriptionService) RollPeriod(ctx context.Context, sub *subscription.Subscription, interval types.BillingInterval) error {
	now := time.Now().UTC()
	newStart := sub.CurrentPeriodEnd
	newEnd, err := pricing.NextPeriodStart(newStart, interval)
	if err != nil {
		return err
	}
	oldEnd := sub.CurrentPeriodEnd
	sub.CurrentPeriodStart = newStart
	sub.CurrentPeriodEnd = newEnd
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return err
	}
	return s.subs.AppendHistory(ctx, &subscription.History{
		ID: idgen.NewUUID(), SubscriptionID: sub.ID, EventType: types.HistoryEventPeriodRolled,
		OldValue: oldEnd.Format(time.RFC3339), NewValue: newEnd.Format(time.RFC3339), At: now,
	})
}

// MarkPastDue transitions a subscription to past_due on a billing-cycle
// invoice's first payment failure (spec.md §4.4: "subscription status
// transitions to past_due on first failure of a billing-cycle invoice").
func (s *SubscriptionService) MarkPastDue(ctx context.Context, id string) error {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status != types.SubscriptionStatusActive {
		return nil
	}
	old := sub.Status
	if err := sub.TransitionTo(types.SubscriptionStatusPastDue); err != nil {
		return err
	}
	sub.UpdatedAt = time.Now().UTC()
	if err := s.subs.Update(ctx, sub); err != nil {
		return err
	}
	return s.subs.AppendHistory(ctx, &subscription.History{
		ID: idgen.NewUUID(), SubscriptionID: id, EventType: types.HistoryEventStatusChange,
		OldValue: string(old), NewValue: string(sub.Status), At: sub.UpdatedAt,
	})
}

// MarkActiveFromPastDue reverses MarkPastDue once an overdue payment
// succeeds (spec.md §4.1 state table: past_due -> active on paid).
func (s *SubscriptionService) MarkActiveFromPastDue(ctx context.Context, id string) error {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status != types.SubscriptionStatusPastDue {
		return nil
	}
	old := sub.Status
	if err := sub.TransitionTo(types.SubscriptionStatusActive); err != nil {
		return err
	}
	sub.UpdatedAt = time.Now().UTC()
	if err := s.subs.Update(ctx, sub); err != nil {
		return err
	}
	return s.subs.AppendHistory(ctx, &subscription.History{
		ID: idgen.NewUUID(), SubscriptionID: id, EventType: types.HistoryEventStatusChange,
		OldValue: string(old), NewValue: string(sub.Status), At: sub.UpdatedAt,
	})
}

// ResolvePlanInterval looks up the billing interval of a subscription's
// current plan, for callers (the billing_cycle scheduler) that need it to
// roll the period forward without re-fetching the plan themselves.
func (s *SubscriptionService) ResolvePlanInterval(ctx context.Context, sub *subscription.Subscription) (types.BillingInterval, error) {
	p, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return "", err
	}
	return p.Interval, nil
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
