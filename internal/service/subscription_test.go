package service

import (
	"context"
	"testing"
	"time"

	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/testutil"
	"github.com/sugu-inc/modern-billing/internal/types"
)

func newSubscriptionService(t *testing.T) (*SubscriptionService, *testutil.InMemoryAccountStore, *testutil.InMemoryPlanStore) {
	t.Helper()
	accounts := testutil.NewInMemoryAccountStore()
	plans := testutil.NewInMemoryPlanStore()
	subs := testutil.NewInMemorySubscriptionStore()
	return NewSubscriptionService(subs, accounts, plans, nil, logger.NewNop()), accounts, plans
}

func TestSubscriptionCreateTrialingWhenPlanHasTrialDays(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	if err := accounts.Create(ctx, acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	p := testutil.NewTestPlan(now, 2000)
	p.TrialDays = 14
	if err := plans.Create(ctx, p); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	sub, err := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if sub.Status != types.SubscriptionStatusTrialing {
		t.Fatalf("Status = %q, want trialing", sub.Status)
	}
	if sub.TrialEnd == nil {
		t.Fatal("expected trial_end to be set")
	}
}

func TestSubscriptionCreateActiveWithoutTrial(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = plans.Create(ctx, p)

	sub, err := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if sub.Status != types.SubscriptionStatusActive {
		t.Fatalf("Status = %q, want active", sub.Status)
	}
}

func TestSubscriptionCreateRejectsBlockedAccount(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	acc.AccountStatus = types.AccountStatusBlocked
	_ = accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = plans.Create(ctx, p)

	if _, err := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: p.ID, Quantity: 1}); err == nil {
		t.Fatal("expected the account-gate rule to reject a blocked account")
	}
}

func TestSubscriptionCreateRejectsCurrencyMismatch(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	p.Currency = "EUR"
	_ = plans.Create(ctx, p)

	if _, err := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: p.ID, Quantity: 1}); err == nil {
		t.Fatal("expected a currency mismatch between account and plan to be rejected")
	}
}

func TestSubscriptionCancelDeferredOnlyFlagsCancelAtPeriodEnd(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = plans.Create(ctx, p)
	sub, err := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Cancel(ctx, sub.ID, false)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if updated.Status != types.SubscriptionStatusActive {
		t.Fatalf("Status = %q, want active (deferred cancel must not transition immediately)", updated.Status)
	}
	if !updated.CancelAtPeriodEnd {
		t.Fatal("expected cancel_at_period_end to be set")
	}
}

func TestSubscriptionCancelImmediateTransitionsNow(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = plans.Create(ctx, p)
	sub, _ := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: p.ID, Quantity: 1})

	updated, err := svc.Cancel(ctx, sub.ID, true)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if updated.Status != types.SubscriptionStatusCancelled {
		t.Fatalf("Status = %q, want cancelled", updated.Status)
	}

	// cancelled is terminal; a second cancel must be rejected.
	if _, err := svc.Cancel(ctx, sub.ID, true); err == nil {
		t.Fatal("expected cancelling an already-cancelled subscription to fail")
	}
}

func TestSubscriptionPauseAndResumeExtendsPeriod(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = plans.Create(ctx, p)
	sub, _ := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: p.ID, Quantity: 1})
	originalEnd := sub.CurrentPeriodEnd

	paused, err := svc.Pause(ctx, sub.ID, nil)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if paused.Status != types.SubscriptionStatusPaused {
		t.Fatalf("Status = %q, want paused", paused.Status)
	}

	// Force the paused clock backward so Resume measures a real duration.
	pausedAt := now.Add(-48 * time.Hour)
	paused.PausedAt = &pausedAt

	resumed, err := svc.Resume(ctx, sub.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.Status != types.SubscriptionStatusActive {
		t.Fatalf("Status = %q, want active", resumed.Status)
	}
	if !resumed.CurrentPeriodEnd.After(originalEnd) {
		t.Fatal("expected Resume to extend current_period_end by the pause duration")
	}
}

func TestSubscriptionChangePlanImmediateSwapsPlanNow(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = accounts.Create(ctx, acc)
	oldPlan := testutil.NewTestPlan(now, 2000)
	_ = plans.Create(ctx, oldPlan)
	newPlan := testutil.NewTestPlan(now, 5000)
	_ = plans.Create(ctx, newPlan)

	sub, _ := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: oldPlan.ID, Quantity: 1})

	result, err := svc.ChangePlan(ctx, sub.ID, newPlan.ID, PlanChangeImmediate, nil)
	if err != nil {
		t.Fatalf("ChangePlan: %v", err)
	}
	if !result.Immediate {
		t.Fatal("expected an immediate change")
	}
	if result.Subscription.PlanID != newPlan.ID {
		t.Fatalf("PlanID = %q, want %q", result.Subscription.PlanID, newPlan.ID)
	}
}

func TestSubscriptionChangePlanDeferredRecordsPendingPlan(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = accounts.Create(ctx, acc)
	oldPlan := testutil.NewTestPlan(now, 2000)
	_ = plans.Create(ctx, oldPlan)
	newPlan := testutil.NewTestPlan(now, 5000)
	_ = plans.Create(ctx, newPlan)

	sub, _ := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: oldPlan.ID, Quantity: 1})

	result, err := svc.ChangePlan(ctx, sub.ID, newPlan.ID, PlanChangeAtPeriodEnd, nil)
	if err != nil {
		t.Fatalf("ChangePlan: %v", err)
	}
	if result.Immediate {
		t.Fatal("expected a deferred change")
	}
	if result.Subscription.PlanID != oldPlan.ID {
		t.Fatal("plan_id must not change until the deferred change is applied")
	}
	if result.Subscription.PendingPlanID == nil || *result.Subscription.PendingPlanID != newPlan.ID {
		t.Fatal("expected pending_plan_id to be recorded")
	}

	if err := svc.ApplyPendingPlanChange(ctx, result.Subscription); err != nil {
		t.Fatalf("ApplyPendingPlanChange: %v", err)
	}
	if result.Subscription.PlanID != newPlan.ID {
		t.Fatalf("PlanID = %q, want %q after apply", result.Subscription.PlanID, newPlan.ID)
	}
	if result.Subscription.PendingPlanID != nil {
		t.Fatal("expected pending_plan_id to be cleared after apply")
	}
}

func TestSubscriptionMarkPastDueAndBackToActive(t *testing.T) {
	svc, accounts, plans := newSubscriptionService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc := testutil.NewTestAccount(now)
	_ = accounts.Create(ctx, acc)
	p := testutil.NewTestPlan(now, 2000)
	_ = plans.Create(ctx, p)
	sub, _ := svc.Create(ctx, CreateSubscriptionRequest{AccountID: acc.ID, PlanID: p.ID, Quantity: 1})

	if err := svc.MarkPastDue(ctx, sub.ID); err != nil {
		t.Fatalf("MarkPastDue: %v", err)
	}
	if sub.Status != types.SubscriptionStatusPastDue {
		t.Fatalf("Status = %q, want past_due", sub.Status)
	}

	if err := svc.MarkActiveFromPastDue(ctx, sub.ID); err != nil {
		t.Fatalf("MarkActiveFromPastDue: %v", err)
	}
	if sub.Status != types.SubscriptionStatusActive {
		t.Fatalf("Status = %q, want active", sub.Status)
	}
}
