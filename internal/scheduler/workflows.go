package scheduler

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow names, one per spec.md §4.9 task. Each is registered with a
// Temporal Schedule at the cadence named in config.SchedulerConfig; the
// workflow itself just executes its one activity under a retry policy,
// mirroring the teacher's SubscriptionSchedulerWorkflow shape minus the
// recursive batch-enqueue loop this engine's activities handle internally.
const (
	WorkflowBillingCycle    = "BillingCycleWorkflow"
	WorkflowTrialExpiry     = "TrialExpiryWorkflow"
	WorkflowPlanChangeApply = "PlanChangeApplyWorkflow"
	WorkflowPaymentRetry    = "PaymentRetryWorkflow"
	WorkflowDunningSweep    = "DunningSweepWorkflow"
	WorkflowLateUsage       = "LateUsageWorkflow"
	WorkflowPauseAuto       = "PauseAutoWorkflow"
	WorkflowWebhookDispatch = "WebhookDispatchWorkflow"
	WorkflowAnalyticsRollup = "AnalyticsRollupWorkflow"
)

func activityOptions(ctx workflow.Context, timeout time.Duration) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})
}

// BillingCycleWorkflow drives Activities.BillingCycle.
func BillingCycleWorkflow(ctx workflow.Context) (BatchResult, error) {
	ctx = activityOptions(ctx, 10*time.Minute)
	var result BatchResult
	err := workflow.ExecuteActivity(ctx, ActivityPrefix+".BillingCycle").Get(ctx, &result)
	return result, err
}

// TrialExpiryWorkflow drives Activities.TrialExpiry.
func TrialExpiryWorkflow(ctx workflow.Context) (BatchResult, error) {
	ctx = activityOptions(ctx, 5*time.Minute)
	var result BatchResult
	err := workflow.ExecuteActivity(ctx, ActivityPrefix+".TrialExpiry").Get(ctx, &result)
	return result, err
}

// PlanChangeApplyWorkflow drives Activities.PlanChangeApply.
func PlanChangeApplyWorkflow(ctx workflow.Context) (BatchResult, error) {
	ctx = activityOptions(ctx, 5*time.Minute)
	var result BatchResult
	err := workflow.ExecuteActivity(ctx, ActivityPrefix+".PlanChangeApply").Get(ctx, &result)
	return result, err
}

// PaymentRetryWorkflow drives Activities.PaymentRetry.
func PaymentRetryWorkflow(ctx workflow.Context) (BatchResult, error) {
	ctx = activityOptions(ctx, 10*time.Minute)
	var result BatchResult
	err := workflow.ExecuteActivity(ctx, ActivityPrefix+".PaymentRetry").Get(ctx, &result)
	return result, err
}

// DunningSweepWorkflow drives Activities.DunningSweep.
func DunningSweepWorkflow(ctx workflow.Context) (BatchResult, error) {
	ctx = activityOptions(ctx, 15*time.Minute)
	var result BatchResult
	err := workflow.ExecuteActivity(ctx, ActivityPrefix+".DunningSweep").Get(ctx, &result)
	return result, err
}

// LateUsageWorkflow drives Activities.LateUsageReconcile.
func LateUsageWorkflow(ctx workflow.Context) (BatchResult, error) {
	ctx = activityOptions(ctx, 15*time.Minute)
	var result BatchResult
	err := workflow.ExecuteActivity(ctx, ActivityPrefix+".LateUsageReconcile").Get(ctx, &result)
	return result, err
}

// PauseAutoWorkflow drives Activities.PauseAuto.
func PauseAutoWorkflow(ctx workflow.Context) (BatchResult, error) {
	ctx = activityOptions(ctx, 10*time.Minute)
	var result BatchResult
	err := workflow.ExecuteActivity(ctx, ActivityPrefix+".PauseAuto").Get(ctx, &result)
	return result, err
}

// WebhookDispatchWorkflow drives Activities.WebhookDispatch. Shorter
// timeout than the other tasks since it runs every minute (spec.md §4.9).
func WebhookDispatchWorkflow(ctx workflow.Context) (BatchResult, error) {
	ctx = activityOptions(ctx, 2*time.Minute)
	var result BatchResult
	err := workflow.ExecuteActivity(ctx, ActivityPrefix+".WebhookDispatch").Get(ctx, &result)
	return result, err
}

// AnalyticsRollupWorkflow drives Activities.AnalyticsRollup.
func AnalyticsRollupWorkflow(ctx workflow.Context) (BatchResult, error) {
	ctx = activityOptions(ctx, 10*time.Minute)
	var result BatchResult
	err := workflow.ExecuteActivity(ctx, ActivityPrefix+".AnalyticsRollup").Get(ctx, &result)
	return result, err
}
