package scheduler

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"

	"github.com/sugu-inc/modern-billing/internal/config"
)

// RegisterAll registers the nine scheduler workflows and their activities
// on w, grounded on the teacher's per-struct activity registration
// (worker.RegisterActivityWithOptions(activities.Method, ...Name: prefix+"."+method)).
func RegisterAll(w worker.Worker, a *Activities) {
	w.RegisterWorkflow(BillingCycleWorkflow)
	w.RegisterWorkflow(TrialExpiryWorkflow)
	w.RegisterWorkflow(PlanChangeApplyWorkflow)
	w.RegisterWorkflow(PaymentRetryWorkflow)
	w.RegisterWorkflow(DunningSweepWorkflow)
	w.RegisterWorkflow(LateUsageWorkflow)
	w.RegisterWorkflow(PauseAutoWorkflow)
	w.RegisterWorkflow(WebhookDispatchWorkflow)
	w.RegisterWorkflow(AnalyticsRollupWorkflow)

	w.RegisterActivityWithOptions(a.BillingCycle, activity.RegisterOptions{Name: ActivityPrefix + ".BillingCycle"})
	w.RegisterActivityWithOptions(a.TrialExpiry, activity.RegisterOptions{Name: ActivityPrefix + ".TrialExpiry"})
	w.RegisterActivityWithOptions(a.PlanChangeApply, activity.RegisterOptions{Name: ActivityPrefix + ".PlanChangeApply"})
	w.RegisterActivityWithOptions(a.PaymentRetry, activity.RegisterOptions{Name: ActivityPrefix + ".PaymentRetry"})
	w.RegisterActivityWithOptions(a.DunningSweep, activity.RegisterOptions{Name: ActivityPrefix + ".DunningSweep"})
	w.RegisterActivityWithOptions(a.LateUsageReconcile, activity.RegisterOptions{Name: ActivityPrefix + ".LateUsageReconcile"})
	w.RegisterActivityWithOptions(a.PauseAuto, activity.RegisterOptions{Name: ActivityPrefix + ".PauseAuto"})
	w.RegisterActivityWithOptions(a.WebhookDispatch, activity.RegisterOptions{Name: ActivityPrefix + ".WebhookDispatch"})
	w.RegisterActivityWithOptions(a.AnalyticsRollup, activity.RegisterOptions{Name: ActivityPrefix + ".AnalyticsRollup"})
}

// ScheduleSpec pairs a workflow with the cron expression that should
// trigger it, read off config.SchedulerConfig (spec.md §4.9's named
// cadences). cmd/ uses this to create/update Temporal Schedules at
// startup.
type ScheduleSpec struct {
	ScheduleID string
	Workflow   string
	Cron       string
}

// Schedules enumerates the nine Temporal Schedules this engine maintains.
func Schedules(cfg config.SchedulerConfig) []ScheduleSpec {
	return []ScheduleSpec{
		{"billing-cycle", WorkflowBillingCycle, cfg.BillingCycleCron},
		{"trial-expiry", WorkflowTrialExpiry, cfg.TrialExpiryCron},
		{"plan-change-apply", WorkflowPlanChangeApply, cfg.PlanChangeApplyCron},
		{"payment-retry", WorkflowPaymentRetry, cfg.PaymentRetryCron},
		{"dunning-sweep", WorkflowDunningSweep, cfg.DunningSweepCron},
		{"late-usage", WorkflowLateUsage, cfg.LateUsageCron},
		{"pause-auto", WorkflowPauseAuto, cfg.PauseAutoCron},
		{"webhook-dispatch", WorkflowWebhookDispatch, cfg.WebhookDispatchCron},
		{"analytics-rollup", WorkflowAnalyticsRollup, cfg.AnalyticsRollupCron},
	}
}
