package dto

import (
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/subscription"
	"github.com/sugu-inc/modern-billing/internal/service"
)

// CreateSubscriptionRequest is the input to POST /subscriptions.
type CreateSubscriptionRequest struct {
	AccountID string     `json:"account_id" validate:"required"`
	PlanID    string     `json:"plan_id" validate:"required"`
	Quantity  int64      `json:"quantity" validate:"min=1"`
	TrialEnd  *time.Time `json:"trial_end,omitempty"`
}

func (r CreateSubscriptionRequest) ToService() service.CreateSubscriptionRequest {
	return service.CreateSubscriptionRequest{
		AccountID: r.AccountID,
		PlanID:    r.PlanID,
		Quantity:  r.Quantity,
		TrialEnd:  r.TrialEnd,
	}
}

// UpdateSubscriptionRequest is the input to PATCH /subscriptions/{id}.
type UpdateSubscriptionRequest struct {
	Quantity          *int64 `json:"quantity,omitempty"`
	CancelAtPeriodEnd *bool  `json:"cancel_at_period_end,omitempty"`
}

func (r UpdateSubscriptionRequest) ToService() service.UpdateSubscriptionRequest {
	return service.UpdateSubscriptionRequest{
		Quantity:          r.Quantity,
		CancelAtPeriodEnd: r.CancelAtPeriodEnd,
	}
}

// CancelSubscriptionRequest is the input to POST /subscriptions/{id}/cancel.
type CancelSubscriptionRequest struct {
	Immediate bool `json:"immediate"`
}

// PauseSubscriptionRequest is the input to POST /subscriptions/{id}/pause.
type PauseSubscriptionRequest struct {
	ResumesAt *time.Time `json:"resumes_at,omitempty"`
}

// ChangePlanRequest is the input to POST /subscriptions/{id}/change-plan
// (spec.md §4.1 change_plan()).
type ChangePlanRequest struct {
	NewPlanID string                      `json:"new_plan_id" validate:"required"`
	Timing    service.PlanChangeTiming    `json:"timing" validate:"required"`
	Quantity  *int64                      `json:"quantity,omitempty"`
}

// ChangePlanResponse reports what ChangePlan did, mirroring
// service.ChangePlanResult.
type ChangePlanResponse struct {
	Subscription *subscription.Subscription `json:"subscription"`
	Immediate    bool                       `json:"immediate"`
	ChangeAt     time.Time                  `json:"change_at,omitempty"`
}

func NewChangePlanResponse(r *service.ChangePlanResult) *ChangePlanResponse {
	return &ChangePlanResponse{
		Subscription: r.Subscription,
		Immediate:    r.Immediate,
		ChangeAt:     r.ChangeAt,
	}
}

// SubscriptionResponse wraps the domain aggregate for JSON responses.
type SubscriptionResponse struct {
	*subscription.Subscription
}

func NewSubscriptionResponse(s *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{Subscription: s}
}

type ListSubscriptionsResponse struct {
	Items []*SubscriptionResponse `json:"items"`
}
