package dto

import (
	"github.com/sugu-inc/modern-billing/internal/domain/plan"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// TierRequest is one row of a CreatePlanRequest's pricing ladder.
type TierRequest struct {
	UpTo       *int64 `json:"up_to,omitempty"`
	UnitAmount int64  `json:"unit_amount" validate:"required"`
}

// CreatePlanRequest is the input to POST /plans. Plans are immutable once
// referenced (spec.md §3), so there is no UpdatePlanRequest — a price
// change creates a new version and deactivates the old via
// POST /plans/{id}/deactivate.
type CreatePlanRequest struct {
	Name      string                `json:"name" validate:"required"`
	Interval  types.BillingInterval `json:"interval" validate:"required"`
	Amount    int64                 `json:"amount" validate:"min=0"`
	Currency  string                `json:"currency" validate:"required,len=3"`
	TrialDays int                   `json:"trial_days" validate:"min=0"`
	UsageType types.UsageType       `json:"usage_type"`
	Tiers     []TierRequest         `json:"tiers,omitempty"`
}

// PlanResponse wraps the domain aggregate for JSON responses.
type PlanResponse struct {
	*plan.Plan
}

func NewPlanResponse(p *plan.Plan) *PlanResponse {
	return &PlanResponse{Plan: p}
}

type ListPlansResponse struct {
	Items []*PlanResponse `json:"items"`
}
