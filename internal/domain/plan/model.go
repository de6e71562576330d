// Package plan models immutable, versioned pricing plans (spec.md §3:
// "Plans are immutable once referenced; 'price change' = create a new plan
// with incremented version and deactivate the old").
package plan

import (
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// Tier is one row of a Plan's ordered PlanTier list.
type Tier struct {
	UpTo       *int64 // nil = infinity
	UnitAmount int64
}

// Plan is an immutable, versioned price definition.
type Plan struct {
	ID         string
	Name       string
	Interval   types.BillingInterval
	Amount     int64
	Currency   string
	TrialDays  int
	UsageType  types.UsageType
	Tiers      []Tier
	Active     bool
	Version    int

	types.BaseModel
}

func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("plan validation failed").WithHint("name is required").Mark(ierr.ErrValidation)
	}
	if err := p.Interval.Validate(); err != nil {
		return err
	}
	if p.Amount < 0 {
		return ierr.NewError("plan validation failed").WithHint("amount must be non-negative").Mark(ierr.ErrValidation)
	}
	if _, ok := types.NormalizeCurrency(p.Currency); !ok {
		return ierr.NewErrorf("unsupported currency %q", p.Currency).Mark(ierr.ErrValidation)
	}
	if p.TrialDays < 0 {
		return ierr.NewError("plan validation failed").WithHint("trial_days must be non-negative").Mark(ierr.ErrValidation)
	}
	usageType := types.ResolveUsageType(p.UsageType)
	if usageType != types.UsageTypeNone && len(p.Tiers) == 0 {
		return ierr.NewError("plan validation failed").
			WithHint("usage_type requires at least one tier").Mark(ierr.ErrValidation)
	}
	return nil
}

// ResolvedUsageType collapses the "tiered" alias onto "graduated"
// (spec.md §9's open question decision).
func (p *Plan) ResolvedUsageType() types.UsageType {
	return types.ResolveUsageType(p.UsageType)
}

// IsGraduated reports whether this plan's usage tiers should be rated with
// the graduated algorithm (as opposed to volume).
func (p *Plan) IsGraduated() bool {
	return p.ResolvedUsageType() == types.UsageTypeGraduated
}
