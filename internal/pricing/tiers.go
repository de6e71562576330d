package pricing

import ierr "github.com/sugu-inc/modern-billing/internal/errors"

// Tier mirrors PlanTier: {up_to (nullable = infinity), unit_amount}. UpTo == nil
// means this tier absorbs all remaining units.
type Tier struct {
	UpTo       *int64
	UnitAmount int64
}

// Graduated prices each unit within total at its own tier's rate, tier
// boundaries inclusive of the upper bound (up_to=1000 means units 1..1000
// fall in that tier). Tiers must already be sorted by UpTo ascending with
// nil last.
func Graduated(total int64, tiers []Tier) (int64, error) {
	if total < 0 {
		return 0, ierr.NewErrorf("total usage %d must be non-negative", total).
			WithHint("usage quantity cannot be negative").Mark(ierr.ErrValidation)
	}
	var charge int64
	var consumed int64
	for _, tier := range tiers {
		if consumed >= total {
			break
		}
		cap := total
		if tier.UpTo != nil {
			cap = *tier.UpTo
		}
		take := cap - consumed
		if take > total-consumed {
			take = total - consumed
		}
		if take < 0 {
			take = 0
		}
		charge += take * tier.UnitAmount
		consumed += take
	}
	return charge, nil
}

// Volume prices every unit of total at the single tier the total falls
// into (the first tier whose UpTo >= total, or the last tier if none caps
// that high).
func Volume(total int64, tiers []Tier) (int64, error) {
	if total < 0 {
		return 0, ierr.NewErrorf("total usage %d must be non-negative", total).
			WithHint("usage quantity cannot be negative").Mark(ierr.ErrValidation)
	}
	if len(tiers) == 0 {
		return 0, ierr.NewError("volume pricing requires at least one tier").
			WithHint("plan.tiers must be non-empty for usage_type=volume").Mark(ierr.ErrValidation)
	}
	for _, tier := range tiers {
		if tier.UpTo == nil || total <= *tier.UpTo {
			return total * tier.UnitAmount, nil
		}
	}
	last := tiers[len(tiers)-1]
	return total * last.UnitAmount, nil
}

// RateUsage dispatches to Graduated or Volume per the plan's resolved usage
// type. "tiered" is resolved to "graduated" by the caller before this runs.
func RateUsage(total int64, tiers []Tier, graduatedMode bool) (int64, error) {
	if graduatedMode {
		return Graduated(total, tiers)
	}
	return Volume(total, tiers)
}
