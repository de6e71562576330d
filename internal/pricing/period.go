// Package pricing implements the Pricing Engine: period rollover, usage-tier
// rating (graduated/volume), and proration math (spec.md §4.2).
package pricing

import (
	"time"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// NextPeriodStart advances currentPeriodStart by one billing interval.
// Per spec.md §9's open question on period-advancement math, this engine
// documents and keeps the source's 30-day-month / 365-day-year
// approximation rather than switching to real calendar-month arithmetic
// (the spec notes real calendar months are "preferable" but records the
// approximation rather than guessing a replacement); this function is the
// one place that convention lives, grounded on the teacher's
// types.NextBillingDate day-arithmetic style for the daily/weekly cases.
func NextPeriodStart(currentPeriodStart time.Time, interval types.BillingInterval) (time.Time, error) {
	if err := interval.Validate(); err != nil {
		return time.Time{}, err
	}

	switch interval {
	case types.BillingIntervalMonth:
		return currentPeriodStart.AddDate(0, 0, 30), nil
	case types.BillingIntervalYear:
		return currentPeriodStart.AddDate(0, 0, 365), nil
	}
	return currentPeriodStart, nil
}

// DaysInPeriod returns the number of days between start and end, rounded
// to the nearest whole day, used by proration math.
// spec.md §4.2 calls for a "documented day-count convention"; this engine
// uses actual calendar days between start and end, matching the teacher's
// date-arithmetic style rather than a 30/360 banker's convention.
func DaysInPeriod(periodStart, periodEnd time.Time) int {
	d := periodEnd.Sub(periodStart).Hours() / 24
	if d < 0 {
		return 0
	}
	return int(d + 0.5)
}

// ValidatePeriod rejects a zero-or-negative-length period.
func ValidatePeriod(periodStart, periodEnd time.Time) error {
	if !periodEnd.After(periodStart) {
		return ierr.NewErrorf("period end %s must be after period start %s", periodEnd, periodStart).
			WithHint("billing period end must be strictly after its start").
			Mark(ierr.ErrValidation)
	}
	return nil
}
