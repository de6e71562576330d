package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProrationResult is the pair of signed line amounts emitted by a mid-cycle
// plan change: a credit for the unused remainder of the old plan and a
// charge for the new plan over that same remainder (spec.md §4.2 step 3).
type ProrationResult struct {
	Credit int64 // negative-signed amount, i.e. <= 0
	Charge int64 // positive-signed amount, i.e. >= 0
}

// Prorate computes the ratio of the period remaining after changeAt and
// applies it to oldAmount/newAmount, truncating toward zero (spec.md §4.2:
// "integer truncation toward zero"). Uses shopspring/decimal for the ratio
// so per-unit rounding can't drift across large amounts, matching the
// teacher's use of decimal.Decimal for money-adjacent math.
func Prorate(periodStart, periodEnd, changeAt time.Time, oldAmount, newAmount int64) ProrationResult {
	totalDays := decimal.NewFromInt(int64(DaysInPeriod(periodStart, periodEnd)))
	if totalDays.IsZero() {
		return ProrationResult{}
	}
	remainingDays := decimal.NewFromInt(int64(DaysInPeriod(changeAt, periodEnd)))
	ratio := remainingDays.Div(totalDays)

	credit := decimal.NewFromInt(oldAmount).Mul(ratio).Truncate(0).IntPart()
	charge := decimal.NewFromInt(newAmount).Mul(ratio).Truncate(0).IntPart()

	return ProrationResult{
		Credit: -credit,
		Charge: charge,
	}
}
