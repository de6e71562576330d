// Package taxoracle implements the Tax Oracle external collaborator
// (spec.md §2 row T, §6): a pure function from (account location, amount,
// currency) to a tax amount and breakdown, with a flat-rate fallback on
// failure. No tax-jurisdiction integration was present in the retrieval
// pack (spec.md §1 places it out of scope as an external interface); this
// package is built directly from the §6 interface contract.
package taxoracle

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/config"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
)

// Reason explains why a non-standard tax outcome applied.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonTaxExempt     Reason = "tax_exempt"
	ReasonReverseCharge Reason = "reverse_charge"
)

// Location is the minimal account-location shape the oracle rates against.
type Location struct {
	Country string
	Region  string
}

// LineItem is the subset of invoice.LineItem the oracle needs for a
// jurisdiction-aware breakdown (kept decoupled from the invoice package so
// this adapter has no domain-layer import).
type LineItem struct {
	Description string
	Amount      int64
}

// Result is the oracle's pure output: the tax to add, the rate applied, and
// a per-line breakdown (when line items were supplied).
type Result struct {
	Amount     int64
	Rate       float64
	Breakdown  map[string]int64
	Reason     Reason
}

// Oracle calculates tax for an invoice subtotal (spec.md §6).
type Oracle interface {
	Calculate(ctx context.Context, loc Location, amount int64, currency string, lineItems []LineItem) (Result, error)
}

// flatRateOracle is the in-tree reference implementation: a single
// configured rate per request, with the same fallback rate spec.md §9
// documents as the oracle's failure behavior (no real jurisdiction
// lookup exists to fail, so Calculate never itself returns an error here —
// the fallback path is exercised by callers via CalculateWithFallback when
// wrapping a real external oracle that can time out or 5xx).
type flatRateOracle struct {
	ratePercent float64
	timeout     time.Duration
}

// NewFlatRateOracle builds the reference Oracle, configured from
// config.TaxConfig.FallbackRatePercent (spec.md §9: "10% flat fallback").
func NewFlatRateOracle(cfg config.TaxConfig) Oracle {
	rate := cfg.FallbackRatePercent
	if rate <= 0 {
		rate = 10
	}
	return &flatRateOracle{ratePercent: rate, timeout: 5 * time.Second}
}

func (o *flatRateOracle) Calculate(ctx context.Context, loc Location, amount int64, currency string, lineItems []LineItem) (Result, error) {
	if amount < 0 {
		return Result{}, ierr.NewError("tax calculation failed").
			WithHint("taxable amount must be non-negative").Mark(ierr.ErrValidation)
	}

	select {
	case <-ctx.Done():
		return Result{}, ierr.WithError(ctx.Err()).Mark(ierr.ErrExternalTransient)
	default:
	}

	tax := int64(float64(amount) * o.ratePercent / 100)
	breakdown := map[string]int64{}
	if len(lineItems) > 0 {
		for _, li := range lineItems {
			breakdown[li.Description] += int64(float64(li.Amount) * o.ratePercent / 100)
		}
	} else {
		breakdown[loc.Country] = tax
	}

	return Result{Amount: tax, Rate: o.ratePercent, Breakdown: breakdown}, nil
}

// CalculateWithFallback wraps any Oracle (including a real jurisdiction
// integration) with the §6-mandated behavior: on error, fall back to the
// flat rate instead of surfacing the failure to the invoice pipeline.
func CalculateWithFallback(ctx context.Context, primary Oracle, fallback Oracle, loc Location, amount int64, currency string, lineItems []LineItem) Result {
	res, err := primary.Calculate(ctx, loc, amount, currency, lineItems)
	if err == nil {
		return res
	}
	fallbackRes, fallbackErr := fallback.Calculate(context.Background(), loc, amount, currency, lineItems)
	if fallbackErr != nil {
		return Result{}
	}
	return fallbackRes
}

// Exempt returns the zero-tax result used when an account is tax-exempt or
// a valid VAT ID applies the EU reverse-charge rule (spec.md §4.3 step d).
func Exempt(reason Reason) Result {
	return Result{Reason: reason}
}
