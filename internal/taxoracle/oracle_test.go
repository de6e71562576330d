package taxoracle

import (
	"context"
	"testing"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"

	"github.com/sugu-inc/modern-billing/internal/config"
)

func TestFlatRateOracleDefaultsToTenPercent(t *testing.T) {
	o := NewFlatRateOracle(config.TaxConfig{})
	// spec.md §8 scenario A: subtotal 2000 -> tax 200 at the 10% fallback.
	res, err := o.Calculate(context.Background(), Location{Country: "US"}, 2000, "USD", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Amount != 200 {
		t.Fatalf("Amount = %d, want 200", res.Amount)
	}
	if res.Rate != 10 {
		t.Fatalf("Rate = %v, want 10", res.Rate)
	}
}

func TestFlatRateOracleHonorsConfiguredRate(t *testing.T) {
	o := NewFlatRateOracle(config.TaxConfig{FallbackRatePercent: 20})
	res, err := o.Calculate(context.Background(), Location{Country: "US"}, 1000, "USD", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Amount != 200 {
		t.Fatalf("Amount = %d, want 200", res.Amount)
	}
}

func TestFlatRateOracleRejectsNegativeAmount(t *testing.T) {
	o := NewFlatRateOracle(config.TaxConfig{})
	if _, err := o.Calculate(context.Background(), Location{}, -1, "USD", nil); err == nil {
		t.Fatal("expected an error for a negative taxable amount")
	}
}

type erroringOracle struct{}

func (erroringOracle) Calculate(ctx context.Context, loc Location, amount int64, currency string, lineItems []LineItem) (Result, error) {
	return Result{}, ierr.NewError("jurisdiction lookup unavailable").Mark(ierr.ErrExternalTransient)
}

func TestCalculateWithFallbackFallsBackOnPrimaryError(t *testing.T) {
	fallback := NewFlatRateOracle(config.TaxConfig{FallbackRatePercent: 10})
	res := CalculateWithFallback(context.Background(), erroringOracle{}, fallback, Location{Country: "US"}, 2000, "USD", nil)
	if res.Amount != 200 {
		t.Fatalf("Amount = %d, want 200 (fallback rate applied)", res.Amount)
	}
}

func TestExemptYieldsZeroTax(t *testing.T) {
	res := Exempt(ReasonTaxExempt)
	if res.Amount != 0 {
		t.Fatalf("Amount = %d, want 0", res.Amount)
	}
	if res.Reason != ReasonTaxExempt {
		t.Fatalf("Reason = %q, want %q", res.Reason, ReasonTaxExempt)
	}
}
