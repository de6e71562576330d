package pricing

import (
	"testing"
	"time"

	"github.com/sugu-inc/modern-billing/internal/types"
)

func TestNextPeriodStartMonthly(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	got, err := NextPeriodStart(start, types.BillingIntervalMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := start.AddDate(0, 0, 30); !got.Equal(want) {
		t.Fatalf("NextPeriodStart(month) = %v, want %v", got, want)
	}
}

func TestNextPeriodStartYearly(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	got, err := NextPeriodStart(start, types.BillingIntervalYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := start.AddDate(0, 0, 365); !got.Equal(want) {
		t.Fatalf("NextPeriodStart(year) = %v, want %v", got, want)
	}
}

func TestNextPeriodStartRejectsInvalidInterval(t *testing.T) {
	if _, err := NextPeriodStart(time.Now(), types.BillingInterval("fortnight")); err == nil {
		t.Fatal("expected an error for an unrecognized billing interval")
	}
}
