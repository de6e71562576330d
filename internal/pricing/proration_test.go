package pricing

import (
	"testing"
	"time"
)

func TestProrateHalfPeriod(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC) // 30-day period
	changeAt := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)

	result := Prorate(start, end, changeAt, 3000, 6000)

	// 15 of 30 remaining days -> ratio 1/2.
	if result.Credit != -1500 {
		t.Fatalf("Credit = %d, want -1500", result.Credit)
	}
	if result.Charge != 3000 {
		t.Fatalf("Charge = %d, want 3000", result.Charge)
	}
}

func TestProrateAtPeriodStartChargesEverything(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	result := Prorate(start, end, start, 3000, 6000)
	if result.Credit != -3000 || result.Charge != 6000 {
		t.Fatalf("Prorate at period start = %+v, want full credit/charge", result)
	}
}

func TestProrateAtPeriodEndChargesNothing(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	result := Prorate(start, end, end, 3000, 6000)
	if result.Credit != 0 || result.Charge != 0 {
		t.Fatalf("Prorate at period end = %+v, want zero credit/charge", result)
	}
}

func TestProrateZeroLengthPeriodIsSafe(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	result := Prorate(at, at, at, 3000, 6000)
	if result.Credit != 0 || result.Charge != 0 {
		t.Fatalf("Prorate over a zero-length period = %+v, want zero", result)
	}
}

func TestDaysInPeriod(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := DaysInPeriod(start, end); got != 30 {
		t.Fatalf("DaysInPeriod = %d, want 30", got)
	}
}

func TestValidatePeriodRejectsNonPositiveSpan(t *testing.T) {
	now := time.Now()
	if err := ValidatePeriod(now, now); err == nil {
		t.Fatal("expected an error for a zero-length period")
	}
	if err := ValidatePeriod(now, now.Add(-time.Hour)); err == nil {
		t.Fatal("expected an error for an inverted period")
	}
	if err := ValidatePeriod(now, now.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error for a valid period: %v", err)
	}
}
