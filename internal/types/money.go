package types

import "strings"

// SupportedCurrencies is the ISO-4217 allowlist this engine accepts.
// Carried forward from original_source/backend/src/billing/utils/currency.py
// (spec.md documents amounts as "integer minor units of a given currency"
// but never enumerates supported codes; this supplements that).
var SupportedCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "CAD": true, "AUD": true,
	"NZD": true, "JPY": true, "CNY": true, "INR": true, "BRL": true,
	"MXN": true, "CHF": true, "SEK": true, "NOK": true, "DKK": true,
	"SGD": true, "HKD": true, "KRW": true, "ZAR": true, "PLN": true,
	"THB": true, "MYR": true, "IDR": true, "PHP": true, "TRY": true,
}

// ZeroDecimalCurrencies have no minor unit: the integer amount already
// represents whole units (e.g. 500 JPY, not 500 sen of a yen).
var ZeroDecimalCurrencies = map[string]bool{
	"JPY": true, "KRW": true, "VND": true, "CLP": true, "ISK": true, "TWD": true,
}

// NormalizeCurrency upper-cases and validates a currency code.
func NormalizeCurrency(currency string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(currency))
	return c, SupportedCurrencies[c]
}

// IsZeroDecimal reports whether currency stores whole units with no minor
// denomination (so 1 "amount" unit == 1 currency unit, not 1 cent).
func IsZeroDecimal(currency string) bool {
	return ZeroDecimalCurrencies[strings.ToUpper(currency)]
}
