// Package account models the root aggregate every subscription, invoice,
// credit, and payment method is owned by (spec.md §3).
package account

import (
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// Account is a billing customer.
type Account struct {
	ID         string
	Email      string
	Name       string
	Currency   string
	Timezone   string
	TaxExempt  bool
	TaxID      string
	VatID      string
	AccountStatus types.AccountStatus
	Metadata   map[string]string

	types.BaseModel
}

// Validate enforces the invariants FromEnt-adjacent callers rely on before
// a write reaches the store.
func (a *Account) Validate() error {
	if a.Email == "" {
		return ierr.NewError("account validation failed").
			WithHint("email is required").Mark(ierr.ErrValidation)
	}
	if _, ok := types.NormalizeCurrency(a.Currency); !ok {
		return ierr.NewErrorf("unsupported currency %q", a.Currency).
			WithHint("account currency must be one of the supported ISO-4217 codes").
			Mark(ierr.ErrValidation)
	}
	switch a.AccountStatus {
	case types.AccountStatusActive, types.AccountStatusWarning, types.AccountStatusBlocked:
	default:
		return ierr.NewErrorf("invalid account status %q", a.AccountStatus).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsBlocked reports whether the Dunning Controller's account-gate rule
// (spec.md §4.6) should reject new subscription/plan-change writes.
func (a *Account) IsBlocked() bool {
	return a.AccountStatus == types.AccountStatusBlocked
}

// HasValidVATID reports whether this account qualifies for the EU
// reverse-charge rule (spec.md glossary: "Reverse charge").
func (a *Account) HasValidVATID() bool {
	return a.VatID != ""
}
