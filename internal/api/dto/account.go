// Package dto holds the HTTP request/response shapes for internal/api/v1.
// Grounded on the teacher's internal/api/dto package: validator/v10 struct
// tags on requests, domain types embedded directly into responses
// (vidinfra-flexprice's SubscriptionResponse wraps *subscription.Subscription).
package dto

import (
	"github.com/sugu-inc/modern-billing/internal/domain/account"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// CreateAccountRequest is the input to POST /accounts.
type CreateAccountRequest struct {
	Email     string            `json:"email" validate:"required,email"`
	Name      string            `json:"name" validate:"required"`
	Currency  string            `json:"currency" validate:"required,len=3"`
	Timezone  string            `json:"timezone"`
	TaxExempt bool              `json:"tax_exempt"`
	TaxID     string            `json:"tax_id"`
	VatID     string            `json:"vat_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// UpdateAccountRequest is the input to PUT /accounts/{id}.
type UpdateAccountRequest struct {
	Name      *string            `json:"name,omitempty"`
	TaxExempt *bool              `json:"tax_exempt,omitempty"`
	TaxID     *string            `json:"tax_id,omitempty"`
	VatID     *string            `json:"vat_id,omitempty"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
}

// UpdateAccountStatusRequest is the input to the account-gate status toggle
// the Dunning Controller's HTTP mirror exposes for manual override.
type UpdateAccountStatusRequest struct {
	Status types.AccountStatus `json:"status" validate:"required"`
}

// AccountResponse wraps the domain aggregate for JSON responses.
type AccountResponse struct {
	*account.Account
}

func NewAccountResponse(a *account.Account) *AccountResponse {
	return &AccountResponse{Account: a}
}

// ListAccountsResponse is the paginated list envelope.
type ListAccountsResponse struct {
	Items []*AccountResponse `json:"items"`
}
