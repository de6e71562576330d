// Package paymentmethod models a stored gateway token on an account.
package paymentmethod

import (
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// PaymentMethod is a tokenized instrument on file for an account. At most
// one per account may have IsDefault=true (spec.md §5 concurrency fence 5).
type PaymentMethod struct {
	ID           string
	AccountID    string
	GatewayToken string
	Brand        string
	Last4        string
	ExpiryMonth  int
	ExpiryYear   int
	IsDefault    bool

	types.BaseModel
}

func (p *PaymentMethod) Validate() error {
	if p.AccountID == "" {
		return ierr.NewError("payment method validation failed").
			WithHint("account_id is required").Mark(ierr.ErrValidation)
	}
	if p.GatewayToken == "" {
		return ierr.NewError("payment method validation failed").
			WithHint("gateway_token is required").Mark(ierr.ErrValidation)
	}
	return nil
}
