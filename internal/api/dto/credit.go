package dto

import (
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/credit"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// IssueCreditRequest is the input to POST /accounts/{id}/credits.
type IssueCreditRequest struct {
	Amount    int64              `json:"amount" validate:"required,gt=0"`
	Currency  string             `json:"currency" validate:"required,len=3"`
	Reason    types.CreditReason `json:"reason" validate:"required"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
}

// CreditResponse wraps the domain aggregate for JSON responses.
type CreditResponse struct {
	*credit.Credit
}

func NewCreditResponse(c *credit.Credit) *CreditResponse {
	return &CreditResponse{Credit: c}
}

type ListCreditsResponse struct {
	Items []*CreditResponse `json:"items"`
}
