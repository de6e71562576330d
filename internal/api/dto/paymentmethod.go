package dto

import (
	"github.com/sugu-inc/modern-billing/internal/domain/paymentmethod"
)

// AddPaymentMethodRequest is the input to POST /accounts/{id}/payment-methods.
type AddPaymentMethodRequest struct {
	GatewayToken string `json:"gateway_token" validate:"required"`
	Brand        string `json:"brand"`
	Last4        string `json:"last4"`
	ExpiryMonth  int    `json:"expiry_month"`
	ExpiryYear   int    `json:"expiry_year"`
	IsDefault    bool   `json:"is_default"`
}

// PaymentMethodResponse wraps the domain aggregate for JSON responses.
type PaymentMethodResponse struct {
	*paymentmethod.PaymentMethod
}

func NewPaymentMethodResponse(pm *paymentmethod.PaymentMethod) *PaymentMethodResponse {
	return &PaymentMethodResponse{PaymentMethod: pm}
}

type ListPaymentMethodsResponse struct {
	Items []*PaymentMethodResponse `json:"items"`
}
