package dto

import (
	"github.com/sugu-inc/modern-billing/internal/domain/payment"
)

// AttemptPaymentRequest is the input to POST /invoices/{id}/payments. The
// idempotency key is caller-supplied only for client-initiated retries;
// server-initiated attempts (the payment_retry scheduler) stamp their own
// per spec.md §6's payment_{invoice_id}_{uuid} format.
type AttemptPaymentRequest struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// PaymentResponse wraps the domain aggregate for JSON responses.
type PaymentResponse struct {
	*payment.Payment
}

func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{Payment: p}
}

type ListPaymentsResponse struct {
	Items []*PaymentResponse `json:"items"`
}
