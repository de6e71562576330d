package dto

import (
	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
)

// InvoiceResponse wraps the domain aggregate for JSON responses.
type InvoiceResponse struct {
	*invoice.Invoice
}

func NewInvoiceResponse(i *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: i}
}

type ListInvoicesResponse struct {
	Items []*InvoiceResponse `json:"items"`
}
