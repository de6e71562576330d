package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/internal/api/dto"
	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/domain/payment"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/service"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// PaymentHandler exposes the Payment Orchestrator (spec.md §4.4) over HTTP.
type PaymentHandler struct {
	service  *service.PaymentService
	invoices invoice.Repository
	payments payment.Repository
	logger   *logger.Logger
}

func NewPaymentHandler(svc *service.PaymentService, invoices invoice.Repository, payments payment.Repository, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: svc, invoices: invoices, payments: payments, logger: log}
}

// @Summary Attempt payment on an invoice
// @Tags Payments
// @Accept json
// @Produce json
// @Param invoice_id path string true "Invoice ID"
// @Param payment body dto.AttemptPaymentRequest false "Optional client idempotency key"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /invoices/{invoice_id}/payments [post]
func (h *PaymentHandler) Attempt(c *gin.Context) {
	var req dto.AttemptPaymentRequest
	_ = c.ShouldBindJSON(&req)

	inv, err := h.invoices.Get(c.Request.Context(), c.Param("invoice_id"))
	if err != nil {
		c.Error(err)
		return
	}
	p, err := h.service.Attempt(c.Request.Context(), inv, req.IdempotencyKey)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaymentResponse(p))
}

// @Summary Get a payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaymentResponse(p))
}

// @Summary List payments for an invoice
// @Tags Payments
// @Produce json
// @Param invoice_id query string false "Invoice ID"
// @Success 200 {object} dto.ListPaymentsResponse
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	filter := &types.PaymentFilter{
		Pagination: types.Pagination{Limit: limit, Offset: offset},
		InvoiceID:  c.Query("invoice_id"),
	}
	payments, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]*dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, dto.NewPaymentResponse(p))
	}
	c.JSON(http.StatusOK, dto.ListPaymentsResponse{Items: items})
}

// @Summary Retry a failed payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Router /payments/{id}/retry [post]
func (h *PaymentHandler) Retry(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.service.Retry(c.Request.Context(), p); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaymentResponse(p))
}
