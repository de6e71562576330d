package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/internal/api/dto"
	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/service"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// InvoiceHandler exposes the Invoice Assembler (spec.md §4.3) over HTTP.
// Invoices are generated by the billing_cycle scheduler, not by direct API
// call, so this handler is read-plus-void rather than full CRUD.
type InvoiceHandler struct {
	service  *service.InvoiceService
	invoices invoice.Repository
	logger   *logger.Logger
}

func NewInvoiceHandler(svc *service.InvoiceService, invoices invoice.Repository, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: svc, invoices: invoices, logger: log}
}

// @Summary Get an invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	inv, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewInvoiceResponse(inv))
}

// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param account_id query string false "Account ID"
// @Param subscription_id query string false "Subscription ID"
// @Success 200 {object} dto.ListInvoicesResponse
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	filter := &types.InvoiceFilter{
		Pagination:     types.Pagination{Limit: limit, Offset: offset},
		AccountID:      c.Query("account_id"),
		SubscriptionID: c.Query("subscription_id"),
	}
	invoices, err := h.invoices.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, dto.NewInvoiceResponse(inv))
	}
	c.JSON(http.StatusOK, dto.ListInvoicesResponse{Items: items})
}

// @Summary Void an invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 422 {object} ierr.ErrorResponse
// @Router /invoices/{id}/void [post]
func (h *InvoiceHandler) Void(c *gin.Context) {
	inv, err := h.service.Void(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewInvoiceResponse(inv))
}
