package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/internal/api/dto"
	"github.com/sugu-inc/modern-billing/internal/domain/paymentmethod"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/types"
	"github.com/sugu-inc/modern-billing/internal/validator"
)

// PaymentMethodHandler exposes stored gateway tokens (spec.md §5 fence 5:
// "at most one PaymentMethod per account may have is_default=true").
type PaymentMethodHandler struct {
	methods paymentmethod.Repository
	logger  *logger.Logger
}

func NewPaymentMethodHandler(methods paymentmethod.Repository, log *logger.Logger) *PaymentMethodHandler {
	return &PaymentMethodHandler{methods: methods, logger: log}
}

// @Summary Add a payment method to an account
// @Tags PaymentMethods
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param method body dto.AddPaymentMethodRequest true "Payment method to add"
// @Success 201 {object} dto.PaymentMethodResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /accounts/{id}/payment-methods [post]
func (h *PaymentMethodHandler) Add(c *gin.Context) {
	var req dto.AddPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(req); err != nil {
		c.Error(err)
		return
	}

	now := time.Now().UTC()
	pm := &paymentmethod.PaymentMethod{
		ID:           idgen.NewUUID(),
		AccountID:    c.Param("id"),
		GatewayToken: req.GatewayToken,
		Brand:        req.Brand,
		Last4:        req.Last4,
		ExpiryMonth:  req.ExpiryMonth,
		ExpiryYear:   req.ExpiryYear,
		IsDefault:    req.IsDefault,
		BaseModel:    types.NewBaseModel(now, "api"),
	}
	if err := pm.Validate(); err != nil {
		c.Error(err)
		return
	}
	if err := h.methods.Create(c.Request.Context(), pm); err != nil {
		c.Error(err)
		return
	}
	if req.IsDefault {
		if err := h.methods.SetDefault(c.Request.Context(), pm.AccountID, pm.ID); err != nil {
			c.Error(err)
			return
		}
	}
	c.JSON(http.StatusCreated, dto.NewPaymentMethodResponse(pm))
}

// @Summary List an account's payment methods
// @Tags PaymentMethods
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} dto.ListPaymentMethodsResponse
// @Router /accounts/{id}/payment-methods [get]
func (h *PaymentMethodHandler) List(c *gin.Context) {
	methods, err := h.methods.ListByAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]*dto.PaymentMethodResponse, 0, len(methods))
	for _, pm := range methods {
		items = append(items, dto.NewPaymentMethodResponse(pm))
	}
	c.JSON(http.StatusOK, dto.ListPaymentMethodsResponse{Items: items})
}

// @Summary Set an account's default payment method
// @Tags PaymentMethods
// @Produce json
// @Param id path string true "Account ID"
// @Param pm_id path string true "Payment Method ID"
// @Success 204
// @Router /accounts/{id}/payment-methods/{pm_id}/default [post]
func (h *PaymentMethodHandler) SetDefault(c *gin.Context) {
	if err := h.methods.SetDefault(c.Request.Context(), c.Param("id"), c.Param("pm_id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Remove a payment method
// @Tags PaymentMethods
// @Produce json
// @Param id path string true "Payment Method ID"
// @Success 204
// @Router /payment-methods/{id} [delete]
func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	if err := h.methods.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
