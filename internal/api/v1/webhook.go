package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/internal/api/dto"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/service"
	"github.com/sugu-inc/modern-billing/internal/validator"
)

// WebhookHandler exposes the store-backed WebhookEndpoint entity (spec.md
// §9's redesign of the in-process registry) over HTTP.
type WebhookHandler struct {
	service *service.WebhookService
	logger  *logger.Logger
}

func NewWebhookHandler(svc *service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: svc, logger: log}
}

// @Summary Register a webhook endpoint
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param endpoint body dto.RegisterEndpointRequest true "Endpoint to register"
// @Success 201 {object} dto.EndpointResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /webhooks/endpoints [post]
func (h *WebhookHandler) RegisterEndpoint(c *gin.Context) {
	var req dto.RegisterEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(req); err != nil {
		c.Error(err)
		return
	}

	ep, err := h.service.RegisterEndpoint(c.Request.Context(), req.URL, req.Events)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewEndpointResponse(ep))
}
