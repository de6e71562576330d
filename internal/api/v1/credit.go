package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/internal/api/dto"
	"github.com/sugu-inc/modern-billing/internal/domain/credit"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/service"
	"github.com/sugu-inc/modern-billing/internal/validator"
)

// CreditHandler exposes the Credit Manager (spec.md §4.5) over HTTP.
type CreditHandler struct {
	service *service.CreditService
	credits credit.Repository
	logger  *logger.Logger
}

func NewCreditHandler(svc *service.CreditService, credits credit.Repository, log *logger.Logger) *CreditHandler {
	return &CreditHandler{service: svc, credits: credits, logger: log}
}

// @Summary Issue a credit to an account
// @Tags Credits
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param credit body dto.IssueCreditRequest true "Credit to issue"
// @Success 201 {object} dto.CreditResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /accounts/{id}/credits [post]
func (h *CreditHandler) Issue(c *gin.Context) {
	var req dto.IssueCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(req); err != nil {
		c.Error(err)
		return
	}

	cr, err := h.service.Issue(c.Request.Context(), c.Param("id"), req.Amount, req.Currency, req.Reason, req.ExpiresAt)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCreditResponse(cr))
}

// @Summary Get a credit
// @Tags Credits
// @Produce json
// @Param id path string true "Credit ID"
// @Success 200 {object} dto.CreditResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /credits/{id} [get]
func (h *CreditHandler) Get(c *gin.Context) {
	cr, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCreditResponse(cr))
}

// @Summary List an account's available credits
// @Tags Credits
// @Produce json
// @Param id path string true "Account ID"
// @Param currency query string true "Currency"
// @Success 200 {object} dto.ListCreditsResponse
// @Router /accounts/{id}/credits [get]
func (h *CreditHandler) ListAvailable(c *gin.Context) {
	credits, err := h.credits.ListAvailable(c.Request.Context(), c.Param("id"), c.Query("currency"))
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]*dto.CreditResponse, 0, len(credits))
	for _, cr := range credits {
		items = append(items, dto.NewCreditResponse(cr))
	}
	c.JSON(http.StatusOK, dto.ListCreditsResponse{Items: items})
}
