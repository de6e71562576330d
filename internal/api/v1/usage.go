package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/internal/api/dto"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/service"
	"github.com/sugu-inc/modern-billing/internal/validator"
)

// UsageHandler exposes the Usage Recorder (spec.md §4.7) over HTTP.
type UsageHandler struct {
	service *service.UsageService
	logger  *logger.Logger
}

func NewUsageHandler(svc *service.UsageService, log *logger.Logger) *UsageHandler {
	return &UsageHandler{service: svc, logger: log}
}

// @Summary Record a metered usage event
// @Tags Usage
// @Accept json
// @Produce json
// @Param usage body dto.RecordUsageRequest true "Usage event"
// @Success 201 {object} dto.UsageRecordResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /usage [post]
func (h *UsageHandler) Record(c *gin.Context) {
	var req dto.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(req); err != nil {
		c.Error(err)
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	rec, err := h.service.Record(c.Request.Context(), req.ToService())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUsageRecordResponse(rec))
}

// @Summary Sum recorded usage for a subscription/metric over a window
// @Tags Usage
// @Produce json
// @Param subscription_id query string true "Subscription ID"
// @Param metric query string true "Metric name"
// @Param from query string true "Window start, RFC3339"
// @Param to query string true "Window end, RFC3339"
// @Success 200 {object} dto.UsageSummaryResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /usage/summary [get]
func (h *UsageHandler) Summary(c *gin.Context) {
	subscriptionID := c.Query("subscription_id")
	metric := c.Query("metric")
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("from must be an RFC3339 timestamp").Mark(ierr.ErrValidation))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("to must be an RFC3339 timestamp").Mark(ierr.ErrValidation))
		return
	}

	total, err := h.service.Sum(c.Request.Context(), subscriptionID, metric, from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.UsageSummaryResponse{SubscriptionID: subscriptionID, Metric: metric, Total: total})
}
