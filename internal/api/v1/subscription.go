package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/internal/api/dto"
	"github.com/sugu-inc/modern-billing/internal/domain/subscription"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/service"
	"github.com/sugu-inc/modern-billing/internal/types"
	"github.com/sugu-inc/modern-billing/internal/validator"
)

// SubscriptionHandler exposes the subscription lifecycle state machine
// (spec.md §4.1) over HTTP. Reads go straight to the repository (Get/List
// carry no business logic); every write goes through SubscriptionService
// so the state-machine and account-gate checks always run.
type SubscriptionHandler struct {
	service *service.SubscriptionService
	subs    subscription.Repository
	logger  *logger.Logger
}

func NewSubscriptionHandler(svc *service.SubscriptionService, subs subscription.Repository, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc, subs: subs, logger: log}
}

// @Summary Create a subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.CreateSubscriptionRequest true "Subscription to create"
// @Success 201 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(req); err != nil {
		c.Error(err)
		return
	}

	sub, err := h.service.Create(c.Request.Context(), req.ToService())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSubscriptionResponse(sub))
}

// @Summary Get a subscription
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /subscriptions/{id} [get]
func (h *SubscriptionHandler) Get(c *gin.Context) {
	sub, err := h.subs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubscriptionResponse(sub))
}

// @Summary Update a subscription's quantity or cancel_at_period_end flag
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param subscription body dto.UpdateSubscriptionRequest true "Fields to update"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /subscriptions/{id} [patch]
func (h *SubscriptionHandler) Update(c *gin.Context) {
	var req dto.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	sub, err := h.service.Update(c.Request.Context(), c.Param("id"), req.ToService())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubscriptionResponse(sub))
}

// @Summary Cancel a subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param cancel body dto.CancelSubscriptionRequest true "Cancellation timing"
// @Success 200 {object} dto.SubscriptionResponse
// @Router /subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	var req dto.CancelSubscriptionRequest
	_ = c.ShouldBindJSON(&req)
	sub, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req.Immediate)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubscriptionResponse(sub))
}

// @Summary Pause a subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param pause body dto.PauseSubscriptionRequest true "Resume time"
// @Success 200 {object} dto.SubscriptionResponse
// @Router /subscriptions/{id}/pause [post]
func (h *SubscriptionHandler) Pause(c *gin.Context) {
	var req dto.PauseSubscriptionRequest
	_ = c.ShouldBindJSON(&req)
	sub, err := h.service.Pause(c.Request.Context(), c.Param("id"), req.ResumesAt)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubscriptionResponse(sub))
}

// @Summary Resume a paused subscription
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.SubscriptionResponse
// @Router /subscriptions/{id}/resume [post]
func (h *SubscriptionHandler) Resume(c *gin.Context) {
	sub, err := h.service.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubscriptionResponse(sub))
}

// @Summary Change a subscription's plan, immediately or at period end
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param change body dto.ChangePlanRequest true "Target plan and timing"
// @Success 200 {object} dto.ChangePlanResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /subscriptions/{id}/change-plan [post]
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(req); err != nil {
		c.Error(err)
		return
	}

	result, err := h.service.ChangePlan(c.Request.Context(), c.Param("id"), req.NewPlanID, req.Timing, req.Quantity)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewChangePlanResponse(result))
}

// @Summary List subscriptions for an account
// @Tags Subscriptions
// @Produce json
// @Param account_id query string false "Account ID"
// @Success 200 {object} dto.ListSubscriptionsResponse
// @Router /subscriptions [get]
func (h *SubscriptionHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	filter := &types.SubscriptionFilter{
		Pagination: types.Pagination{Limit: limit, Offset: offset},
		AccountID:  c.Query("account_id"),
	}
	subs, err := h.subs.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]*dto.SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		items = append(items, dto.NewSubscriptionResponse(s))
	}
	c.JSON(http.StatusOK, dto.ListSubscriptionsResponse{Items: items})
}
