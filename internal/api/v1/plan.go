package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/internal/api/dto"
	"github.com/sugu-inc/modern-billing/internal/cache"
	"github.com/sugu-inc/modern-billing/internal/domain/plan"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/types"
	"github.com/sugu-inc/modern-billing/internal/validator"
)

// PlanHandler exposes the immutable, versioned Plan aggregate (spec.md §3:
// "Plans are immutable once referenced"). There is no Update endpoint by
// design — Deactivate is the only mutation a published plan ever gets. Get
// is read-through cached; Deactivate invalidates the entry.
type PlanHandler struct {
	plans  plan.Repository
	cache  *cache.Cache
	logger *logger.Logger
}

func NewPlanHandler(plans plan.Repository, c *cache.Cache, log *logger.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, cache: c, logger: log}
}

// @Summary Create a plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param plan body dto.CreatePlanRequest true "Plan to create"
// @Success 201 {object} dto.PlanResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(req); err != nil {
		c.Error(err)
		return
	}

	tiers := make([]plan.Tier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		tiers = append(tiers, plan.Tier{UpTo: t.UpTo, UnitAmount: t.UnitAmount})
	}

	now := time.Now().UTC()
	p := &plan.Plan{
		ID:        idgen.NewUUID(),
		Name:      req.Name,
		Interval:  req.Interval,
		Amount:    req.Amount,
		Currency:  req.Currency,
		TrialDays: req.TrialDays,
		UsageType: req.UsageType,
		Tiers:     tiers,
		Active:    true,
		Version:   1,
		BaseModel: types.NewBaseModel(now, "api"),
	}
	if err := p.Validate(); err != nil {
		c.Error(err)
		return
	}
	if err := h.plans.Create(c.Request.Context(), p); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewPlanResponse(p))
}

// @Summary Get a plan
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} dto.PlanResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /plans/{id} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	id := c.Param("id")
	key := cache.PrefixPlan + id

	var p plan.Plan
	if h.cache.Get(c.Request.Context(), key, &p) {
		c.JSON(http.StatusOK, dto.NewPlanResponse(&p))
		return
	}

	got, err := h.plans.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	h.cache.Set(c.Request.Context(), key, got)
	c.JSON(http.StatusOK, dto.NewPlanResponse(got))
}

// @Summary List active plans
// @Tags Plans
// @Produce json
// @Success 200 {object} dto.ListPlansResponse
// @Router /plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.plans.ListActive(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		items = append(items, dto.NewPlanResponse(p))
	}
	c.JSON(http.StatusOK, dto.ListPlansResponse{Items: items})
}

// @Summary Deactivate a plan
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Router /plans/{id}/deactivate [post]
func (h *PlanHandler) Deactivate(c *gin.Context) {
	if err := h.plans.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), cache.PrefixPlan+c.Param("id"))
	c.Status(http.StatusNoContent)
}
