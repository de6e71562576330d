package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/internal/api/dto"
	"github.com/sugu-inc/modern-billing/internal/cache"
	"github.com/sugu-inc/modern-billing/internal/domain/account"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/types"
	"github.com/sugu-inc/modern-billing/internal/validator"
)

// AccountHandler exposes the Account aggregate (spec.md §3). Accounts carry
// no lifecycle machinery of their own beyond the dunning status gate, so
// this handler talks to the repository directly rather than through a
// service, mirroring the teacher's thin-CRUD handlers for leaf entities.
// Get is read-through cached; every write invalidates the entry.
type AccountHandler struct {
	accounts account.Repository
	cache    *cache.Cache
	logger   *logger.Logger
}

func NewAccountHandler(accounts account.Repository, c *cache.Cache, log *logger.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, cache: c, logger: log}
}

// @Summary Create an account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param account body dto.CreateAccountRequest true "Account to create"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(req); err != nil {
		c.Error(err)
		return
	}

	now := time.Now().UTC()
	acc := &account.Account{
		ID:            idgen.NewUUID(),
		Email:         req.Email,
		Name:          req.Name,
		Currency:      req.Currency,
		Timezone:      req.Timezone,
		TaxExempt:     req.TaxExempt,
		TaxID:         req.TaxID,
		VatID:         req.VatID,
		AccountStatus: types.AccountStatusActive,
		Metadata:      req.Metadata,
		BaseModel:     types.NewBaseModel(now, "api"),
	}
	if err := acc.Validate(); err != nil {
		c.Error(err)
		return
	}
	if err := h.accounts.Create(c.Request.Context(), acc); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAccountResponse(acc))
}

// @Summary Get an account
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	id := c.Param("id")
	key := cache.PrefixAccount + id

	var acc account.Account
	if h.cache.Get(c.Request.Context(), key, &acc) {
		c.JSON(http.StatusOK, dto.NewAccountResponse(&acc))
		return
	}

	got, err := h.accounts.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	h.cache.Set(c.Request.Context(), key, got)
	c.JSON(http.StatusOK, dto.NewAccountResponse(got))
}

// @Summary Update an account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param account body dto.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	acc, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if req.Name != nil {
		acc.Name = *req.Name
	}
	if req.TaxExempt != nil {
		acc.TaxExempt = *req.TaxExempt
	}
	if req.TaxID != nil {
		acc.TaxID = *req.TaxID
	}
	if req.VatID != nil {
		acc.VatID = *req.VatID
	}
	if req.Metadata != nil {
		acc.Metadata = req.Metadata
	}
	acc.UpdatedAt = time.Now().UTC()
	if err := acc.Validate(); err != nil {
		c.Error(err)
		return
	}
	if err := h.accounts.Update(c.Request.Context(), acc); err != nil {
		c.Error(err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), cache.PrefixAccount+acc.ID)
	c.JSON(http.StatusOK, dto.NewAccountResponse(acc))
}

// @Summary Set an account's dunning status
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param status body dto.UpdateAccountStatusRequest true "New status"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /accounts/{id}/status [put]
func (h *AccountHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateAccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request body").Mark(ierr.ErrValidation))
		return
	}
	if err := h.accounts.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		c.Error(err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), cache.PrefixAccount+c.Param("id"))
	acc, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAccountResponse(acc))
}

// @Summary List accounts
// @Tags Accounts
// @Produce json
// @Success 200 {object} dto.ListAccountsResponse
// @Router /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	accounts, err := h.accounts.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]*dto.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, dto.NewAccountResponse(a))
	}
	c.JSON(http.StatusOK, dto.ListAccountsResponse{Items: items})
}
