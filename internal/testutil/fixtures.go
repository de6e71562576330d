package testutil

import (
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/account"
	"github.com/sugu-inc/modern-billing/internal/domain/plan"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// NewTestAccount builds a valid, active Account for service-level tests.
func NewTestAccount(now time.Time) *account.Account {
	return &account.Account{
		ID:            idgen.NewUUID(),
		Email:         "billing@example.com",
		Name:          "Test Account",
		Currency:      "USD",
		AccountStatus: types.AccountStatusActive,
		BaseModel:     types.NewBaseModel(now, "test"),
	}
}

// NewTestPlan builds a valid, active flat-rate Plan for service-level
// tests. Pass tiers/usageType to exercise metered pricing.
func NewTestPlan(now time.Time, amount int64) *plan.Plan {
	return &plan.Plan{
		ID:        idgen.NewUUID(),
		Name:      "Test Plan",
		Interval:  types.BillingIntervalMonth,
		Amount:    amount,
		Currency:  "USD",
		Active:    true,
		Version:   1,
		BaseModel: types.NewBaseModel(now, "test"),
	}
}
