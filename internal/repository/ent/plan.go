package ent

import (
	"context"

	"github.com/sugu-inc/modern-billing/ent"
	entplan "github.com/sugu-inc/modern-billing/ent/plan"
	domainplan "github.com/sugu-inc/modern-billing/internal/domain/plan"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type planRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) domainplan.Repository {
	return &planRepository{client: client, logger: logger}
}

func (r *planRepository) Create(ctx context.Context, p *domainplan.Plan) error {
	client := r.client.Querier(ctx)
	_, err := client.Plan.Create().
		SetID(p.ID).
		SetName(p.Name).
		SetInterval(string(p.Interval)).
		SetAmount(p.Amount).
		SetCurrency(p.Currency).
		SetTrialDays(p.TrialDays).
		SetUsageType(string(p.UsageType)).
		SetTiers(toEntTiers(p.Tiers)).
		SetActive(p.Active).
		SetVersion(p.Version).
		SetStatus(string(p.BaseModel.Status)).
		SetCreatedAt(p.CreatedAt).
		SetUpdatedAt(p.UpdatedAt).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return ierr.WithError(err).WithHint("a plan with this id already exists").Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).WithHint("failed to create plan").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*domainplan.Plan, error) {
	row, err := r.client.Querier(ctx).Plan.Query().Where(entplan.ID(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ierr.WithError(err).WithHint("plan not found").Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("failed to get plan").Mark(ierr.ErrDatabase)
	}
	return fromEntPlan(row), nil
}

func (r *planRepository) ListActive(ctx context.Context) ([]*domainplan.Plan, error) {
	rows, err := r.client.Querier(ctx).Plan.Query().Where(entplan.Active(true)).All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list active plans").Mark(ierr.ErrDatabase)
	}
	out := make([]*domainplan.Plan, len(rows))
	for i, row := range rows {
		out[i] = fromEntPlan(row)
	}
	return out, nil
}

func (r *planRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.client.Querier(ctx).Plan.UpdateOneID(id).SetActive(false).Save(ctx); err != nil {
		return ierr.WithError(err).WithHint("failed to deactivate plan").Mark(ierr.ErrDatabase)
	}
	return nil
}

func toEntTiers(tiers []domainplan.Tier) []struct {
	UpTo       *int64 `json:"up_to"`
	UnitAmount int64  `json:"unit_amount"`
} {
	out := make([]struct {
		UpTo       *int64 `json:"up_to"`
		UnitAmount int64  `json:"unit_amount"`
	}, len(tiers))
	for i, t := range tiers {
		out[i].UpTo = t.UpTo
		out[i].UnitAmount = t.UnitAmount
	}
	return out
}

func fromEntPlan(e *ent.Plan) *domainplan.Plan {
	tiers := make([]domainplan.Tier, len(e.Tiers))
	for i, t := range e.Tiers {
		tiers[i] = domainplan.Tier{UpTo: t.UpTo, UnitAmount: t.UnitAmount}
	}
	return &domainplan.Plan{
		ID:        e.ID,
		Name:      e.Name,
		Interval:  types.BillingInterval(e.Interval),
		Amount:    e.Amount,
		Currency:  e.Currency,
		TrialDays: e.TrialDays,
		UsageType: types.UsageType(e.UsageType),
		Tiers:     tiers,
		Active:    e.Active,
		Version:   e.Version,
		BaseModel: types.BaseModel{
			Status:    types.Status(e.Status),
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
	}
}
