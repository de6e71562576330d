package ent

import (
	"context"

	"github.com/sugu-inc/modern-billing/ent"
	entpaymentmethod "github.com/sugu-inc/modern-billing/ent/paymentmethod"
	domainpm "github.com/sugu-inc/modern-billing/internal/domain/paymentmethod"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type paymentMethodRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPaymentMethodRepository(client postgres.IClient, logger *logger.Logger) domainpm.Repository {
	return &paymentMethodRepository{client: client, logger: logger}
}

func (r *paymentMethodRepository) Create(ctx context.Context, pm *domainpm.PaymentMethod) error {
	client := r.client.Querier(ctx)
	_, err := client.PaymentMethod.Create().
		SetID(pm.ID).
		SetAccountID(pm.AccountID).
		SetGatewayToken(pm.GatewayToken).
		SetBrand(pm.Brand).
		SetLast4(pm.Last4).
		SetExpiryMonth(pm.ExpiryMonth).
		SetExpiryYear(pm.ExpiryYear).
		SetIsDefault(pm.IsDefault).
		SetStatus(string(pm.BaseModel.Status)).
		SetCreatedAt(pm.CreatedAt).
		SetUpdatedAt(pm.UpdatedAt).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return ierr.WithError(err).WithHint("this gateway token is already registered").Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).WithHint("failed to create payment method").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentMethodRepository) Get(ctx context.Context, id string) (*domainpm.PaymentMethod, error) {
	row, err := r.client.Querier(ctx).PaymentMethod.Query().Where(entpaymentmethod.ID(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return fromEntPaymentMethod(row), nil
}

func (r *paymentMethodRepository) GetDefault(ctx context.Context, accountID string) (*domainpm.PaymentMethod, error) {
	row, err := r.client.Querier(ctx).PaymentMethod.Query().
		Where(entpaymentmethod.AccountID(accountID), entpaymentmethod.IsDefault(true)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return fromEntPaymentMethod(row), nil
}

func (r *paymentMethodRepository) ListByAccount(ctx context.Context, accountID string) ([]*domainpm.PaymentMethod, error) {
	rows, err := r.client.Querier(ctx).PaymentMethod.Query().Where(entpaymentmethod.AccountID(accountID)).All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	out := make([]*domainpm.PaymentMethod, len(rows))
	for i, row := range rows {
		out[i] = fromEntPaymentMethod(row)
	}
	return out, nil
}

// SetDefault performs the transactional swap spec.md §5 fence 5 requires:
// clear any existing default, then set the new one.
func (r *paymentMethodRepository) SetDefault(ctx context.Context, accountID, id string) error {
	pg, ok := r.client.(*postgres.Client)
	if !ok {
		return r.setDefault(ctx, accountID, id)
	}
	return pg.WithTx(ctx, func(ctx context.Context) error {
		return r.setDefault(ctx, accountID, id)
	})
}

func (r *paymentMethodRepository) setDefault(ctx context.Context, accountID, id string) error {
	client := r.client.Querier(ctx)
	if _, err := client.PaymentMethod.Update().
		Where(entpaymentmethod.AccountID(accountID), entpaymentmethod.IsDefault(true)).
		SetIsDefault(false).
		Save(ctx); err != nil {
		return ierr.WithError(err).WithHint("failed to clear existing default payment method").Mark(ierr.ErrDatabase)
	}
	if _, err := client.PaymentMethod.UpdateOneID(id).SetIsDefault(true).Save(ctx); err != nil {
		return ierr.WithError(err).WithHint("failed to set default payment method").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentMethodRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Querier(ctx).PaymentMethod.DeleteOneID(id).Exec(ctx); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return nil
}

func fromEntPaymentMethod(e *ent.PaymentMethod) *domainpm.PaymentMethod {
	return &domainpm.PaymentMethod{
		ID:           e.ID,
		AccountID:    e.AccountID,
		GatewayToken: e.GatewayToken,
		Brand:        e.Brand,
		Last4:        e.Last4,
		ExpiryMonth:  e.ExpiryMonth,
		ExpiryYear:   e.ExpiryYear,
		IsDefault:    e.IsDefault,
		BaseModel: types.BaseModel{
			Status:    types.Status(e.Status),
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
	}
}
