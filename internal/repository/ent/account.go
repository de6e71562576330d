package ent

import (
	"context"

	"github.com/sugu-inc/modern-billing/ent"
	entaccount "github.com/sugu-inc/modern-billing/ent/account"
	domainaccount "github.com/sugu-inc/modern-billing/internal/domain/account"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type accountRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewAccountRepository builds the ent-backed account.Repository.
func NewAccountRepository(client postgres.IClient, logger *logger.Logger) domainaccount.Repository {
	return &accountRepository{client: client, logger: logger}
}

func (r *accountRepository) Create(ctx context.Context, a *domainaccount.Account) error {
	client := r.client.Querier(ctx)
	_, err := client.Account.Create().
		SetID(a.ID).
		SetEmail(a.Email).
		SetName(a.Name).
		SetCurrency(a.Currency).
		SetTimezone(a.Timezone).
		SetTaxExempt(a.TaxExempt).
		SetTaxID(a.TaxID).
		SetVatID(a.VatID).
		SetAccountStatus(string(a.AccountStatus)).
		SetMetadata(a.Metadata).
		SetStatus(string(a.BaseModel.Status)).
		SetCreatedBy(a.CreatedBy).
		SetUpdatedBy(a.UpdatedBy).
		SetCreatedAt(a.CreatedAt).
		SetUpdatedAt(a.UpdatedAt).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return ierr.WithError(err).
				WithHint("an account with this email already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).WithHint("failed to create account").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*domainaccount.Account, error) {
	client := r.client.Querier(ctx)
	row, err := client.Account.Query().Where(entaccount.ID(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ierr.WithError(err).WithHint("account not found").Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("failed to get account").Mark(ierr.ErrDatabase)
	}
	return fromEntAccount(row), nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domainaccount.Account, error) {
	client := r.client.Querier(ctx)
	row, err := client.Account.Query().Where(entaccount.Email(email)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ierr.WithError(err).WithHint("account not found").Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("failed to get account by email").Mark(ierr.ErrDatabase)
	}
	return fromEntAccount(row), nil
}

func (r *accountRepository) Update(ctx context.Context, a *domainaccount.Account) error {
	client := r.client.Querier(ctx)
	_, err := client.Account.UpdateOneID(a.ID).
		SetName(a.Name).
		SetTaxExempt(a.TaxExempt).
		SetTaxID(a.TaxID).
		SetVatID(a.VatID).
		SetAccountStatus(string(a.AccountStatus)).
		SetMetadata(a.Metadata).
		SetUpdatedBy(a.UpdatedBy).
		SetUpdatedAt(a.UpdatedAt).
		Save(ctx)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to update account").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *accountRepository) UpdateStatus(ctx context.Context, id string, status types.AccountStatus) error {
	client := r.client.Querier(ctx)
	_, err := client.Account.UpdateOneID(id).SetAccountStatus(string(status)).Save(ctx)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to update account status").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *accountRepository) List(ctx context.Context, limit, offset int) ([]*domainaccount.Account, error) {
	client := r.client.Querier(ctx)
	rows, err := client.Account.Query().Limit(limit).Offset(offset).All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list accounts").Mark(ierr.ErrDatabase)
	}
	out := make([]*domainaccount.Account, len(rows))
	for i, row := range rows {
		out[i] = fromEntAccount(row)
	}
	return out, nil
}

func fromEntAccount(e *ent.Account) *domainaccount.Account {
	return &domainaccount.Account{
		ID:            e.ID,
		Email:         e.Email,
		Name:          e.Name,
		Currency:      e.Currency,
		Timezone:      e.Timezone,
		TaxExempt:     e.TaxExempt,
		TaxID:         e.TaxID,
		VatID:         e.VatID,
		AccountStatus: types.AccountStatus(e.AccountStatus),
		Metadata:      e.Metadata,
		BaseModel: types.BaseModel{
			Status:    types.Status(e.Status),
			CreatedBy: e.CreatedBy,
			UpdatedBy: e.UpdatedBy,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
	}
}
