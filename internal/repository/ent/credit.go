package ent

import (
	"context"

	"github.com/sugu-inc/modern-billing/ent"
	entcredit "github.com/sugu-inc/modern-billing/ent/credit"
	domaincredit "github.com/sugu-inc/modern-billing/internal/domain/credit"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type creditRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewCreditRepository(client postgres.IClient, logger *logger.Logger) domaincredit.Repository {
	return &creditRepository{client: client, logger: logger}
}

func (r *creditRepository) Create(ctx context.Context, c *domaincredit.Credit) error {
	client := r.client.Querier(ctx)
	_, err := client.Credit.Create().
		SetID(c.ID).
		SetAccountID(c.AccountID).
		SetAmount(c.Amount).
		SetCurrency(c.Currency).
		SetReason(string(c.Reason)).
		SetNillableExpiresAt(c.ExpiresAt).
		SetNillableAppliedToInvoiceID(c.AppliedToInvoiceID).
		SetNillableAppliedAt(c.AppliedAt).
		SetStatus(string(c.BaseModel.Status)).
		SetCreatedAt(c.CreatedAt).
		SetUpdatedAt(c.UpdatedAt).
		Save(ctx)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to create credit").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *creditRepository) Get(ctx context.Context, id string) (*domaincredit.Credit, error) {
	row, err := r.client.Querier(ctx).Credit.Query().Where(entcredit.ID(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ierr.WithError(err).WithHint("credit not found").Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("failed to get credit").Mark(ierr.ErrDatabase)
	}
	return fromEntCredit(row), nil
}

func (r *creditRepository) Update(ctx context.Context, c *domaincredit.Credit) error {
	client := r.client.Querier(ctx)
	update := client.Credit.UpdateOneID(c.ID).
		SetNillableAppliedToInvoiceID(c.AppliedToInvoiceID).
		SetNillableAppliedAt(c.AppliedAt).
		SetUpdatedAt(c.UpdatedAt)
	if _, err := update.Save(ctx); err != nil {
		return ierr.WithError(err).WithHint("failed to update credit").Mark(ierr.ErrDatabase)
	}
	return nil
}

// ListAvailable returns unapplied credits ordered oldest-first (spec.md
// §4.5 FIFO application order). Expiry is not filtered here;
// CreditService.ApplyAvailable skips expired rows.
func (r *creditRepository) ListAvailable(ctx context.Context, accountID, currency string) ([]*domaincredit.Credit, error) {
	rows, err := r.client.Querier(ctx).Credit.Query().
		Where(
			entcredit.AccountID(accountID),
			entcredit.Currency(currency),
			entcredit.AppliedToInvoiceIDIsNil(),
		).
		Order(ent.Asc(entcredit.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list available credits").Mark(ierr.ErrDatabase)
	}
	return fromEntCredits(rows), nil
}

func (r *creditRepository) List(ctx context.Context, filter *types.CreditFilter) ([]*domaincredit.Credit, error) {
	q := r.client.Querier(ctx).Credit.Query()
	if filter != nil {
		if filter.AccountID != "" {
			q = q.Where(entcredit.AccountID(filter.AccountID))
		}
		if filter.Currency != "" {
			q = q.Where(entcredit.Currency(filter.Currency))
		}
		if filter.Available != nil {
			if *filter.Available {
				q = q.Where(entcredit.AppliedToInvoiceIDIsNil())
			} else {
				q = q.Where(entcredit.AppliedToInvoiceIDNotNil())
			}
		}
		q = q.Limit(filter.GetLimit()).Offset(filter.GetOffset())
	}
	rows, err := q.All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list credits").Mark(ierr.ErrDatabase)
	}
	return fromEntCredits(rows), nil
}

func fromEntCredits(rows []*ent.Credit) []*domaincredit.Credit {
	out := make([]*domaincredit.Credit, len(rows))
	for i, row := range rows {
		out[i] = fromEntCredit(row)
	}
	return out
}

func fromEntCredit(e *ent.Credit) *domaincredit.Credit {
	return &domaincredit.Credit{
		ID:                 e.ID,
		AccountID:          e.AccountID,
		Amount:             e.Amount,
		Currency:           e.Currency,
		Reason:             types.CreditReason(e.Reason),
		ExpiresAt:          e.ExpiresAt,
		AppliedToInvoiceID: e.AppliedToInvoiceID,
		AppliedAt:          e.AppliedAt,
		BaseModel: types.BaseModel{
			Status:    types.Status(e.Status),
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
	}
}
