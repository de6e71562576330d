package ent

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/ent"
	entpayment "github.com/sugu-inc/modern-billing/ent/payment"
	domainpayment "github.com/sugu-inc/modern-billing/internal/domain/payment"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type paymentRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) domainpayment.Repository {
	return &paymentRepository{client: client, logger: logger}
}

func (r *paymentRepository) Create(ctx context.Context, p *domainpayment.Payment) error {
	client := r.client.Querier(ctx)
	create := client.Payment.Create().
		SetID(p.ID).
		SetInvoiceID(p.InvoiceID).
		SetAmount(p.Amount).
		SetCurrency(p.Currency).
		SetPaymentStatus(string(p.Status)).
		SetGatewayTxnID(p.GatewayTxnID).
		SetNillablePaymentMethodID(p.PaymentMethodID).
		SetFailureMessage(p.FailureMessage).
		SetIdempotencyKey(p.IdempotencyKey).
		SetRetryCount(p.RetryCount).
		SetNillableNextRetryAt(p.NextRetryAt).
		SetFirstAttemptAt(p.FirstAttemptAt).
		SetStatus(string(p.BaseModel.Status)).
		SetCreatedAt(p.CreatedAt).
		SetUpdatedAt(p.UpdatedAt)
	if _, err := create.Save(ctx); err != nil {
		if ent.IsConstraintError(err) {
			return ierr.WithError(err).WithHint("a payment with this idempotency key already exists").Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).WithHint("failed to create payment").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*domainpayment.Payment, error) {
	row, err := r.client.Querier(ctx).Payment.Query().Where(entpayment.ID(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ierr.WithError(err).WithHint("payment not found").Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("failed to get payment").Mark(ierr.ErrDatabase)
	}
	return fromEntPayment(row), nil
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domainpayment.Payment, error) {
	row, err := r.client.Querier(ctx).Payment.Query().Where(entpayment.IdempotencyKey(key)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, ierr.WithError(err).WithHint("failed to get payment by idempotency key").Mark(ierr.ErrDatabase)
	}
	return fromEntPayment(row), nil
}

func (r *paymentRepository) Update(ctx context.Context, p *domainpayment.Payment) error {
	client := r.client.Querier(ctx)
	update := client.Payment.UpdateOneID(p.ID).
		SetPaymentStatus(string(p.Status)).
		SetGatewayTxnID(p.GatewayTxnID).
		SetNillablePaymentMethodID(p.PaymentMethodID).
		SetFailureMessage(p.FailureMessage).
		SetRetryCount(p.RetryCount).
		SetNillableNextRetryAt(p.NextRetryAt).
		SetUpdatedAt(p.UpdatedAt)
	if p.NextRetryAt == nil {
		update = update.ClearNextRetryAt()
	}
	if _, err := update.Save(ctx); err != nil {
		return ierr.WithError(err).WithHint("failed to update payment").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) List(ctx context.Context, filter *types.PaymentFilter) ([]*domainpayment.Payment, error) {
	q := r.client.Querier(ctx).Payment.Query()
	if filter != nil {
		if filter.InvoiceID != "" {
			q = q.Where(entpayment.InvoiceID(filter.InvoiceID))
		}
		if len(filter.Statuses) > 0 {
			statuses := make([]string, len(filter.Statuses))
			for i, s := range filter.Statuses {
				statuses[i] = string(s)
			}
			q = q.Where(entpayment.PaymentStatusIn(statuses...))
		}
		if filter.RetryDue != nil {
			q = q.Where(entpayment.NextRetryAtLTE(*filter.RetryDue))
		}
		q = q.Limit(filter.GetLimit()).Offset(filter.GetOffset())
	}
	rows, err := q.All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list payments").Mark(ierr.ErrDatabase)
	}
	return fromEntPayments(rows), nil
}

func (r *paymentRepository) DueForRetry(ctx context.Context, now time.Time, limit int) ([]*domainpayment.Payment, error) {
	rows, err := r.client.Querier(ctx).Payment.Query().
		Where(
			entpayment.PaymentStatus(string(types.PaymentStatusFailed)),
			entpayment.NextRetryAtNotNil(),
			entpayment.NextRetryAtLTE(now),
			entpayment.RetryCountLT(domainpayment.MaxRetries),
		).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query retry-due payments").Mark(ierr.ErrDatabase)
	}
	return fromEntPayments(rows), nil
}

func fromEntPayments(rows []*ent.Payment) []*domainpayment.Payment {
	out := make([]*domainpayment.Payment, len(rows))
	for i, row := range rows {
		out[i] = fromEntPayment(row)
	}
	return out
}

func fromEntPayment(e *ent.Payment) *domainpayment.Payment {
	return &domainpayment.Payment{
		ID:              e.ID,
		InvoiceID:       e.InvoiceID,
		Amount:          e.Amount,
		Currency:        e.Currency,
		Status:          types.PaymentStatus(e.PaymentStatus),
		GatewayTxnID:    e.GatewayTxnID,
		PaymentMethodID: e.PaymentMethodID,
		FailureMessage:  e.FailureMessage,
		IdempotencyKey:  e.IdempotencyKey,
		RetryCount:      e.RetryCount,
		NextRetryAt:     e.NextRetryAt,
		FirstAttemptAt:  e.FirstAttemptAt,
		BaseModel: types.BaseModel{
			Status:    types.Status(e.Status),
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
	}
}
