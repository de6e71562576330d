package ent

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/ent"
	entinvoice "github.com/sugu-inc/modern-billing/ent/invoice"
	entinvoicecounter "github.com/sugu-inc/modern-billing/ent/invoicecounter"
	domaininvoice "github.com/sugu-inc/modern-billing/internal/domain/invoice"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// invoiceCounterRowID is the single row invoice-number allocation counts
// against (spec.md §5 fence 3).
const invoiceCounterRowID = 1

type invoiceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) domaininvoice.Repository {
	return &invoiceRepository{client: client, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *domaininvoice.Invoice) error {
	client := r.client.Querier(ctx)
	create := client.Invoice.Create().
		SetID(inv.ID).
		SetAccountID(inv.AccountID).
		SetNillableSubscriptionID(inv.SubscriptionID).
		SetNumber(inv.Number).
		SetInvoiceStatus(string(inv.Status)).
		SetAmountDue(inv.AmountDue).
		SetAmountPaid(inv.AmountPaid).
		SetTax(inv.Tax).
		SetCurrency(inv.Currency).
		SetDueDate(inv.DueDate).
		SetNillablePaidAt(inv.PaidAt).
		SetNillableVoidedAt(inv.VoidedAt).
		SetLineItems(toEntLineItems(inv.LineItems)).
		SetNillablePeriodStart(inv.PeriodStart).
		SetNillablePeriodEnd(inv.PeriodEnd).
		SetMetadata(inv.Metadata).
		SetStatus(string(inv.BaseModel.Status)).
		SetCreatedAt(inv.CreatedAt).
		SetUpdatedAt(inv.UpdatedAt)
	if _, err := create.Save(ctx); err != nil {
		if ent.IsConstraintError(err) {
			return ierr.WithError(err).WithHint("an invoice with this number already exists").Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).WithHint("failed to create invoice").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*domaininvoice.Invoice, error) {
	row, err := r.client.Querier(ctx).Invoice.Query().Where(entinvoice.ID(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ierr.WithError(err).WithHint("invoice not found").Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("failed to get invoice").Mark(ierr.ErrDatabase)
	}
	return fromEntInvoice(row), nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *domaininvoice.Invoice) error {
	client := r.client.Querier(ctx)
	update := client.Invoice.UpdateOneID(inv.ID).
		SetInvoiceStatus(string(inv.Status)).
		SetAmountDue(inv.AmountDue).
		SetAmountPaid(inv.AmountPaid).
		SetTax(inv.Tax).
		SetNillablePaidAt(inv.PaidAt).
		SetNillableVoidedAt(inv.VoidedAt).
		SetLineItems(toEntLineItems(inv.LineItems)).
		SetMetadata(inv.Metadata).
		SetUpdatedAt(inv.UpdatedAt)
	if _, err := update.Save(ctx); err != nil {
		return ierr.WithError(err).WithHint("failed to update invoice").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*domaininvoice.Invoice, error) {
	q := r.client.Querier(ctx).Invoice.Query()
	if filter != nil {
		if filter.AccountID != "" {
			q = q.Where(entinvoice.AccountID(filter.AccountID))
		}
		if filter.SubscriptionID != "" {
			q = q.Where(entinvoice.SubscriptionID(filter.SubscriptionID))
		}
		if len(filter.Statuses) > 0 {
			statuses := make([]string, len(filter.Statuses))
			for i, s := range filter.Statuses {
				statuses[i] = string(s)
			}
			q = q.Where(entinvoice.InvoiceStatusIn(statuses...))
		}
		if filter.DueBefore != nil {
			q = q.Where(entinvoice.DueDateLT(*filter.DueBefore))
		}
		q = q.Limit(filter.GetLimit()).Offset(filter.GetOffset())
	}
	rows, err := q.All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list invoices").Mark(ierr.ErrDatabase)
	}
	return fromEntInvoices(rows), nil
}

func (r *invoiceRepository) ExistsForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error) {
	exists, err := r.client.Querier(ctx).Invoice.Query().
		Where(
			entinvoice.SubscriptionID(subscriptionID),
			entinvoice.PeriodStart(periodStart),
			entinvoice.InvoiceStatusNEQ(string(types.InvoiceStatusVoid)),
		).
		Exist(ctx)
	if err != nil {
		return false, ierr.WithError(err).WithHint("failed to check existing invoice for period").Mark(ierr.ErrDatabase)
	}
	return exists, nil
}

// NextInvoiceNumber takes a Postgres advisory lock on the single counter
// row (spec.md §5 fence 3), increments it, and returns the pre-increment
// value to format as INV-{N:06d}. It opens its own pg.WithTx for the lock
// and the counter update.
func (r *invoiceRepository) NextInvoiceNumber(ctx context.Context) (int64, error) {
	pg, ok := r.client.(*postgres.Client)
	if !ok {
		return 0, ierr.NewError("NextInvoiceNumber requires a transactional postgres client").Mark(ierr.ErrSystem)
	}
	var next int64
	err := pg.WithTx(ctx, func(ctx context.Context) error {
		if err := pg.LockWithWait(ctx, postgres.LockRequest{Key: "invoice_counter"}); err != nil {
			return ierr.WithError(err).WithHint("failed to acquire invoice counter lock").Mark(ierr.ErrDatabase)
		}
		client := r.client.Querier(ctx)
		row, err := client.InvoiceCounter.Query().Where(entinvoicecounter.ID(invoiceCounterRowID)).Only(ctx)
		if ent.IsNotFound(err) {
			row, err = client.InvoiceCounter.Create().SetID(invoiceCounterRowID).SetNextValue(1).Save(ctx)
		}
		if err != nil {
			return ierr.WithError(err).WithHint("failed to read invoice counter").Mark(ierr.ErrDatabase)
		}
		next = row.NextValue
		if _, err := client.InvoiceCounter.UpdateOneID(invoiceCounterRowID).SetNextValue(next + 1).Save(ctx); err != nil {
			return ierr.WithError(err).WithHint("failed to advance invoice counter").Mark(ierr.ErrDatabase)
		}
		return nil
	})
	return next, err
}

func (r *invoiceRepository) DueForOverdueSweep(ctx context.Context, now time.Time, limit int) ([]*domaininvoice.Invoice, error) {
	rows, err := r.client.Querier(ctx).Invoice.Query().
		Where(
			entinvoice.InvoiceStatus(string(types.InvoiceStatusOpen)),
			entinvoice.DueDateLT(now),
		).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query overdue invoices").Mark(ierr.ErrDatabase)
	}
	return fromEntInvoices(rows), nil
}

func (r *invoiceRepository) DueForDunning(ctx context.Context, now time.Time, limit int) ([]*domaininvoice.Invoice, error) {
	rows, err := r.client.Querier(ctx).Invoice.Query().
		Where(
			entinvoice.InvoiceStatusIn(string(types.InvoiceStatusOpen), string(types.InvoiceStatusPastDue)),
			entinvoice.DueDateLT(now),
		).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query dunning-eligible invoices").Mark(ierr.ErrDatabase)
	}
	return fromEntInvoices(rows), nil
}

func (r *invoiceRepository) OpenOrPastDueCount(ctx context.Context, accountID string) (int, error) {
	count, err := r.client.Querier(ctx).Invoice.Query().
		Where(
			entinvoice.AccountID(accountID),
			entinvoice.InvoiceStatusIn(string(types.InvoiceStatusOpen), string(types.InvoiceStatusPastDue)),
		).
		Count(ctx)
	if err != nil {
		return 0, ierr.WithError(err).WithHint("failed to count open/past-due invoices").Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *invoiceRepository) RecentlyClosed(ctx context.Context, since, now time.Time, limit int) ([]*domaininvoice.Invoice, error) {
	rows, err := r.client.Querier(ctx).Invoice.Query().
		Where(
			entinvoice.InvoiceStatusNEQ(string(types.InvoiceStatusVoid)),
			entinvoice.PeriodEndGTE(since),
			entinvoice.PeriodEndLTE(now),
		).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query recently closed invoices").Mark(ierr.ErrDatabase)
	}
	return fromEntInvoices(rows), nil
}

func toEntLineItems(items []domaininvoice.LineItem) []struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Quantity    int64  `json:"quantity"`
	Type        string `json:"type"`
} {
	out := make([]struct {
		Description string `json:"description"`
		Amount      int64  `json:"amount"`
		Quantity    int64  `json:"quantity"`
		Type        string `json:"type"`
	}, len(items))
	for i, li := range items {
		out[i].Description = li.Description
		out[i].Amount = li.Amount
		out[i].Quantity = li.Quantity
		out[i].Type = string(li.Type)
	}
	return out
}

func fromEntInvoices(rows []*ent.Invoice) []*domaininvoice.Invoice {
	out := make([]*domaininvoice.Invoice, len(rows))
	for i, row := range rows {
		out[i] = fromEntInvoice(row)
	}
	return out
}

func fromEntInvoice(e *ent.Invoice) *domaininvoice.Invoice {
	items := make([]domaininvoice.LineItem, len(e.LineItems))
	for i, li := range e.LineItems {
		items[i] = domaininvoice.LineItem{
			Description: li.Description,
			Amount:      li.Amount,
			Quantity:    li.Quantity,
			Type:        types.LineItemType(li.Type),
		}
	}
	return &domaininvoice.Invoice{
		ID:             e.ID,
		AccountID:      e.AccountID,
		SubscriptionID: e.SubscriptionID,
		Number:         e.Number,
		Status:         types.InvoiceStatus(e.InvoiceStatus),
		AmountDue:      e.AmountDue,
		AmountPaid:     e.AmountPaid,
		Tax:            e.Tax,
		Currency:       e.Currency,
		DueDate:        e.DueDate,
		PaidAt:         e.PaidAt,
		VoidedAt:       e.VoidedAt,
		LineItems:      items,
		PeriodStart:    e.PeriodStart,
		PeriodEnd:      e.PeriodEnd,
		Metadata:       e.Metadata,
		BaseModel: types.BaseModel{
			Status:    types.Status(e.Status),
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
	}
}
