package ent

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/ent"
	entusagerecord "github.com/sugu-inc/modern-billing/ent/usagerecord"
	domainusage "github.com/sugu-inc/modern-billing/internal/domain/usage"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type usageRecordRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewUsageRecordRepository(client postgres.IClient, logger *logger.Logger) domainusage.Repository {
	return &usageRecordRepository{client: client, logger: logger}
}

func (r *usageRecordRepository) Create(ctx context.Context, rec *domainusage.Record) error {
	client := r.client.Querier(ctx)
	_, err := client.UsageRecord.Create().
		SetID(rec.ID).
		SetSubscriptionID(rec.SubscriptionID).
		SetMetric(rec.Metric).
		SetQuantity(rec.Quantity).
		SetTimestamp(rec.Timestamp).
		SetIdempotencyKey(rec.IdempotencyKey).
		SetReceivedAt(rec.ReceivedAt).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return ierr.WithError(err).WithHint("this usage event was already recorded").Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).WithHint("failed to record usage").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *usageRecordRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domainusage.Record, error) {
	row, err := r.client.Querier(ctx).UsageRecord.Query().Where(entusagerecord.IdempotencyKey(key)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, ierr.WithError(err).WithHint("failed to get usage record by idempotency key").Mark(ierr.ErrDatabase)
	}
	return fromEntUsageRecord(row), nil
}

func (r *usageRecordRepository) Sum(ctx context.Context, subscriptionID, metric string, from, to time.Time) (int64, error) {
	rows, err := r.client.Querier(ctx).UsageRecord.Query().
		Where(
			entusagerecord.SubscriptionID(subscriptionID),
			entusagerecord.Metric(metric),
			entusagerecord.TimestampGTE(from),
			entusagerecord.TimestampLT(to),
		).
		All(ctx)
	if err != nil {
		return 0, ierr.WithError(err).WithHint("failed to sum usage").Mark(ierr.ErrDatabase)
	}
	var total int64
	for _, row := range rows {
		total += row.Quantity
	}
	return total, nil
}

func (r *usageRecordRepository) ListMetrics(ctx context.Context, subscriptionID string, from, to time.Time) ([]string, error) {
	rows, err := r.client.Querier(ctx).UsageRecord.Query().
		Where(
			entusagerecord.SubscriptionID(subscriptionID),
			entusagerecord.TimestampGTE(from),
			entusagerecord.TimestampLT(to),
		).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list usage metrics").Mark(ierr.ErrDatabase)
	}
	seen := make(map[string]bool)
	var metrics []string
	for _, row := range rows {
		if !seen[row.Metric] {
			seen[row.Metric] = true
			metrics = append(metrics, row.Metric)
		}
	}
	return metrics, nil
}

func (r *usageRecordRepository) ListLate(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) ([]*domainusage.Record, error) {
	rows, err := r.client.Querier(ctx).UsageRecord.Query().
		Where(
			entusagerecord.SubscriptionID(subscriptionID),
			entusagerecord.TimestampGTE(periodStart),
			entusagerecord.TimestampLT(periodEnd),
			entusagerecord.ReceivedAtGT(periodEnd),
		).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list late usage").Mark(ierr.ErrDatabase)
	}
	return fromEntUsageRecords(rows), nil
}

func (r *usageRecordRepository) List(ctx context.Context, filter *types.UsageFilter) ([]*domainusage.Record, error) {
	q := r.client.Querier(ctx).UsageRecord.Query()
	if filter != nil {
		if filter.SubscriptionID != "" {
			q = q.Where(entusagerecord.SubscriptionID(filter.SubscriptionID))
		}
		if filter.Metric != "" {
			q = q.Where(entusagerecord.Metric(filter.Metric))
		}
		if filter.From != nil {
			q = q.Where(entusagerecord.TimestampGTE(*filter.From))
		}
		if filter.To != nil {
			q = q.Where(entusagerecord.TimestampLT(*filter.To))
		}
		if filter.ReceivedAfter != nil {
			q = q.Where(entusagerecord.ReceivedAtGT(*filter.ReceivedAfter))
		}
		q = q.Limit(filter.GetLimit()).Offset(filter.GetOffset())
	}
	rows, err := q.All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list usage records").Mark(ierr.ErrDatabase)
	}
	return fromEntUsageRecords(rows), nil
}

func fromEntUsageRecords(rows []*ent.UsageRecord) []*domainusage.Record {
	out := make([]*domainusage.Record, len(rows))
	for i, row := range rows {
		out[i] = fromEntUsageRecord(row)
	}
	return out
}

func fromEntUsageRecord(e *ent.UsageRecord) *domainusage.Record {
	return &domainusage.Record{
		ID:             e.ID,
		SubscriptionID: e.SubscriptionID,
		Metric:         e.Metric,
		Quantity:       e.Quantity,
		Timestamp:      e.Timestamp,
		IdempotencyKey: e.IdempotencyKey,
		ReceivedAt:     e.ReceivedAt,
	}
}
