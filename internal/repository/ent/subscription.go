package ent

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/ent"
	entsubscription "github.com/sugu-inc/modern-billing/ent/subscription"
	entsubscriptionhistory "github.com/sugu-inc/modern-billing/ent/subscriptionhistory"
	domainsubscription "github.com/sugu-inc/modern-billing/internal/domain/subscription"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type subscriptionRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) domainsubscription.Repository {
	return &subscriptionRepository{client: client, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, s *domainsubscription.Subscription) error {
	client := r.client.Querier(ctx)
	create := client.Subscription.Create().
		SetID(s.ID).
		SetAccountID(s.AccountID).
		SetPlanID(s.PlanID).
		SetSubscriptionStatus(string(s.Status)).
		SetQuantity(s.Quantity).
		SetCurrentPeriodStart(s.CurrentPeriodStart).
		SetCurrentPeriodEnd(s.CurrentPeriodEnd).
		SetCancelAtPeriodEnd(s.CancelAtPeriodEnd).
		SetNillableCancelledAt(s.CancelledAt).
		SetNillableTrialEnd(s.TrialEnd).
		SetNillablePauseResumesAt(s.PauseResumesAt).
		SetNillablePausedAt(s.PausedAt).
		SetNillablePendingPlanID(s.PendingPlanID).
		SetStatus(string(s.BaseModel.Status)).
		SetCreatedAt(s.CreatedAt).
		SetUpdatedAt(s.UpdatedAt)
	if _, err := create.Save(ctx); err != nil {
		if ent.IsConstraintError(err) {
			return ierr.WithError(err).WithHint("a subscription with this id already exists").Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).WithHint("failed to create subscription").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*domainsubscription.Subscription, error) {
	row, err := r.client.Querier(ctx).Subscription.Query().Where(entsubscription.ID(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ierr.WithError(err).WithHint("subscription not found").Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("failed to get subscription").Mark(ierr.ErrDatabase)
	}
	return fromEntSubscription(row), nil
}

func (r *subscriptionRepository) Update(ctx context.Context, s *domainsubscription.Subscription) error {
	client := r.client.Querier(ctx)
	update := client.Subscription.UpdateOneID(s.ID).
		SetPlanID(s.PlanID).
		SetSubscriptionStatus(string(s.Status)).
		SetQuantity(s.Quantity).
		SetCurrentPeriodStart(s.CurrentPeriodStart).
		SetCurrentPeriodEnd(s.CurrentPeriodEnd).
		SetCancelAtPeriodEnd(s.CancelAtPeriodEnd).
		SetNillableCancelledAt(s.CancelledAt).
		SetNillableTrialEnd(s.TrialEnd).
		SetNillablePauseResumesAt(s.PauseResumesAt).
		SetNillablePausedAt(s.PausedAt).
		SetNillablePendingPlanID(s.PendingPlanID).
		SetUpdatedAt(s.UpdatedAt)
	if s.CancelledAt == nil {
		update.ClearCancelledAt()
	}
	if s.PauseResumesAt == nil {
		update.ClearPauseResumesAt()
	}
	if s.PausedAt == nil {
		update.ClearPausedAt()
	}
	if s.PendingPlanID == nil {
		update.ClearPendingPlanID()
	}
	if _, err := update.Save(ctx); err != nil {
		return ierr.WithError(err).WithHint("failed to update subscription").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*domainsubscription.Subscription, error) {
	q := r.client.Querier(ctx).Subscription.Query()
	if filter != nil {
		if filter.AccountID != "" {
			q = q.Where(entsubscription.AccountID(filter.AccountID))
		}
		if len(filter.Statuses) > 0 {
			statuses := make([]string, len(filter.Statuses))
			for i, s := range filter.Statuses {
				statuses[i] = string(s)
			}
			q = q.Where(entsubscription.SubscriptionStatusIn(statuses...))
		}
		if filter.PeriodEndBefore != nil {
			q = q.Where(entsubscription.CurrentPeriodEndLT(*filter.PeriodEndBefore))
		}
		if filter.CancelAtPeriodEnd != nil {
			q = q.Where(entsubscription.CancelAtPeriodEnd(*filter.CancelAtPeriodEnd))
		}
		q = q.Limit(filter.GetLimit()).Offset(filter.GetOffset())
	}
	rows, err := q.All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list subscriptions").Mark(ierr.ErrDatabase)
	}
	return fromEntSubscriptions(rows), nil
}

func (r *subscriptionRepository) ListByAccount(ctx context.Context, accountID string) ([]*domainsubscription.Subscription, error) {
	rows, err := r.client.Querier(ctx).Subscription.Query().Where(entsubscription.AccountID(accountID)).All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list subscriptions by account").Mark(ierr.ErrDatabase)
	}
	return fromEntSubscriptions(rows), nil
}

func (r *subscriptionRepository) DueForBillingCycle(ctx context.Context, now time.Time, limit int) ([]*domainsubscription.Subscription, error) {
	rows, err := r.client.Querier(ctx).Subscription.Query().
		Where(
			entsubscription.CurrentPeriodEndLTE(now),
			entsubscription.SubscriptionStatusIn(
				string(types.SubscriptionStatusActive),
				string(types.SubscriptionStatusPastDue),
			),
		).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query billing-cycle subscriptions").Mark(ierr.ErrDatabase)
	}
	return fromEntSubscriptions(rows), nil
}

func (r *subscriptionRepository) DueForTrialExpiry(ctx context.Context, now time.Time, limit int) ([]*domainsubscription.Subscription, error) {
	rows, err := r.client.Querier(ctx).Subscription.Query().
		Where(
			entsubscription.SubscriptionStatus(string(types.SubscriptionStatusTrialing)),
			entsubscription.TrialEndLTE(now),
		).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query trial-expiry subscriptions").Mark(ierr.ErrDatabase)
	}
	return fromEntSubscriptions(rows), nil
}

func (r *subscriptionRepository) DueForPlanChangeApply(ctx context.Context, now time.Time, limit int) ([]*domainsubscription.Subscription, error) {
	rows, err := r.client.Querier(ctx).Subscription.Query().
		Where(
			entsubscription.PendingPlanIDNotNil(),
			entsubscription.CurrentPeriodEndLTE(now),
		).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query plan-change subscriptions").Mark(ierr.ErrDatabase)
	}
	return fromEntSubscriptions(rows), nil
}

func (r *subscriptionRepository) DueForPauseAutoResume(ctx context.Context, now time.Time, limit int) ([]*domainsubscription.Subscription, error) {
	rows, err := r.client.Querier(ctx).Subscription.Query().
		Where(
			entsubscription.SubscriptionStatus(string(types.SubscriptionStatusPaused)),
			entsubscription.PauseResumesAtNotNil(),
			entsubscription.PauseResumesAtLTE(now),
		).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query pause-resume subscriptions").Mark(ierr.ErrDatabase)
	}
	return fromEntSubscriptions(rows), nil
}

func (r *subscriptionRepository) DueForPauseAutoCancel(ctx context.Context, now time.Time, maxPause time.Duration, limit int) ([]*domainsubscription.Subscription, error) {
	cutoff := now.Add(-maxPause)
	rows, err := r.client.Querier(ctx).Subscription.Query().
		Where(
			entsubscription.SubscriptionStatus(string(types.SubscriptionStatusPaused)),
			entsubscription.PausedAtNotNil(),
			entsubscription.PausedAtLTE(cutoff),
		).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query pause-auto-cancel subscriptions").Mark(ierr.ErrDatabase)
	}
	return fromEntSubscriptions(rows), nil
}

func (r *subscriptionRepository) AppendHistory(ctx context.Context, h *domainsubscription.History) error {
	client := r.client.Querier(ctx)
	_, err := client.SubscriptionHistory.Create().
		SetID(h.ID).
		SetSubscriptionID(h.SubscriptionID).
		SetEventType(string(h.EventType)).
		SetOldValue(h.OldValue).
		SetNewValue(h.NewValue).
		SetReason(h.Reason).
		SetAt(h.At).
		Save(ctx)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to append subscription history").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) ListHistory(ctx context.Context, subscriptionID string) ([]*domainsubscription.History, error) {
	rows, err := r.client.Querier(ctx).SubscriptionHistory.Query().
		Where(entsubscriptionhistory.SubscriptionID(subscriptionID)).
		Order(ent.Asc(entsubscriptionhistory.FieldAt)).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list subscription history").Mark(ierr.ErrDatabase)
	}
	out := make([]*domainsubscription.History, len(rows))
	for i, row := range rows {
		out[i] = &domainsubscription.History{
			ID:             row.ID,
			SubscriptionID: row.SubscriptionID,
			EventType:      types.HistoryEventType(row.EventType),
			OldValue:       row.OldValue,
			NewValue:       row.NewValue,
			Reason:         row.Reason,
			At:             row.At,
		}
	}
	return out, nil
}

func fromEntSubscriptions(rows []*ent.Subscription) []*domainsubscription.Subscription {
	out := make([]*domainsubscription.Subscription, len(rows))
	for i, row := range rows {
		out[i] = fromEntSubscription(row)
	}
	return out
}

func fromEntSubscription(e *ent.Subscription) *domainsubscription.Subscription {
	return &domainsubscription.Subscription{
		ID:                 e.ID,
		AccountID:          e.AccountID,
		PlanID:             e.PlanID,
		Status:             types.SubscriptionStatus(e.SubscriptionStatus),
		Quantity:           e.Quantity,
		CurrentPeriodStart: e.CurrentPeriodStart,
		CurrentPeriodEnd:   e.CurrentPeriodEnd,
		CancelAtPeriodEnd:  e.CancelAtPeriodEnd,
		CancelledAt:        e.CancelledAt,
		TrialEnd:           e.TrialEnd,
		PauseResumesAt:     e.PauseResumesAt,
		PausedAt:           e.PausedAt,
		PendingPlanID:      e.PendingPlanID,
		BaseModel: types.BaseModel{
			Status:    types.Status(e.Status),
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
	}
}
