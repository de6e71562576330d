package ent

import (
	"context"
	"time"

	"entgo.io/ent/dialect/sql"

	"github.com/sugu-inc/modern-billing/ent"
	entwebhookendpoint "github.com/sugu-inc/modern-billing/ent/webhookendpoint"
	entwebhookevent "github.com/sugu-inc/modern-billing/ent/webhookevent"
	domainwebhook "github.com/sugu-inc/modern-billing/internal/domain/webhook"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	"github.com/sugu-inc/modern-billing/internal/types"
)

type webhookEventRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewWebhookEventRepository builds the outbox Event adapter.
func NewWebhookEventRepository(client postgres.IClient, logger *logger.Logger) domainwebhook.EventRepository {
	return &webhookEventRepository{client: client, logger: logger}
}

func (r *webhookEventRepository) Create(ctx context.Context, e *domainwebhook.Event) error {
	_, err := r.client.Querier(ctx).WebhookEvent.Create().
		SetID(e.ID).
		SetEventType(string(e.EventType)).
		SetPayload(e.Payload).
		SetEndpointURL(e.EndpointURL).
		SetEndpointID(e.EndpointID).
		SetWebhookStatus(string(e.Status)).
		SetRetryCount(e.RetryCount).
		SetNillableNextRetryAt(e.NextRetryAt).
		SetLastError(e.LastError).
		SetCreatedAt(e.CreatedAt).
		SetNillableDeliveredAt(e.DeliveredAt).
		Save(ctx)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to create webhook event").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *webhookEventRepository) Update(ctx context.Context, e *domainwebhook.Event) error {
	_, err := r.client.Querier(ctx).WebhookEvent.UpdateOneID(e.ID).
		SetWebhookStatus(string(e.Status)).
		SetRetryCount(e.RetryCount).
		SetNillableNextRetryAt(e.NextRetryAt).
		SetLastError(e.LastError).
		SetNillableDeliveredAt(e.DeliveredAt).
		Save(ctx)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to update webhook event").Mark(ierr.ErrDatabase)
	}
	return nil
}

// DueForDispatch claims ready rows with SELECT ... FOR UPDATE SKIP LOCKED
// (spec.md §5) so concurrent dispatcher workers never double-send.
func (r *webhookEventRepository) DueForDispatch(ctx context.Context, now time.Time, limit int) ([]*domainwebhook.Event, error) {
	rows, err := r.client.Querier(ctx).WebhookEvent.Query().
		Where(
			entwebhookevent.WebhookStatus(string(types.WebhookEventStatusPending)),
			entwebhookevent.Or(
				entwebhookevent.RetryCount(0),
				entwebhookevent.NextRetryAtLTE(now),
			),
		).
		Limit(limit).
		ForUpdate(sql.WithLockAction(sql.SkipLocked)).
		All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to query dispatch-due webhook events").Mark(ierr.ErrDatabase)
	}
	out := make([]*domainwebhook.Event, len(rows))
	for i, row := range rows {
		out[i] = fromEntWebhookEvent(row)
	}
	return out, nil
}

func fromEntWebhookEvent(e *ent.WebhookEvent) *domainwebhook.Event {
	return &domainwebhook.Event{
		ID:          e.ID,
		EventType:   types.EventType(e.EventType),
		Payload:     e.Payload,
		EndpointURL: e.EndpointURL,
		EndpointID:  e.EndpointID,
		Status:      types.WebhookEventStatus(e.WebhookStatus),
		RetryCount:  e.RetryCount,
		NextRetryAt: e.NextRetryAt,
		LastError:   e.LastError,
		CreatedAt:   e.CreatedAt,
		DeliveredAt: e.DeliveredAt,
	}
}

type webhookEndpointRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewWebhookEndpointRepository builds the store-backed Endpoint adapter
// (spec.md §9's replacement for the source's in-process registry).
func NewWebhookEndpointRepository(client postgres.IClient, logger *logger.Logger) domainwebhook.EndpointRepository {
	return &webhookEndpointRepository{client: client, logger: logger}
}

func (r *webhookEndpointRepository) Create(ctx context.Context, e *domainwebhook.Endpoint) error {
	_, err := r.client.Querier(ctx).WebhookEndpoint.Create().
		SetID(e.ID).
		SetURL(e.URL).
		SetEvents(e.Events).
		SetActive(e.Active).
		SetStatus(string(e.BaseModel.Status)).
		SetCreatedBy(e.CreatedBy).
		SetUpdatedBy(e.UpdatedBy).
		SetCreatedAt(e.CreatedAt).
		SetUpdatedAt(e.UpdatedAt).
		Save(ctx)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to create webhook endpoint").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *webhookEndpointRepository) Get(ctx context.Context, id string) (*domainwebhook.Endpoint, error) {
	row, err := r.client.Querier(ctx).WebhookEndpoint.Query().Where(entwebhookendpoint.ID(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ierr.WithError(err).WithHint("webhook endpoint not found").Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("failed to get webhook endpoint").Mark(ierr.ErrDatabase)
	}
	return fromEntWebhookEndpoint(row), nil
}

func (r *webhookEndpointRepository) Update(ctx context.Context, e *domainwebhook.Endpoint) error {
	_, err := r.client.Querier(ctx).WebhookEndpoint.UpdateOneID(e.ID).
		SetURL(e.URL).
		SetEvents(e.Events).
		SetActive(e.Active).
		SetUpdatedAt(e.UpdatedAt).
		Save(ctx)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to update webhook endpoint").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *webhookEndpointRepository) ListActive(ctx context.Context) ([]*domainwebhook.Endpoint, error) {
	rows, err := r.client.Querier(ctx).WebhookEndpoint.Query().Where(entwebhookendpoint.Active(true)).All(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list active webhook endpoints").Mark(ierr.ErrDatabase)
	}
	out := make([]*domainwebhook.Endpoint, len(rows))
	for i, row := range rows {
		out[i] = fromEntWebhookEndpoint(row)
	}
	return out, nil
}

func fromEntWebhookEndpoint(e *ent.WebhookEndpoint) *domainwebhook.Endpoint {
	return &domainwebhook.Endpoint{
		ID:     e.ID,
		URL:    e.URL,
		Events: e.Events,
		Active: e.Active,
		BaseModel: types.BaseModel{
			Status:    types.Status(e.Status),
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
	}
}
