package testutil

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/webhook"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
)

// InMemoryWebhookEventStore implements webhook.EventRepository.
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhook.Event]
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{InMemoryStore: NewInMemoryStore[*webhook.Event]()}
}

func (s *InMemoryWebhookEventStore) Create(ctx context.Context, e *webhook.Event) error {
	if err := s.InMemoryStore.Create(ctx, e.ID, e); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryWebhookEventStore) Update(ctx context.Context, e *webhook.Event) error {
	if err := s.InMemoryStore.Update(ctx, e.ID, e); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryWebhookEventStore) DueForDispatch(ctx context.Context, now time.Time, limit int) ([]*webhook.Event, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, e *webhook.Event, _ any) bool {
		return e.IsReadyForDelivery(now)
	}, nil)
	return cap32(due, limit), nil
}

// InMemoryWebhookEndpointStore implements webhook.EndpointRepository.
type InMemoryWebhookEndpointStore struct {
	*InMemoryStore[*webhook.Endpoint]
}

func NewInMemoryWebhookEndpointStore() *InMemoryWebhookEndpointStore {
	return &InMemoryWebhookEndpointStore{InMemoryStore: NewInMemoryStore[*webhook.Endpoint]()}
}

func (s *InMemoryWebhookEndpointStore) Create(ctx context.Context, e *webhook.Endpoint) error {
	if err := s.InMemoryStore.Create(ctx, e.ID, e); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryWebhookEndpointStore) Get(ctx context.Context, id string) (*webhook.Endpoint, error) {
	e, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return e, nil
}

func (s *InMemoryWebhookEndpointStore) Update(ctx context.Context, e *webhook.Endpoint) error {
	if err := s.InMemoryStore.Update(ctx, e.ID, e); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryWebhookEndpointStore) ListActive(ctx context.Context) ([]*webhook.Endpoint, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, e *webhook.Endpoint, _ any) bool {
		return e.Active
	}, nil), nil
}
