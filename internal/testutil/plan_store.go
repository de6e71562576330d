package testutil

import (
	"context"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"

	"github.com/sugu-inc/modern-billing/internal/domain/plan"
)

// InMemoryPlanStore implements plan.Repository.
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{InMemoryStore: NewInMemoryStore[*plan.Plan]()}
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	if err := s.InMemoryStore.Create(ctx, p.ID, p); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPlanStore) ListActive(ctx context.Context) ([]*plan.Plan, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, p *plan.Plan, _ any) bool {
		return p.Active
	}, nil), nil
}

func (s *InMemoryPlanStore) Deactivate(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Active = false
	if err := s.InMemoryStore.Update(ctx, id, p); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return nil
}
