package testutil

import (
	"context"

	"github.com/sugu-inc/modern-billing/internal/domain/account"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// InMemoryAccountStore implements account.Repository.
type InMemoryAccountStore struct {
	*InMemoryStore[*account.Account]
}

func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{InMemoryStore: NewInMemoryStore[*account.Account]()}
}

func (s *InMemoryAccountStore) Create(ctx context.Context, a *account.Account) error {
	if err := s.InMemoryStore.Create(ctx, a.ID, a); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryAccountStore) Get(ctx context.Context, id string) (*account.Account, error) {
	a, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return a, nil
}

func (s *InMemoryAccountStore) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	a, ok := s.Find(func(a *account.Account) bool { return a.Email == email })
	if !ok {
		return nil, ierr.NewErrorf("account with email %q not found", email).Mark(ierr.ErrNotFound)
	}
	return a, nil
}

func (s *InMemoryAccountStore) Update(ctx context.Context, a *account.Account) error {
	if err := s.InMemoryStore.Update(ctx, a.ID, a); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryAccountStore) List(ctx context.Context, limit, offset int) ([]*account.Account, error) {
	all := s.InMemoryStore.List(ctx, nil, nil, func(i, j *account.Account) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if offset >= len(all) {
		return []*account.Account{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *InMemoryAccountStore) UpdateStatus(ctx context.Context, id string, status types.AccountStatus) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	a.AccountStatus = status
	return s.Update(ctx, a)
}
