package testutil

import (
	"context"
	"sort"

	"github.com/sugu-inc/modern-billing/internal/domain/credit"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// InMemoryCreditStore implements credit.Repository. ListAvailable returns
// rows ordered by CreatedAt ascending, preserving the FIFO contract spec.md
// §4.5 relies on.
type InMemoryCreditStore struct {
	*InMemoryStore[*credit.Credit]
}

func NewInMemoryCreditStore() *InMemoryCreditStore {
	return &InMemoryCreditStore{InMemoryStore: NewInMemoryStore[*credit.Credit]()}
}

func (s *InMemoryCreditStore) Create(ctx context.Context, c *credit.Credit) error {
	if err := s.InMemoryStore.Create(ctx, c.ID, c); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryCreditStore) Get(ctx context.Context, id string) (*credit.Credit, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryCreditStore) Update(ctx context.Context, c *credit.Credit) error {
	if err := s.InMemoryStore.Update(ctx, c.ID, c); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryCreditStore) ListAvailable(ctx context.Context, accountID, currency string) ([]*credit.Credit, error) {
	all := s.InMemoryStore.List(ctx, nil, func(_ context.Context, c *credit.Credit, _ any) bool {
		return c.AccountID == accountID && c.Currency == currency && c.AppliedToInvoiceID == nil
	}, nil)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

func (s *InMemoryCreditStore) List(ctx context.Context, filter *types.CreditFilter) ([]*credit.Credit, error) {
	return s.InMemoryStore.List(ctx, filter, func(_ context.Context, c *credit.Credit, f any) bool {
		flt, _ := f.(*types.CreditFilter)
		if flt == nil {
			return true
		}
		if flt.AccountID != "" && c.AccountID != flt.AccountID {
			return false
		}
		return true
	}, nil), nil
}
