package testutil

import (
	"context"

	"github.com/sugu-inc/modern-billing/internal/domain/paymentmethod"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
)

// InMemoryPaymentMethodStore implements paymentmethod.Repository.
type InMemoryPaymentMethodStore struct {
	*InMemoryStore[*paymentmethod.PaymentMethod]
}

func NewInMemoryPaymentMethodStore() *InMemoryPaymentMethodStore {
	return &InMemoryPaymentMethodStore{InMemoryStore: NewInMemoryStore[*paymentmethod.PaymentMethod]()}
}

func (s *InMemoryPaymentMethodStore) Create(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	if err := s.InMemoryStore.Create(ctx, pm.ID, pm); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryPaymentMethodStore) Get(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	pm, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return pm, nil
}

func (s *InMemoryPaymentMethodStore) GetDefault(ctx context.Context, accountID string) (*paymentmethod.PaymentMethod, error) {
	pm, ok := s.Find(func(pm *paymentmethod.PaymentMethod) bool {
		return pm.AccountID == accountID && pm.IsDefault
	})
	if !ok {
		return nil, ierr.NewErrorf("no default payment method for account %q", accountID).Mark(ierr.ErrNotFound)
	}
	return pm, nil
}

func (s *InMemoryPaymentMethodStore) ListByAccount(ctx context.Context, accountID string) ([]*paymentmethod.PaymentMethod, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, pm *paymentmethod.PaymentMethod, _ any) bool {
		return pm.AccountID == accountID
	}, nil), nil
}

// SetDefault performs the transactional swap spec.md §5 fence 5 requires:
// clear any existing default for the account, then set the new one.
func (s *InMemoryPaymentMethodStore) SetDefault(ctx context.Context, accountID, id string) error {
	for _, pm := range s.InMemoryStore.List(ctx, nil, func(_ context.Context, pm *paymentmethod.PaymentMethod, _ any) bool {
		return pm.AccountID == accountID
	}, nil) {
		wasDefault := pm.IsDefault
		pm.IsDefault = pm.ID == id
		if wasDefault != pm.IsDefault {
			if err := s.InMemoryStore.Update(ctx, pm.ID, pm); err != nil {
				return ierr.WithError(err).Mark(ierr.ErrNotFound)
			}
		}
	}
	return nil
}

func (s *InMemoryPaymentMethodStore) Delete(ctx context.Context, id string) error {
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return nil
}
