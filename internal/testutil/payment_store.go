package testutil

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/payment"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// InMemoryPaymentStore implements payment.Repository.
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{InMemoryStore: NewInMemoryStore[*payment.Payment]()}
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if _, exists := s.Find(func(existing *payment.Payment) bool {
		return existing.IdempotencyKey == p.IdempotencyKey
	}); exists {
		return ierr.NewErrorf("payment with idempotency key %q already exists", p.IdempotencyKey).Mark(ierr.ErrAlreadyExists)
	}
	if err := s.InMemoryStore.Create(ctx, p.ID, p); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	p, ok := s.Find(func(p *payment.Payment) bool { return p.IdempotencyKey == key })
	if !ok {
		return nil, ierr.NewErrorf("payment with idempotency key %q not found", key).Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	if err := s.InMemoryStore.Update(ctx, p.ID, p); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryPaymentStore) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	return s.InMemoryStore.List(ctx, filter, func(_ context.Context, p *payment.Payment, f any) bool {
		flt, _ := f.(*types.PaymentFilter)
		if flt == nil {
			return true
		}
		if flt.InvoiceID != "" && p.InvoiceID != flt.InvoiceID {
			return false
		}
		return true
	}, nil), nil
}

func (s *InMemoryPaymentStore) DueForRetry(ctx context.Context, now time.Time, limit int) ([]*payment.Payment, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, p *payment.Payment, _ any) bool {
		return p.Status == types.PaymentStatusFailed && p.RetryCount < payment.MaxRetries &&
			p.NextRetryAt != nil && !p.NextRetryAt.After(now)
	}, nil)
	return cap32(due, limit), nil
}
