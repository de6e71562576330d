package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository, including the
// monotonic invoice-number counter spec.md §5 fence 3 requires.
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	counterMu sync.Mutex
	counter   int64
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{InMemoryStore: NewInMemoryStore[*invoice.Invoice]()}
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := s.InMemoryStore.Create(ctx, inv.ID, inv); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return inv, nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := s.InMemoryStore.Update(ctx, inv.ID, inv); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	return s.InMemoryStore.List(ctx, filter, func(_ context.Context, inv *invoice.Invoice, f any) bool {
		flt, _ := f.(*types.InvoiceFilter)
		if flt == nil {
			return true
		}
		if flt.AccountID != "" && inv.AccountID != flt.AccountID {
			return false
		}
		if flt.SubscriptionID != "" && (inv.SubscriptionID == nil || *inv.SubscriptionID != flt.SubscriptionID) {
			return false
		}
		if len(flt.Statuses) > 0 {
			match := false
			for _, st := range flt.Statuses {
				if inv.Status == st {
					match = true
					break
				}
			}
			if !match {
				return false
			}
		}
		return true
	}, nil), nil
}

func (s *InMemoryInvoiceStore) ExistsForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error) {
	_, ok := s.Find(func(inv *invoice.Invoice) bool {
		return inv.SubscriptionID != nil && *inv.SubscriptionID == subscriptionID &&
			inv.PeriodStart != nil && inv.PeriodStart.Equal(periodStart) &&
			inv.Status != types.InvoiceStatusVoid
	})
	return ok, nil
}

func (s *InMemoryInvoiceStore) NextInvoiceNumber(ctx context.Context) (int64, error) {
	s.counterMu.Lock()
	defer s.counterMu.Unlock()
	s.counter++
	return s.counter, nil
}

func (s *InMemoryInvoiceStore) DueForOverdueSweep(ctx context.Context, now time.Time, limit int) ([]*invoice.Invoice, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, inv *invoice.Invoice, _ any) bool {
		return inv.Status == types.InvoiceStatusOpen && now.After(inv.DueDate)
	}, nil)
	return cap32(due, limit), nil
}

func (s *InMemoryInvoiceStore) DueForDunning(ctx context.Context, now time.Time, limit int) ([]*invoice.Invoice, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, inv *invoice.Invoice, _ any) bool {
		return (inv.Status == types.InvoiceStatusOpen || inv.Status == types.InvoiceStatusPastDue) && now.After(inv.DueDate)
	}, nil)
	return cap32(due, limit), nil
}

func (s *InMemoryInvoiceStore) OpenOrPastDueCount(ctx context.Context, accountID string) (int, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, inv *invoice.Invoice, _ any) bool {
		return inv.AccountID == accountID && (inv.Status == types.InvoiceStatusOpen || inv.Status == types.InvoiceStatusPastDue)
	}, nil)
	return len(due), nil
}

func (s *InMemoryInvoiceStore) RecentlyClosed(ctx context.Context, since, now time.Time, limit int) ([]*invoice.Invoice, error) {
	closed := s.InMemoryStore.List(ctx, nil, func(_ context.Context, inv *invoice.Invoice, _ any) bool {
		if inv.Status == types.InvoiceStatusVoid || inv.PeriodEnd == nil {
			return false
		}
		return !inv.PeriodEnd.Before(since) && !inv.PeriodEnd.After(now)
	}, nil)
	return cap32(closed, limit), nil
}
