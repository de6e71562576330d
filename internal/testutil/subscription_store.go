package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/subscription"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository, including
// the append-only History side table.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]

	historyMu sync.RWMutex
	history   []*subscription.History
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{InMemoryStore: NewInMemoryStore[*subscription.Subscription]()}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := s.InMemoryStore.Create(ctx, sub.ID, sub); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if err := s.InMemoryStore.Update(ctx, sub.ID, sub); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, filter, func(_ context.Context, sub *subscription.Subscription, f any) bool {
		flt, _ := f.(*types.SubscriptionFilter)
		if flt == nil {
			return true
		}
		if flt.AccountID != "" && sub.AccountID != flt.AccountID {
			return false
		}
		if len(flt.Statuses) > 0 {
			match := false
			for _, st := range flt.Statuses {
				if sub.Status == st {
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

func (s *InMemorySubscriptionStore) ListByAccount(ctx context.Context, accountID string) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ any) bool {
		return sub.AccountID == accountID
	}, nil), nil
}

func (s *InMemorySubscriptionStore) DueForBillingCycle(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ any) bool {
		return sub.IsBillable() && !sub.CurrentPeriodEnd.After(now)
	}, nil)
	return cap32(due, limit), nil
}

func (s *InMemorySubscriptionStore) DueForTrialExpiry(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ any) bool {
		return sub.Status == types.SubscriptionStatusTrialing && sub.TrialEnd != nil && !sub.TrialEnd.After(now)
	}, nil)
	return cap32(due, limit), nil
}

func (s *InMemorySubscriptionStore) DueForPlanChangeApply(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ any) bool {
		return sub.PendingPlanID != nil && !sub.CurrentPeriodEnd.After(now)
	}, nil)
	return cap32(due, limit), nil
}

func (s *InMemorySubscriptionStore) DueForPauseAutoResume(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ any) bool {
		return sub.Status == types.SubscriptionStatusPaused && sub.PauseResumesAt != nil && !sub.PauseResumesAt.After(now)
	}, nil)
	return cap32(due, limit), nil
}

func (s *InMemorySubscriptionStore) DueForPauseAutoCancel(ctx context.Context, now time.Time, maxPause time.Duration, limit int) ([]*subscription.Subscription, error) {
	due := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ any) bool {
		return sub.Status == types.SubscriptionStatusPaused && sub.PausedAt != nil && now.Sub(*sub.PausedAt) > maxPause
	}, nil)
	return cap32(due, limit), nil
}

func (s *InMemorySubscriptionStore) AppendHistory(ctx context.Context, h *subscription.History) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.history = append(s.history, h)
	return nil
}

func (s *InMemorySubscriptionStore) ListHistory(ctx context.Context, subscriptionID string) ([]*subscription.History, error) {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	var out []*subscription.History
	for _, h := range s.history {
		if h.SubscriptionID == subscriptionID {
			out = append(out, h)
		}
	}
	return out, nil
}

func cap32[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
