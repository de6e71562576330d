// Package testutil provides in-memory repository fakes used by the
// service-layer test suites, grounded on the teacher's
// internal/testutil.InMemoryStore[T] generic (itself backing the teacher's
// InMemoryPriceUnitStore etc.): a single mutex-guarded map keyed by ID, with
// per-domain wrappers translating plain "not found"/"already exists"
// failures into ierr-marked domain errors the services can classify.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FilterFunc reports whether item matches filter, for List-style queries.
type FilterFunc[T any] func(ctx context.Context, item T, filter any) bool

// SortFunc orders two items for a List-style query.
type SortFunc[T any] func(i, j T) bool

// InMemoryStore is a generic, mutex-guarded map keyed by ID.
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewInMemoryStore builds an empty InMemoryStore.
func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{items: make(map[string]T)}
}

func (s *InMemoryStore[T]) Create(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; exists {
		return fmt.Errorf("item %q already exists", id)
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if item, exists := s.items[id]; exists {
		return item, nil
	}
	var zero T
	return zero, fmt.Errorf("item %q not found", id)
}

func (s *InMemoryStore[T]) Update(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		return fmt.Errorf("item %q not found", id)
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		return fmt.Errorf("item %q not found", id)
	}
	delete(s.items, id)
	return nil
}

// List returns every item matching filterFn (nil matches everything),
// ordered by sortFn when supplied.
func (s *InMemoryStore[T]) List(ctx context.Context, filter any, filterFn FilterFunc[T], sortFn SortFunc[T]) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			result = append(result, item)
		}
	}
	if sortFn != nil {
		sort.Slice(result, func(i, j int) bool { return sortFn(result[i], result[j]) })
	}
	return result
}

// Find returns the first item for which pred is true, grounded on the
// teacher's per-store GetByCode-style secondary lookups (e.g.
// InMemoryPriceUnitStore.GetByCode) generalized to an arbitrary predicate.
func (s *InMemoryStore[T]) Find(pred func(T) bool) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Len reports how many items the store holds.
func (s *InMemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
