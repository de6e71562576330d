package webhook

import (
	"context"
	"time"
)

// EventRepository persists outbox Event rows.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	// DueForDispatch returns rows ready for delivery per IsReadyForDelivery,
	// locked with SELECT ... FOR UPDATE SKIP LOCKED semantics in the ent
	// adapter so multiple dispatcher workers don't collide (spec.md §5).
	DueForDispatch(ctx context.Context, now time.Time, limit int) ([]*Event, error)
}

// EndpointRepository persists registered webhook Endpoints.
type EndpointRepository interface {
	Create(ctx context.Context, e *Endpoint) error
	Get(ctx context.Context, id string) (*Endpoint, error)
	Update(ctx context.Context, e *Endpoint) error
	ListActive(ctx context.Context) ([]*Endpoint, error)
}
