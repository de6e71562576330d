package plan

import "context"

// Repository persists Plan rows. Create only ever inserts a new immutable
// row — "editing" a plan is modeled as Create of a new row + Deactivate of
// the old one.
type Repository interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	ListActive(ctx context.Context) ([]*Plan, error)
	Deactivate(ctx context.Context, id string) error
}
