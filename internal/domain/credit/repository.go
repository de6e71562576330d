package credit

import (
	"context"

	"github.com/sugu-inc/modern-billing/internal/types"
)

// Repository persists Credit rows. ListAvailable must return rows ordered
// by created_at ascending (spec.md §4.5 FIFO application order).
type Repository interface {
	Create(ctx context.Context, c *Credit) error
	Get(ctx context.Context, id string) (*Credit, error)
	Update(ctx context.Context, c *Credit) error
	ListAvailable(ctx context.Context, accountID, currency string) ([]*Credit, error)
	List(ctx context.Context, filter *types.CreditFilter) ([]*Credit, error)
}
