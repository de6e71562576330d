package account

import (
	"context"

	"github.com/sugu-inc/modern-billing/internal/types"
)

// Repository persists Account aggregates. Shape grounded on the teacher's
// customer repository interface (Create/Get/Update + List/Count pagination
// pair), trimmed of the tenant-scoped ListAllTenant variant this spec's
// single-tenant engine doesn't need.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, a *Account) error
	List(ctx context.Context, limit, offset int) ([]*Account, error)

	// UpdateStatus is a narrow transactional helper the Dunning Controller
	// uses to flip account status without a full read-modify-write race.
	UpdateStatus(ctx context.Context, id string, status types.AccountStatus) error
}
