package paymentmethod

import "context"

// Repository persists PaymentMethod rows. SetDefault must perform the
// transactional swap spec.md §5's fence 5 requires: clear any existing
// default for the account, then set the new one, inside one transaction.
type Repository interface {
	Create(ctx context.Context, pm *PaymentMethod) error
	Get(ctx context.Context, id string) (*PaymentMethod, error)
	GetDefault(ctx context.Context, accountID string) (*PaymentMethod, error)
	ListByAccount(ctx context.Context, accountID string) ([]*PaymentMethod, error)
	SetDefault(ctx context.Context, accountID, id string) error
	Delete(ctx context.Context, id string) error
}
