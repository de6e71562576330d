package payment

import (
	"context"
	"time"

	"github.com/sugu-inc/modern-billing/internal/types"
)

// Repository persists Payment attempts. GetByIdempotencyKey is the read
// side of spec.md §5's fence 1 (unique idempotency_key).
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	List(ctx context.Context, filter *types.PaymentFilter) ([]*Payment, error)

	// DueForRetry returns failed payments with next_retry_at <= now and
	// retry_count < MaxRetries (spec.md §4.9 payment_retry task).
	DueForRetry(ctx context.Context, now time.Time, limit int) ([]*Payment, error)
}
