package dto

import (
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/usage"
	"github.com/sugu-inc/modern-billing/internal/service"
)

// RecordUsageRequest is the input to POST /usage.
type RecordUsageRequest struct {
	SubscriptionID string    `json:"subscription_id" validate:"required"`
	Metric         string    `json:"metric" validate:"required"`
	Quantity       int64     `json:"quantity" validate:"required,gt=0"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
	IdempotencyKey string    `json:"idempotency_key" validate:"required"`
}

func (r RecordUsageRequest) ToService() service.RecordRequest {
	return service.RecordRequest{
		SubscriptionID: r.SubscriptionID,
		Metric:         r.Metric,
		Quantity:       r.Quantity,
		Timestamp:      r.Timestamp,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// UsageRecordResponse wraps the domain aggregate for JSON responses.
type UsageRecordResponse struct {
	*usage.Record
}

func NewUsageRecordResponse(r *usage.Record) *UsageRecordResponse {
	return &UsageRecordResponse{Record: r}
}

type ListUsageResponse struct {
	Items []*UsageRecordResponse `json:"items"`
}

// UsageSummaryResponse answers GET /usage/summary, spec.md §4.7's
// aggregate() query surfaced at the HTTP edge.
type UsageSummaryResponse struct {
	SubscriptionID string `json:"subscription_id"`
	Metric         string `json:"metric"`
	Total          int64  `json:"total"`
}
