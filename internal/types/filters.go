package types

import "time"

// SubscriptionFilter narrows Subscription.List calls, trimmed of the
// tenant/schedule/addon filters the teacher's equivalent carries (out of
// this spec's scope).
type SubscriptionFilter struct {
	Pagination
	AccountID      string
	Statuses       []SubscriptionStatus
	PeriodEndBefore *time.Time
	CancelAtPeriodEnd *bool
}

// InvoiceFilter narrows Invoice.List calls.
type InvoiceFilter struct {
	Pagination
	AccountID      string
	SubscriptionID string
	Statuses       []InvoiceStatus
	DueBefore      *time.Time
}

// PaymentFilter narrows Payment.List calls.
type PaymentFilter struct {
	Pagination
	InvoiceID string
	Statuses  []PaymentStatus
	RetryDue  *time.Time
}

// CreditFilter narrows Credit.List calls.
type CreditFilter struct {
	Pagination
	AccountID string
	Currency  string
	Available *bool
}

// UsageFilter narrows UsageRecord.List/aggregate calls.
type UsageFilter struct {
	Pagination
	SubscriptionID string
	Metric         string
	From           *time.Time
	To             *time.Time
	ReceivedAfter  *time.Time
}

// WebhookEventFilter narrows WebhookEvent.List calls for the dispatcher loop.
type WebhookEventFilter struct {
	Pagination
	Statuses     []WebhookEventStatus
	ReadyBefore  time.Time
}
