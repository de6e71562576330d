package types

import (
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
)

// AccountStatus gates write access per spec.md §4.6's dunning rule.
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusWarning AccountStatus = "warning"
	AccountStatusBlocked AccountStatus = "blocked"
)

// SubscriptionStatus is the subscription lifecycle state (spec.md §4.1).
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
)

// BillingInterval is the Plan's recurrence cadence.
type BillingInterval string

const (
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

// UsageType selects the usage-pricing algorithm a plan exercises.
// "tiered" is an alias for "graduated" per spec.md §9's Open Question.
type UsageType string

const (
	UsageTypeNone      UsageType = ""
	UsageTypeGraduated UsageType = "graduated"
	UsageTypeVolume    UsageType = "volume"
	UsageTypeTiered    UsageType = "tiered"
)

// ResolveUsageType collapses the "tiered" alias onto "graduated".
func ResolveUsageType(u UsageType) UsageType {
	if u == UsageTypeTiered {
		return UsageTypeGraduated
	}
	return u
}

// InvoiceStatus is the invoice lifecycle state (spec.md §4.3).
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusOpen    InvoiceStatus = "open"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
	InvoiceStatusPastDue InvoiceStatus = "past_due"
)

// LineItemType discriminates the tagged-variant LineItem (spec.md §9:
// "Polymorphic 'line item' is a tagged variant with a type discriminator").
type LineItemType string

const (
	LineItemTypeSubscription    LineItemType = "subscription"
	LineItemTypeUsage           LineItemType = "usage"
	LineItemTypeProrationCredit LineItemType = "proration_credit"
	LineItemTypeProrationCharge LineItemType = "proration_charge"
	LineItemTypeLateUsage       LineItemType = "late_usage"
)

// PaymentStatus is the payment attempt lifecycle state (spec.md §4.4).
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// WebhookEventStatus is the outbox delivery state (spec.md §4.8).
type WebhookEventStatus string

const (
	WebhookEventStatusPending    WebhookEventStatus = "pending"
	WebhookEventStatusProcessing WebhookEventStatus = "processing"
	WebhookEventStatusDelivered  WebhookEventStatus = "delivered"
	WebhookEventStatusFailed     WebhookEventStatus = "failed"
)

// EventType enumerates the webhook event types spec.md §6 names "at minimum".
type EventType string

const (
	EventInvoiceCreated        EventType = "invoice.created"
	EventInvoicePaid           EventType = "invoice.paid"
	EventInvoiceVoided         EventType = "invoice.voided"
	EventPaymentSucceeded      EventType = "payment.succeeded"
	EventPaymentFailed         EventType = "payment.failed"
	EventSubscriptionCreated   EventType = "subscription.created"
	EventSubscriptionUpdated   EventType = "subscription.updated"
	EventSubscriptionCancelled EventType = "subscription.cancelled"
	EventCreditCreated         EventType = "credit.created"
	EventCreditApplied         EventType = "credit.applied"
)

// Category returns the "{category}.*" wildcard bucket for an event type.
func (e EventType) Category() string {
	for i := 0; i < len(e); i++ {
		if e[i] == '.' {
			return string(e[:i]) + ".*"
		}
	}
	return string(e)
}

// GatewayResultStatus is the outcome of a Payment Gateway attempt (spec.md §4.4/§6).
type GatewayResultStatus string

const (
	GatewayResultSucceeded GatewayResultStatus = "succeeded"
	GatewayResultFailed    GatewayResultStatus = "failed"
	GatewayResultPending   GatewayResultStatus = "pending"
)

// HistoryEventType enumerates SubscriptionHistory.event_type values.
type HistoryEventType string

const (
	HistoryEventCreated      HistoryEventType = "subscription_created"
	HistoryEventStatusChange HistoryEventType = "status_change"
	HistoryEventQuantity     HistoryEventType = "quantity_change"
	HistoryEventCancelToggle HistoryEventType = "cancel_at_period_end_change"
	HistoryEventPlanChange   HistoryEventType = "plan_change"
	HistoryEventPaused       HistoryEventType = "paused"
	HistoryEventResumed      HistoryEventType = "resumed"
	HistoryEventPeriodRolled HistoryEventType = "period_rolled"
)

// CreditReason enumerates why a Credit was issued.
type CreditReason string

const (
	CreditReasonManual         CreditReason = "manual"
	CreditReasonRefundFromVoid CreditReason = "refund_from_void"
	CreditReasonSplit          CreditReason = "split_remainder"
)

func (s SubscriptionStatus) Validate() error {
	switch s {
	case SubscriptionStatusTrialing, SubscriptionStatusActive, SubscriptionStatusPastDue,
		SubscriptionStatusCancelled, SubscriptionStatusPaused:
		return nil
	default:
		return ierr.NewErrorf("invalid subscription status %q", s).
			WithHint("subscription status must be one of trialing, active, past_due, paused, cancelled").
			Mark(ierr.ErrValidation)
	}
}

func (b BillingInterval) Validate() error {
	switch b {
	case BillingIntervalMonth, BillingIntervalYear:
		return nil
	default:
		return ierr.NewErrorf("invalid billing interval %q", b).
			WithHint("interval must be month or year").
			Mark(ierr.ErrValidation)
	}
}
