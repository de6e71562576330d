// Package notification implements the Notification Sink external
// collaborator (spec.md §2 row N): best-effort delivery of user-visible
// notifications for dunning reminders/warnings/blocks and payment outcomes.
//
// Grounded on the teacher's internal/email/service.go (resend-go client,
// enabled/disabled gating, structured logging of send failures), generalized
// from a single Email type to the Sink interface spec.md §2 calls for.
package notification

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/sugu-inc/modern-billing/internal/config"
	"github.com/sugu-inc/modern-billing/internal/logger"
)

// Kind enumerates the notification shapes the Dunning Controller and
// Payment Orchestrator emit (spec.md §4.6, §4.4).
type Kind string

const (
	KindReminder       Kind = "reminder"
	KindWarning        Kind = "warning"
	KindServiceBlocked Kind = "service_blocked"
	KindPaymentFailed  Kind = "payment_failed"
)

// Notification is a single best-effort, user-visible message.
type Notification struct {
	AccountID string
	ToAddress string
	Kind      Kind
	Subject   string
	Body      string
}

// Sink delivers Notifications. Delivery is best-effort: callers must not
// treat a Sink error as a reason to roll back the billing-state change that
// triggered it (spec.md §2: "Best-effort delivery").
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// resendSink delivers via the Resend transactional email API, mirroring the
// teacher's EmailClient/resend.Client wiring.
type resendSink struct {
	client  *resend.Client
	from    string
	enabled bool
	logger  *logger.Logger
}

// NewResendSink builds a Sink backed by resend-go. When cfg.Enabled is
// false, Send logs and returns nil rather than calling out, matching the
// teacher's "email client is disabled, skipping" behavior.
func NewResendSink(cfg config.NotifyConfig, log *logger.Logger) Sink {
	return &resendSink{
		client:  resend.NewClient(cfg.APIKey),
		from:    cfg.From,
		enabled: cfg.Enabled,
		logger:  log,
	}
}

func (s *resendSink) Send(ctx context.Context, n Notification) error {
	if !s.enabled {
		s.logger.Infow("notification sink disabled, skipping send",
			"account_id", n.AccountID, "kind", n.Kind)
		return nil
	}
	if n.ToAddress == "" {
		return nil
	}

	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{n.ToAddress},
		Subject: n.Subject,
		Text:    n.Body,
	})
	if err != nil {
		s.logger.Errorw("notification delivery failed",
			"error", err, "account_id", n.AccountID, "kind", n.Kind)
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

// NopSink discards every notification; used in tests and for accounts with
// no notification channel configured.
type NopSink struct{}

func (NopSink) Send(context.Context, Notification) error { return nil }

// DunningSubject renders the subject line for a dunning escalation step.
func DunningSubject(kind Kind, invoiceNumber string) string {
	switch kind {
	case KindReminder:
		return fmt.Sprintf("Payment reminder for invoice %s", invoiceNumber)
	case KindWarning:
		return fmt.Sprintf("Action required: invoice %s is overdue", invoiceNumber)
	case KindServiceBlocked:
		return fmt.Sprintf("Service suspended: invoice %s remains unpaid", invoiceNumber)
	default:
		return fmt.Sprintf("Billing notice for invoice %s", invoiceNumber)
	}
}
