// Package api wires the HTTP edge: a Handlers bundle and the gin router
// that mounts it, grounded on the teacher's internal/api/router.go.
package api

import v1 "github.com/sugu-inc/modern-billing/internal/api/v1"

// Handlers bundles every v1 handler the router mounts. Constructed by
// fx.Provide in cmd/server/main.go, mirroring the teacher's Handlers
// struct.
type Handlers struct {
	Health        *v1.HealthHandler
	Account       *v1.AccountHandler
	Plan          *v1.PlanHandler
	Subscription  *v1.SubscriptionHandler
	Invoice       *v1.InvoiceHandler
	Payment       *v1.PaymentHandler
	PaymentMethod *v1.PaymentMethodHandler
	Credit        *v1.CreditHandler
	Usage         *v1.UsageHandler
	Webhook       *v1.WebhookHandler
}
