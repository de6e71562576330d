// Package paymentgateway implements the Payment Gateway external
// collaborator (spec.md §2 row P, §4.4, §6): "attempt a charge with an
// idempotency key; returns {succeeded, failed(reason), pending}", with the
// guarantee that two calls with the same key produce at most one charge.
package paymentgateway

import (
	"context"
	"time"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// Timeout bounds every gateway call (spec.md §5: "payment gateway: 30 s").
const Timeout = 30 * time.Second

// Result is the gateway's outcome for one attempt (spec.md §4.4 step 4).
type Result struct {
	Status    types.GatewayResultStatus
	TxnID     string
	Reason    string // populated when Status == failed
}

// Gateway charges a tokenized payment method. Implementations MUST make
// two calls sharing the same idempotency key produce at most one charge —
// this is the non-negotiable contract spec.md §6 states explicitly.
type Gateway interface {
	// Attempt charges amount (in currency's minor units) against token,
	// fenced by key. ctx should carry Timeout.
	Attempt(ctx context.Context, amount int64, currency, token, key string) (Result, error)
	// Name identifies this adapter for logging/routing (spec.md
	// GatewaysConfig.Default selects among registered adapters by name).
	Name() string
}

// Registry resolves a configured default Gateway plus any named
// alternates, mirroring the teacher's per-provider adapter registration
// (internal/integration/{moyasar,stripe,chargebee,razorpay}) generalized
// behind spec.md §4.4's single Gateway interface.
type Registry struct {
	def  string
	byID map[string]Gateway
}

// NewRegistry builds a Registry. defaultName must match one of gateways'
// Name() values.
func NewRegistry(defaultName string, gateways ...Gateway) (*Registry, error) {
	byID := make(map[string]Gateway, len(gateways))
	for _, g := range gateways {
		byID[g.Name()] = g
	}
	if _, ok := byID[defaultName]; !ok {
		return nil, ierr.NewErrorf("unknown default gateway %q", defaultName).Mark(ierr.ErrValidation)
	}
	return &Registry{def: defaultName, byID: byID}, nil
}

// Default returns the configured default Gateway (spec.md §4.4's normal
// invocation path; per-account gateway overrides would look up byID
// instead, which this engine's single-tenant scope doesn't require).
func (r *Registry) Default() Gateway {
	return r.byID[r.def]
}

// Get resolves a named gateway, for account-level gateway overrides.
func (r *Registry) Get(name string) (Gateway, bool) {
	g, ok := r.byID[name]
	return g, ok
}
