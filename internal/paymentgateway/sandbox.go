package paymentgateway

import (
	"context"
	"sync"

	"github.com/sugu-inc/modern-billing/internal/types"
)

// Sandbox is a deterministic in-memory Gateway used by tests and local
// development when no real processor is configured. It mirrors the
// idempotency-key-dedupes-to-one-charge contract without any network call,
// and lets callers script per-token outcomes (decline a specific token,
// etc.) the way test doubles for the teacher's gateway adapters do.
type Sandbox struct {
	mu       sync.Mutex
	charges  map[string]Result // idempotency key -> the one charge it produced
	declines map[string]string // token -> forced decline reason
	pendings map[string]bool   // token -> forced "pending" outcome
}

// NewSandbox builds an empty Sandbox gateway.
func NewSandbox() *Sandbox {
	return &Sandbox{
		charges:  make(map[string]Result),
		declines: make(map[string]string),
		pendings: make(map[string]bool),
	}
}

func (s *Sandbox) Name() string { return "sandbox" }

// AlwaysDecline scripts every future Attempt against token to fail with
// reason, until reset.
func (s *Sandbox) AlwaysDecline(token, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declines[token] = reason
}

// AlwaysPending scripts every future Attempt against token to return
// "pending", simulating an asynchronous gateway awaiting its own callback.
func (s *Sandbox) AlwaysPending(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendings[token] = true
}

func (s *Sandbox) Attempt(ctx context.Context, amount int64, currency, token, key string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.charges[key]; ok {
		// Same idempotency key: return the prior outcome, charge no one
		// twice (spec.md §6's gateway contract).
		return existing, nil
	}

	var res Result
	switch {
	case s.pendings[token]:
		res = Result{Status: types.GatewayResultPending, TxnID: "sandbox_pi_" + key}
	case s.declines[token] != "":
		res = Result{Status: types.GatewayResultFailed, Reason: s.declines[token]}
	default:
		res = Result{Status: types.GatewayResultSucceeded, TxnID: "sandbox_pi_" + key}
	}

	s.charges[key] = res
	return res, nil
}
