// Package idgen centralizes ID generation: ULIDs for rows whose natural
// insertion order matters (webhook events, usage records), UUIDs elsewhere.
// Grounded on the teacher's dual use of oklog/ulid and google/uuid across
// the pack (flexprice uses ulid for time-ordered ids, uuid for others).
package idgen

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewUUID returns a random v4 UUID string.
func NewUUID() string {
	return uuid.New().String()
}

// NewULID returns a lexicographically sortable ID seeded off the given time.
func NewULID(at time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// ServerIdempotencyKey builds the caller-omitted idempotency key format
// spec.md §6 mandates: payment_{invoice_id}_{uuid}.
func ServerIdempotencyKey(invoiceID string) string {
	return "payment_" + invoiceID + "_" + NewUUID()
}

// jitter returns a small random duration in [0, max) used to spread
// scheduler sweeps across worker processes.
func Jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}
