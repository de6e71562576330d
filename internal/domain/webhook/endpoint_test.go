package webhook

import (
	"testing"
	"time"

	"github.com/sugu-inc/modern-billing/internal/types"
)

func fixedNow() time.Time {
	return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
}

func TestEndpointMatchesWildcard(t *testing.T) {
	e := &Endpoint{Active: true, Events: []string{"*"}}
	if !e.Matches(types.EventInvoicePaid) {
		t.Fatal("expected \"*\" to subscribe to every event type")
	}
}

func TestEndpointMatchesExactEventType(t *testing.T) {
	e := &Endpoint{Active: true, Events: []string{string(types.EventInvoicePaid)}}
	if !e.Matches(types.EventInvoicePaid) {
		t.Fatal("expected an exact event type match")
	}
	if e.Matches(types.EventInvoiceVoided) {
		t.Fatal("did not expect a match for a different event type")
	}
}

func TestEndpointMatchesCategoryWildcard(t *testing.T) {
	e := &Endpoint{Active: true, Events: []string{"invoice.*"}}
	if !e.Matches(types.EventInvoicePaid) || !e.Matches(types.EventInvoiceCreated) {
		t.Fatal("expected \"invoice.*\" to match every invoice.* event")
	}
	if e.Matches(types.EventPaymentSucceeded) {
		t.Fatal("did not expect \"invoice.*\" to match a payment event")
	}
}

func TestInactiveEndpointNeverMatches(t *testing.T) {
	e := &Endpoint{Active: false, Events: []string{"*"}}
	if e.Matches(types.EventInvoicePaid) {
		t.Fatal("an inactive endpoint must never match")
	}
}

func TestEventReadyForDelivery(t *testing.T) {
	evt := &Event{Status: types.WebhookEventStatusPending}
	if !evt.IsReadyForDelivery(fixedNow()) {
		t.Fatal("a fresh pending event with retry_count=0 should be ready immediately")
	}
}

func TestEventNotReadyBeforeBackoffElapses(t *testing.T) {
	now := fixedNow()
	future := now.Add(time.Hour)
	evt := &Event{Status: types.WebhookEventStatusPending, RetryCount: 1, NextRetryAt: &future}
	if evt.IsReadyForDelivery(now) {
		t.Fatal("event scheduled for a future retry should not be ready yet")
	}
}

func TestDeliveredEventNeverReadyAgain(t *testing.T) {
	evt := &Event{Status: types.WebhookEventStatusDelivered}
	if evt.IsReadyForDelivery(fixedNow()) {
		t.Fatal("a delivered event must never be redelivered")
	}
}
