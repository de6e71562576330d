package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sugu-inc/modern-billing/internal/config"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/testutil"
	"github.com/sugu-inc/modern-billing/internal/types"
)

func newWebhookFixture(t *testing.T) (*WebhookService, *testutil.InMemoryWebhookEventStore, *testutil.InMemoryWebhookEndpointStore) {
	t.Helper()
	events := testutil.NewInMemoryWebhookEventStore()
	endpoints := testutil.NewInMemoryWebhookEndpointStore()
	cfg := config.Webhook{RequestTimeout: 2 * time.Second}
	return NewWebhookService(events, endpoints, nil, cfg, logger.NewNop()), events, endpoints
}

func TestWebhookEmitCreatesOneOutboxRowPerMatchingEndpoint(t *testing.T) {
	svc, events, endpoints := newWebhookFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := svc.RegisterEndpoint(ctx, "https://example.com/invoices", []string{"invoice.*"}); err != nil {
		t.Fatalf("RegisterEndpoint: %v", err)
	}
	if _, err := svc.RegisterEndpoint(ctx, "https://example.com/payments", []string{string(types.EventPaymentSucceeded)}); err != nil {
		t.Fatalf("RegisterEndpoint: %v", err)
	}

	if err := svc.Emit(ctx, now, types.EventInvoicePaid, map[string]string{"id": "inv-1"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	due, err := events.DueForDispatch(ctx, now, 0)
	if err != nil {
		t.Fatalf("DueForDispatch: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected exactly one outbox row (only the invoice.* endpoint matches), got %d", len(due))
	}
	if due[0].EndpointURL != "https://example.com/invoices" {
		t.Fatalf("EndpointURL = %q, want the invoice.* subscriber", due[0].EndpointURL)
	}

	_ = endpoints
}

func TestWebhookEmitSkipsInactiveEndpoint(t *testing.T) {
	svc, events, endpoints := newWebhookFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ep, err := svc.RegisterEndpoint(ctx, "https://example.com/hook", []string{"*"})
	if err != nil {
		t.Fatalf("RegisterEndpoint: %v", err)
	}
	ep.Active = false
	if err := endpoints.Update(ctx, ep); err != nil {
		t.Fatalf("deactivate endpoint: %v", err)
	}

	if err := svc.Emit(ctx, now, types.EventInvoicePaid, nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	due, err := events.DueForDispatch(ctx, now, 0)
	if err != nil {
		t.Fatalf("DueForDispatch: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected no outbox rows for an inactive endpoint, got %d", len(due))
	}
}

func TestWebhookDispatchDueDeliversToALiveEndpoint(t *testing.T) {
	svc, events, _ := newWebhookFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	received := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, err := svc.RegisterEndpoint(ctx, srv.URL, []string{"*"}); err != nil {
		t.Fatalf("RegisterEndpoint: %v", err)
	}
	if err := svc.Emit(ctx, now, types.EventInvoicePaid, map[string]string{"id": "inv-1"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	delivered, err := svc.DispatchDue(ctx, now, 0)
	if err != nil {
		t.Fatalf("DispatchDue: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}

	select {
	case req := <-received:
		if req.Header.Get("X-Webhook-Event-Id") == "" {
			t.Fatal("expected the delivered request to carry an event id header")
		}
	case <-time.After(time.Second):
		t.Fatal("endpoint never received the delivery")
	}

	due, err := events.DueForDispatch(ctx, now, 0)
	if err != nil {
		t.Fatalf("DueForDispatch: %v", err)
	}
	if len(due) != 0 {
		t.Fatal("a delivered event must not be redelivered")
	}
}

func TestWebhookDispatchDueSchedulesBackoffOnFailure(t *testing.T) {
	svc, events, _ := newWebhookFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := svc.RegisterEndpoint(ctx, srv.URL, []string{"*"}); err != nil {
		t.Fatalf("RegisterEndpoint: %v", err)
	}
	if err := svc.Emit(ctx, now, types.EventInvoicePaid, nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if _, err := svc.DispatchDue(ctx, now, 0); err != nil {
		t.Fatalf("DispatchDue: %v", err)
	}

	// The failed event is scheduled for a future retry, so it is no longer
	// immediately due.
	stillDue, err := events.DueForDispatch(ctx, now, 0)
	if err != nil {
		t.Fatalf("DueForDispatch: %v", err)
	}
	if len(stillDue) != 0 {
		t.Fatal("expected the failed delivery to not be immediately re-due")
	}
}
