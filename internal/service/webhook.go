package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/sugu-inc/modern-billing/internal/config"
	"github.com/sugu-inc/modern-billing/internal/domain/webhook"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// EventEnvelope is the wire shape of a dispatched webhook (spec.md §6): a
// stable id, the event type, the causing aggregate's id, and a
// server-stamped timestamp.
type EventEnvelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created"`
	Data      any       `json:"data"`
}

// EventPublisher announces the ID of each fresh outbox row on the Kafka
// dispatch topic. No process in this tree consumes that topic: the
// webhook_dispatch workflow finds rows through DispatchDue's own SELECT on
// its 1-minute poll, so a nil publisher or a dropped message does not
// change what gets delivered or when.
type EventPublisher interface {
	PublishEventID(eventID string) error
}

// WebhookService implements the Event Outbox and its Dispatcher (spec.md
// §4.8, redesigned per §9 around a store-backed Endpoint entity instead of
// an in-process registry).
type WebhookService struct {
	events    webhook.EventRepository
	endpoints webhook.EndpointRepository
	client    *retryablehttp.Client
	publisher EventPublisher
	logger    *logger.Logger
	cfg       config.Webhook
}

// NewWebhookService wires the Event Outbox/Dispatcher. The retryablehttp
// client handles transport-level retries (connection errors, 5xx) within a
// single dispatch attempt; the outbox's own Backoff ladder governs spacing
// between dispatch attempts across sweeps, which retryablehttp alone can't
// express since it doesn't persist state between process runs. publisher
// may be nil (unit tests, or Kafka disabled) — Emit then skips the publish.
func NewWebhookService(events webhook.EventRepository, endpoints webhook.EndpointRepository, publisher EventPublisher, cfg config.Webhook, log *logger.Logger) *WebhookService {
	client := retryablehttp.NewClient()
	client.Logger = log.GetRetryableHTTPLogger()
	client.RetryMax = 2
	client.HTTPClient.Timeout = cfg.RequestTimeout
	if client.HTTPClient.Timeout <= 0 {
		client.HTTPClient.Timeout = 10 * time.Second
	}
	return &WebhookService{events: events, endpoints: endpoints, client: client, publisher: publisher, logger: log, cfg: cfg}
}

// Emit fans an event out to every active endpoint subscribed to eventType
// (spec.md §4.8), one outbox row per matching endpoint. The services call
// it after their triggering write has been saved, outside any shared
// transaction, so the outbox rows and the domain change are not committed
// atomically.
func (s *WebhookService) Emit(ctx context.Context, now time.Time, eventType types.EventType, data any) error {
	endpoints, err := s.endpoints.ListActive(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(EventEnvelope{
		ID:        idgen.NewULID(now),
		Type:      string(eventType),
		CreatedAt: now,
		Data:      data,
	})
	if err != nil {
		return err
	}

	for _, ep := range endpoints {
		if !ep.Matches(eventType) {
			continue
		}
		evt := &webhook.Event{
			ID:          idgen.NewULID(now),
			EventType:   eventType,
			Payload:     payload,
			EndpointURL: ep.URL,
			EndpointID:  ep.ID,
			Status:      types.WebhookEventStatusPending,
			CreatedAt:   now,
		}
		if err := evt.Validate(); err != nil {
			return err
		}
		if err := s.events.Create(ctx, evt); err != nil {
			return err
		}
		if s.publisher != nil {
			if err := s.publisher.PublishEventID(evt.ID); err != nil {
				s.logger.Debugw("webhook dispatch wakeup publish failed", "error", err, "event_id", evt.ID)
			}
		}
	}
	return nil
}

// DispatchDue drains one batch of ready outbox rows, driven by the
// webhook_dispatch scheduler (spec.md §4.9, every 1 min). Rows are claimed
// via the repository's SELECT...FOR UPDATE SKIP LOCKED query (spec.md §5)
// so multiple dispatcher workers can run concurrently without double-send.
func (s *WebhookService) DispatchDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.events.DueForDispatch(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, evt := range due {
		if err := s.deliver(ctx, evt, now); err != nil {
			s.logger.Errorw("webhook delivery failed", "error", err, "event_id", evt.ID, "endpoint_url", evt.EndpointURL)
			continue
		}
		if evt.Status == types.WebhookEventStatusDelivered {
			delivered++
		}
	}
	return delivered, nil
}

// deliver POSTs one event and updates its outbox row with the outcome.
func (s *WebhookService) deliver(ctx context.Context, evt *webhook.Event, now time.Time) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, evt.EndpointURL, bytes.NewReader(evt.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event-Id", evt.ID)

	resp, err := s.client.Do(req)
	if err != nil {
		return s.recordFailure(ctx, evt, now, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		evt.Status = types.WebhookEventStatusDelivered
		evt.DeliveredAt = &now
		return s.events.Update(ctx, evt)
	}
	return s.recordFailure(ctx, evt, now, fmt.Sprintf("endpoint responded %d", resp.StatusCode))
}

// recordFailure bumps retry_count and schedules the next attempt per the
// fixed backoff ladder, freezing the event at MaxRetries (spec.md §4.8:
// "if retry_count >= 5, status=failed").
func (s *WebhookService) recordFailure(ctx context.Context, evt *webhook.Event, now time.Time, reason string) error {
	evt.RetryCount++
	evt.LastError = reason
	if evt.RetryCount >= webhook.MaxRetries {
		evt.Status = types.WebhookEventStatusFailed
	} else {
		next := now.Add(webhook.NextBackoff(evt.RetryCount))
		evt.NextRetryAt = &next
	}
	return s.events.Update(ctx, evt)
}

// RegisterEndpoint adds a new subscribed webhook endpoint.
func (s *WebhookService) RegisterEndpoint(ctx context.Context, url string, events []string) (*webhook.Endpoint, error) {
	now := time.Now().UTC()
	ep := &webhook.Endpoint{
		ID:        idgen.NewUUID(),
		URL:       url,
		Events:    events,
		Active:    true,
		BaseModel: types.NewBaseModel(now, "system"),
	}
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	if err := s.endpoints.Create(ctx, ep); err != nil {
		return nil, err
	}
	return ep, nil
}
