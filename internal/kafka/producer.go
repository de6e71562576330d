package kafka

import (
	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/sugu-inc/modern-billing/internal/config"
)

// Producer publishes outbox-event notifications onto the configured
// WebhookEvent dispatch topic. The message payload is just the
// WebhookEvent id — the dispatcher workflow still reads the authoritative
// row from the Ledger Store, exactly as spec.md §9 requires ("moved into
// the store as a first-class WebhookEndpoint entity", i.e. Kafka carries a
// wakeup signal, not the system of record).
type Producer struct {
	publisher message.Publisher
	topic     string
}

// NewProducer opens a watermill/Kafka publisher for cfg.Webhook.Topic.
func NewProducer(cfg *config.Configuration) (*Producer, error) {
	debug := cfg.Logging.Level == "debug"

	publisher, err := wmkafka.NewPublisher(
		wmkafka.PublisherConfig{
			Brokers:               cfg.Kafka.Brokers,
			Marshaler:             wmkafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig(cfg.Kafka),
		},
		watermill.NewStdLogger(debug, debug),
	)
	if err != nil {
		return nil, err
	}
	return &Producer{publisher: publisher, topic: cfg.Webhook.Topic}, nil
}

// PublishEventID publishes the id of a new WebhookEvent on the dispatch
// topic, keyed by the event id itself so re-publishing the same id is a
// harmless duplicate. No process in this tree consumes the topic; the
// dispatcher finds ready rows by querying the store.
func (p *Producer) PublishEventID(eventID string) error {
	msg := message.NewMessage(eventID, []byte(eventID))
	return p.publisher.Publish(p.topic, msg)
}

// Close releases the underlying Kafka connection.
func (p *Producer) Close() error {
	return p.publisher.Close()
}
