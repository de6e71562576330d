package kafka

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/sugu-inc/modern-billing/internal/config"
)

// Consumer subscribes to the webhook dispatch topic. No process in this
// tree constructs one: the webhook_dispatch scheduler (spec.md §4.9) runs
// on its 1-minute poll alone, and DispatchDue's SELECT-based batch claim
// decides what gets delivered.
type Consumer struct {
	subscriber message.Subscriber
	topic      string
}

// NewConsumer opens a watermill/Kafka subscriber on cfg.Webhook.Topic
// using cfg.Webhook.ConsumerGroup.
func NewConsumer(cfg *config.Configuration) (*Consumer, error) {
	debug := cfg.Logging.Level == "debug"

	sc := saramaConfig(cfg.Kafka)
	sc.Consumer.Group.Session.Timeout = 45 * time.Second
	sc.Consumer.MaxWaitTime = 100 * time.Millisecond

	subscriber, err := wmkafka.NewSubscriber(
		wmkafka.SubscriberConfig{
			Brokers:               cfg.Kafka.Brokers,
			ConsumerGroup:         cfg.Webhook.ConsumerGroup,
			Unmarshaler:           wmkafka.DefaultMarshaler{},
			OverwriteSaramaConfig: sc,
			ReconnectRetrySleep:   time.Second,
		},
		watermill.NewStdLogger(debug, debug),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{subscriber: subscriber, topic: cfg.Webhook.Topic}, nil
}

// Subscribe returns the channel of incoming dispatch-wakeup messages.
func (c *Consumer) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return c.subscriber.Subscribe(ctx, c.topic)
}

// Close releases the underlying Kafka connection.
func (c *Consumer) Close() error {
	return c.subscriber.Close()
}
