// Package kafka carries WebhookEvent outbox rows from the transactional
// writer (internal/service.WebhookService.Emit) to the dispatcher workflow
// that drains them, per SPEC_FULL.md §4.8/§2's domain-stack wiring: a
// Kafka topic sits between the outbox insert and the HTTP delivery loop so
// dispatch can scale independently of the API process. Grounded on the
// teacher's internal/kafka/base.go Sarama config (SASL/SCRAM, debug
// logging) and internal/pubsub/kafka's watermill producer/consumer split
// (vidinfra-flexprice).
package kafka

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/tls"
	"hash"
	"time"

	"github.com/Shopify/sarama"
	"github.com/xdg-go/scram"

	"github.com/sugu-inc/modern-billing/internal/config"
)

// saramaConfig builds the shared client config both the producer and
// consumer use, mirroring the teacher's single GetSaramaConfig entry
// point so SASL/TLS setup never drifts between the two call sites.
func saramaConfig(cfg config.KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_1_0_0
	sc.ClientID = cfg.ClientID

	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Offsets.AutoCommit.Enable = true
	sc.Consumer.Offsets.AutoCommit.Interval = 5 * time.Second
	sc.Consumer.Offsets.Retry.Max = 3

	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true

	if cfg.TLS {
		sc.Net.TLS.Enable = true
		sc.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if !cfg.UseSASL {
		return sc
	}

	sc.Net.SASL.Enable = true
	sc.Net.TLS.Enable = true
	sc.Net.SASL.Mechanism = sarama.SASLMechanism(cfg.SASLMechanism)
	sc.Net.SASL.User = cfg.SASLUser
	sc.Net.SASL.Password = cfg.SASLPassword

	if sc.Net.SASL.Mechanism == sarama.SASLTypeSCRAMSHA256 || sc.Net.SASL.Mechanism == sarama.SASLTypeSCRAMSHA512 {
		sc.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &xdgSCRAMClient{HashGeneratorFcn: hashGenerator(sc.Net.SASL.Mechanism)}
		}
	}

	return sc
}

// xdgSCRAMClient adapts xdg-go/scram to sarama.SCRAMClient, identical to
// the teacher's XDGSCRAMClient.
type xdgSCRAMClient struct {
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

func (x *xdgSCRAMClient) Begin(userName, password, authzID string) error {
	client, err := x.HashGeneratorFcn.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	x.ClientConversation = client.NewConversation()
	return nil
}

func (x *xdgSCRAMClient) Step(challenge string) (string, error) {
	return x.ClientConversation.Step(challenge)
}

func (x *xdgSCRAMClient) Done() bool {
	return x.ClientConversation.Done()
}

func hashGenerator(mechanism sarama.SASLMechanism) scram.HashGeneratorFcn {
	if mechanism == sarama.SASLTypeSCRAMSHA256 {
		return func() hash.Hash { return sha256.New() }
	}
	return func() hash.Hash { return sha512.New() }
}
