// Package config loads process configuration from config.yaml plus
// MODERNBILLING_-prefixed environment overrides, the way the teacher's
// internal/config package does (viper + godotenv + mapstructure tags).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration is the root process configuration.
type Configuration struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Gateways   GatewaysConfig   `mapstructure:"gateways"`
	Tax        TaxConfig        `mapstructure:"tax"`
	Webhook    Webhook          `mapstructure:"webhook"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Notify     NotifyConfig     `mapstructure:"notify"`
}

// ServerConfig is the HTTP API bind address.
type ServerConfig struct {
	Address string `mapstructure:"address" default:":8080"`
}

// LoggingConfig selects the zap build profile.
type LoggingConfig struct {
	Level string `mapstructure:"level" default:"info"`
}

// PostgresConfig is the ent/lib-pq connection and pool configuration.
type PostgresConfig struct {
	Host                   string `mapstructure:"host" default:"localhost"`
	Port                   int    `mapstructure:"port" default:"5432"`
	User                   string `mapstructure:"user" default:"postgres"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname" default:"modern_billing"`
	SSLMode                string `mapstructure:"sslmode" default:"disable"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"20"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
}

// DSN renders the postgres connection string lib/pq expects.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// RedisConfig backs the edge read-cache in front of the account/plan repositories.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" default:"false"`
	Address  string `mapstructure:"address" default:"localhost:6379"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" default:"0"`
	TTL      time.Duration `mapstructure:"ttl" default:"5m"`
}

// KafkaConfig is shared by the event outbox publisher and its consumer group.
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers" default:"[\"localhost:9092\"]"`
	ConsumerGroup string   `mapstructure:"consumer_group" default:"modern-billing-webhook"`
	ClientID      string   `mapstructure:"client_id" default:"modern-billing"`
	TLS           bool     `mapstructure:"tls"`
	UseSASL       bool     `mapstructure:"use_sasl"`
	SASLMechanism string   `mapstructure:"sasl_mechanism" default:"SCRAM-SHA-512"`
	SASLUser      string   `mapstructure:"sasl_user"`
	SASLPassword  string   `mapstructure:"sasl_password"`
}

// TemporalConfig points the workers and client at the Temporal frontend that
// runs the nine periodic scheduler workflows (spec.md §4.9).
type TemporalConfig struct {
	Address   string `mapstructure:"address" default:"localhost:7233"`
	Namespace string `mapstructure:"namespace" default:"default"`
	TaskQueue string `mapstructure:"task_queue" default:"modern-billing-tasks"`
	APIKey    string `mapstructure:"api_key"`
	TLS       bool   `mapstructure:"tls"`
}

// SentryConfig wires best-effort error reporting around the service layer.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled" default:"false"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment" default:"development"`
	SampleRate  float64 `mapstructure:"sample_rate" default:"1.0"`
}

// GatewaysConfig carries credentials for every Payment Gateway adapter the
// Payment Orchestrator can route to (spec.md §4.4). Exactly one of these is
// selected as Default; the rest are available for per-account overrides.
type GatewaysConfig struct {
	Default    string           `mapstructure:"default" default:"stripe"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Chargebee  ChargebeeConfig  `mapstructure:"chargebee"`
	Razorpay   RazorpayConfig   `mapstructure:"razorpay"`
}

type StripeConfig struct {
	SecretKey      string `mapstructure:"secret_key"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
}

type ChargebeeConfig struct {
	Site   string `mapstructure:"site"`
	APIKey string `mapstructure:"api_key"`
}

type RazorpayConfig struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
}

// TaxConfig configures the Tax Oracle fallback rate (spec.md §4.2).
type TaxConfig struct {
	FallbackRatePercent float64 `mapstructure:"fallback_rate_percent" default:"10"`
}

// Webhook mirrors the teacher's internal/config/webhook.go shape, generalized
// from per-tenant endpoints to the spec's first-class WebhookEndpoint entity
// (spec.md §9 redesign: endpoints are data, not config) while keeping the
// dispatch-tuning knobs (retry backoff, dispatch topic) the teacher exposed.
type Webhook struct {
	Topic           string        `mapstructure:"topic" default:"webhook_events"`
	ConsumerGroup   string        `mapstructure:"consumer_group" default:"webhook-dispatcher"`
	MaxAttempts     int           `mapstructure:"max_attempts" default:"5"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" default:"10s"`
	BackoffMinutes  []int         `mapstructure:"backoff_minutes" default:"[3,6,12,24,48]"`
}

// SchedulerConfig holds the sweep interval for each of the nine periodic
// Temporal workflows named in spec.md §4.9.
type SchedulerConfig struct {
	BillingCycleCron   string `mapstructure:"billing_cycle_cron" default:"0 * * * *"`
	TrialExpiryCron    string `mapstructure:"trial_expiry_cron" default:"0 * * * *"`
	PlanChangeApplyCron string `mapstructure:"plan_change_apply_cron" default:"0 * * * *"`
	PaymentRetryCron   string `mapstructure:"payment_retry_cron" default:"*/15 * * * *"`
	DunningSweepCron   string `mapstructure:"dunning_sweep_cron" default:"0 0 * * *"`
	LateUsageCron      string `mapstructure:"late_usage_cron" default:"0 0 * * *"`
	PauseAutoCron      string `mapstructure:"pause_auto_cron" default:"0 0 * * *"`
	WebhookDispatchCron string `mapstructure:"webhook_dispatch_cron" default:"* * * * *"`
	AnalyticsRollupCron string `mapstructure:"analytics_rollup_cron" default:"0 * * * *"`
}

// NotifyConfig configures the account-suspension/dunning email sink.
type NotifyConfig struct {
	Enabled bool   `mapstructure:"enabled" default:"false"`
	APIKey  string `mapstructure:"api_key"`
	From    string `mapstructure:"from" default:"billing@modern-billing.example"`
}

// NewConfig loads config.yaml (if present) and MODERNBILLING_-prefixed env
// vars into a Configuration, same load order the teacher's NewConfig uses:
// dotenv first, then viper file+env, unmarshalled by mapstructure tag.
func NewConfig() (*Configuration, error) {
	v := viper.New()

	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MODERNBILLING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.dbname", "modern_billing")
	v.SetDefault("temporal.address", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "modern-billing-tasks")
	v.SetDefault("gateways.default", "stripe")
	v.SetDefault("tax.fallback_rate_percent", 10.0)
	v.SetDefault("webhook.topic", "webhook_events")
	v.SetDefault("webhook.max_attempts", 5)
	v.SetDefault("webhook.backoff_minutes", []int{3, 6, 12, 24, 48})
	v.SetDefault("webhook.request_timeout", "10s")
	v.SetDefault("scheduler.billing_cycle_cron", "0 * * * *")
	v.SetDefault("scheduler.webhook_dispatch_cron", "* * * * *")
}
