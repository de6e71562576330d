// Command server runs the HTTP API process: gin handlers over the
// Subscription Engine, Invoice Assembler, Payment Orchestrator, Credit
// Manager, and Usage Recorder, wired with go.uber.org/fx the way the
// teacher's cmd/server/main.go wires flexprice's services.
package main

import (
	"context"
	"database/sql"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/fx"

	"github.com/sugu-inc/modern-billing/docs/swagger"
	"github.com/sugu-inc/modern-billing/ent"
	"github.com/sugu-inc/modern-billing/internal/api"
	v1 "github.com/sugu-inc/modern-billing/internal/api/v1"
	"github.com/sugu-inc/modern-billing/internal/cache"
	"github.com/sugu-inc/modern-billing/internal/config"
	"github.com/sugu-inc/modern-billing/internal/kafka"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/notification"
	"github.com/sugu-inc/modern-billing/internal/paymentgateway"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	entrepo "github.com/sugu-inc/modern-billing/internal/repository/ent"
	"github.com/sugu-inc/modern-billing/internal/sentry"
	"github.com/sugu-inc/modern-billing/internal/service"
	"github.com/sugu-inc/modern-billing/internal/taxoracle"
)

// @title Modern Billing API
// @version 1.0
// @description Subscription billing engine: accounts, plans, subscriptions, invoices, payments, credits, usage and webhooks.
// @BasePath /v1

func init() {
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,

			// Config sub-sections, extracted for constructors that take
			// one concern's config rather than the whole Configuration
			providePostgresConfig,
			provideRedisConfig,
			provideWebhookConfig,
			provideTaxConfig,
			provideNotifyConfig,

			// Postgres
			provideSQLDB,
			provideEntClient,
			postgres.NewClient,
			providePostgresIClient,

			// Cache
			cache.New,

			// Kafka event publisher (wakes the webhook dispatcher)
			kafka.NewProducer,
			provideEventPublisher,

			// Domain stack: tax oracle, notification sink, payment gateways.
			// NewInvoiceService takes both a primary and a fallback Oracle;
			// this engine runs a single flat-rate oracle for both, so one
			// provider satisfies both parameters.
			taxoracle.NewFlatRateOracle,
			notification.NewResendSink,
			provideGatewayRegistry,

			// Sentry
			sentry.NewService,

			// Repositories
			entrepo.NewAccountRepository,
			entrepo.NewPlanRepository,
			entrepo.NewSubscriptionRepository,
			entrepo.NewInvoiceRepository,
			entrepo.NewPaymentRepository,
			entrepo.NewPaymentMethodRepository,
			entrepo.NewCreditRepository,
			entrepo.NewUsageRecordRepository,
			entrepo.NewWebhookEventRepository,
			entrepo.NewWebhookEndpointRepository,
			entrepo.NewAnalyticsRepository,

			// Services
			service.NewWebhookService,
			service.NewSubscriptionService,
			service.NewCreditService,
			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewUsageService,
			service.NewDunningService,
			service.NewAnalyticsService,

			// Handlers
			v1.NewHealthHandler,
			v1.NewAccountHandler,
			v1.NewPlanHandler,
			v1.NewSubscriptionHandler,
			v1.NewInvoiceHandler,
			v1.NewPaymentHandler,
			v1.NewPaymentMethodHandler,
			v1.NewCreditHandler,
			v1.NewUsageHandler,
			v1.NewWebhookHandler,

			provideHandlers,
			provideRouter,
		),
		sentry.Module(),
		fx.Invoke(startServer),
	)
	app.Run()
}

func provideSQLDB(cfg *config.Configuration) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}
	return db, nil
}

func provideEntClient(db *sql.DB) *ent.Client {
	drv := entsql.OpenDB(dialect.Postgres, db)
	return ent.NewClient(ent.Driver(drv))
}

func providePostgresIClient(c *postgres.Client) postgres.IClient { return c }

func providePostgresConfig(cfg *config.Configuration) *config.PostgresConfig { return &cfg.Postgres }
func provideRedisConfig(cfg *config.Configuration) config.RedisConfig       { return cfg.Redis }
func provideWebhookConfig(cfg *config.Configuration) config.Webhook         { return cfg.Webhook }
func provideTaxConfig(cfg *config.Configuration) config.TaxConfig          { return cfg.Tax }
func provideNotifyConfig(cfg *config.Configuration) config.NotifyConfig    { return cfg.Notify }

// provideEventPublisher adapts kafka.Producer to service.EventPublisher,
// satisfying NewWebhookService without internal/service importing kafka.
func provideEventPublisher(p *kafka.Producer) service.EventPublisher { return p }

func provideGatewayRegistry(cfg *config.Configuration, log *logger.Logger) (*paymentgateway.Registry, error) {
	gateways := []paymentgateway.Gateway{
		paymentgateway.NewStripeGateway(cfg.Gateways.Stripe, log),
		paymentgateway.NewChargebeeGateway(cfg.Gateways.Chargebee, log),
		paymentgateway.NewRazorpayGateway(cfg.Gateways.Razorpay, log),
		paymentgateway.NewSandbox(),
	}
	return paymentgateway.NewRegistry(cfg.Gateways.Default, gateways...)
}

func provideHandlers(
	health *v1.HealthHandler,
	account *v1.AccountHandler,
	plan *v1.PlanHandler,
	subscription *v1.SubscriptionHandler,
	invoice *v1.InvoiceHandler,
	payment *v1.PaymentHandler,
	paymentMethod *v1.PaymentMethodHandler,
	credit *v1.CreditHandler,
	usage *v1.UsageHandler,
	webhook *v1.WebhookHandler,
) api.Handlers {
	return api.Handlers{
		Health:        health,
		Account:       account,
		Plan:          plan,
		Subscription:  subscription,
		Invoice:       invoice,
		Payment:       payment,
		PaymentMethod: paymentMethod,
		Credit:        credit,
		Usage:         usage,
		Webhook:       webhook,
	}
}

func provideRouter(h api.Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	return api.NewRouter(h, cfg, log)
}

func startServer(lc fx.Lifecycle, r *gin.Engine, cfg *config.Configuration, log *logger.Logger) {
	_ = swagger.SwaggerInfo
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalw("API server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down API server")
			return nil
		},
	})
}
