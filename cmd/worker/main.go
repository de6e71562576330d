// Command worker runs the Temporal worker process that hosts the nine
// periodic scheduler workflows of spec.md §4.9, wired with go.uber.org/fx
// the same way cmd/server wires the HTTP process, grounded on the
// teacher's temporal worker bootstrap in cmd/server/main.go.
package main

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/fx"

	"github.com/sugu-inc/modern-billing/ent"
	"github.com/sugu-inc/modern-billing/internal/cache"
	"github.com/sugu-inc/modern-billing/internal/config"
	"github.com/sugu-inc/modern-billing/internal/kafka"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/notification"
	"github.com/sugu-inc/modern-billing/internal/paymentgateway"
	"github.com/sugu-inc/modern-billing/internal/postgres"
	entrepo "github.com/sugu-inc/modern-billing/internal/repository/ent"
	"github.com/sugu-inc/modern-billing/internal/scheduler"
	"github.com/sugu-inc/modern-billing/internal/sentry"
	"github.com/sugu-inc/modern-billing/internal/service"
	"github.com/sugu-inc/modern-billing/internal/taxoracle"
)

func init() {
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,

			providePostgresConfig,
			provideRedisConfig,
			provideWebhookConfig,
			provideTaxConfig,
			provideNotifyConfig,

			provideSQLDB,
			provideEntClient,
			postgres.NewClient,
			providePostgresIClient,

			cache.New,

			kafka.NewProducer,
			provideEventPublisher,

			taxoracle.NewFlatRateOracle,
			notification.NewResendSink,
			provideGatewayRegistry,

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

			service.NewWebhookService,
			service.NewSubscriptionService,
			service.NewCreditService,
			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewUsageService,
			service.NewDunningService,
			service.NewAnalyticsService,

			scheduler.NewActivities,
			provideTemporalClient,
			provideTemporalWorker,
		),
		sentry.Module(),
		fx.Invoke(startWorker),
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

func provideTemporalClient(cfg *config.Configuration, log *logger.Logger) (client.Client, error) {
	opts := client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	}
	c, err := client.Dial(opts)
	if err != nil {
		log.Errorw("failed to dial temporal", "error", err)
		return nil, err
	}
	return c, nil
}

func provideTemporalWorker(cfg *config.Configuration, c client.Client, activities *scheduler.Activities) worker.Worker {
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	scheduler.RegisterAll(w, activities)
	return w
}

// startWorker runs the Temporal worker and creates/updates the nine named
// Schedules this engine maintains (spec.md §4.9), one per scheduler.Schedules
// entry, each targeting cfg.Temporal.TaskQueue.
func startWorker(lc fx.Lifecycle, c client.Client, w worker.Worker, cfg *config.Configuration, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ensureSchedules(ctx, c, cfg); err != nil {
				log.Errorw("failed to ensure temporal schedules", "error", err)
				return err
			}
			go func() {
				if err := w.Run(worker.InterruptCh()); err != nil {
					log.Fatalw("temporal worker stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			w.Stop()
			return nil
		},
	})
}

func ensureSchedules(ctx context.Context, c client.Client, cfg *config.Configuration) error {
	handle := c.ScheduleClient()
	for _, spec := range scheduler.Schedules(cfg.Scheduler) {
		_, err := handle.Create(ctx, client.ScheduleOptions{
			ID: spec.ScheduleID,
			Spec: client.ScheduleSpec{
				CronExpressions: []string{spec.Cron},
			},
			Action: &client.ScheduleWorkflowAction{
				ID:        spec.ScheduleID + "-run",
				Workflow:  spec.Workflow,
				TaskQueue: cfg.Temporal.TaskQueue,
			},
			Overlap: client.ScheduleOverlapPolicySkip,
		})
		if err != nil {
			if isAlreadyExists(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// isAlreadyExists treats a schedule that's already registered as success,
// so restarting the worker process is idempotent.
func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already")
}
